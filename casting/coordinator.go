// Package casting drives a ballot from submission to persistence:
// eligibility, candidate validation, encryption and the transactional
// vote insert, plus the batch, verification and tallying paths built on
// the same primitives.
package casting

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.vocdoni.io/dvote/log"

	"github.com/Onyex101/secureballot-sub007/ballot"
	"github.com/Onyex101/secureballot-sub007/database"
	"github.com/Onyex101/secureballot-sub007/keymanager"
	"github.com/Onyex101/secureballot-sub007/types"
)

// Coordinator validates and persists one vote per call. It keeps no
// mutable state of its own: every cross-request invariant lives in the
// database, so any number of coordinators may run concurrently.
type Coordinator struct {
	db   database.Database
	keys *keymanager.KeyManager
}

func NewCoordinator(db database.Database, keys *keymanager.KeyManager) *Coordinator {
	return &Coordinator{db: db, keys: keys}
}

// CastRequest is one ballot submission. EncryptedBallot is the JSON
// ballot envelope, already hex-decoded by the transport layer.
type CastRequest struct {
	VoterID         string
	ElectionID      string
	EncryptedBallot []byte
	Source          types.VoteSource
	// ClientPublicKey, when present and the voter has none on file, is
	// recorded inside the same transaction as the vote insert.
	ClientPublicKey []byte
	// Signature is an optional secp256k1 signature over EncryptedBallot,
	// verified against the voter's known public key.
	Signature []byte
}

// CastResult is the voter-facing outcome of a successful cast.
type CastResult struct {
	VoteID      string    `json:"voteId"`
	ReceiptCode string    `json:"receiptCode"`
	Timestamp   time.Time `json:"timestamp"`
}

// Cast runs the per-request state machine: voter validation,
// eligibility, ballot opening, candidate validation, encryption and the
// transactional persist. Failures exit with a typed error and leave no
// partial row; the duplicate-vote race is closed by the database
// uniqueness constraint, not by the eligibility pre-check.
func (c *Coordinator) Cast(req *CastRequest) (*CastResult, error) {
	if !req.Source.Valid() {
		return nil, fmt.Errorf("unknown vote source %q: %w", req.Source, types.ErrValidation)
	}

	// Voter validation
	voter, err := c.db.GetVoter(req.VoterID)
	if err != nil {
		return nil, err
	}
	if !voter.IsActive {
		return nil, fmt.Errorf("voter %s is not active: %w", voter.ID, types.ErrValidation)
	}
	if voter.PollingUnitCode == "" {
		return nil, fmt.Errorf("voter %s has no polling unit assigned: %w", voter.ID, types.ErrValidation)
	}

	election, err := c.db.GetElection(req.ElectionID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if !election.IsActive || election.Status != types.ElectionStatusActive ||
		now.Before(election.StartDate) || now.After(election.EndDate) {
		return nil, fmt.Errorf("election %s is not open for voting: %w",
			election.ID, types.ErrValidation)
	}

	// An unresolvable polling unit code is broken electorate data, not
	// a user error
	pollingUnit, err := c.db.GetPollingUnitByCode(voter.PollingUnitCode)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("polling unit code %q of voter %s does not resolve: %w",
				voter.PollingUnitCode, voter.ID, types.ErrConfig)
		}
		return nil, err
	}

	// Eligibility pre-check; the votes_voter_election_unique constraint
	// re-checks during the write
	hasVoted, err := c.db.HasVoted(voter.ID, election.ID)
	if err != nil {
		return nil, err
	}
	if hasVoted {
		return nil, fmt.Errorf("voter %s in election %s: %w", voter.ID, election.ID, types.ErrConflict)
	}

	if err := verifyRequestSignature(voter, req); err != nil {
		return nil, err
	}

	choice, err := c.openBallot(election.ID, req.EncryptedBallot)
	if err != nil {
		return nil, err
	}

	// Candidate validation
	candidate, err := c.db.GetCandidate(choice.CandidateID)
	if err != nil {
		return nil, err
	}
	if candidate.ElectionID != election.ID {
		return nil, fmt.Errorf("candidate %s does not belong to election %s: %w",
			candidate.ID, election.ID, types.ErrValidation)
	}
	if !candidate.IsActive || candidate.ApprovalStatus != "approved" {
		return nil, fmt.Errorf("candidate %s is not approved for voting: %w",
			candidate.ID, types.ErrValidation)
	}

	// Encode for storage
	pub, err := c.keys.PublicKey(election.ID)
	if err != nil {
		return nil, err
	}
	payload := &ballot.Payload{
		VoterID:       voter.ID,
		ElectionID:    election.ID,
		CandidateID:   candidate.ID,
		PollingUnitID: pollingUnit.ID,
		Timestamp:     now,
		Source:        req.Source,
	}
	encrypted, err := ballot.Encrypt(payload, pub)
	if err != nil {
		return nil, fmt.Errorf("could not encrypt vote payload: %w", err)
	}
	serialized, err := payload.Serialize()
	if err != nil {
		return nil, err
	}
	if !ballot.VerifyIntegrity(serialized, encrypted) {
		return nil, fmt.Errorf("freshly encoded vote failed integrity check: %w", types.ErrIntegrity)
	}

	vote := &types.Vote{
		ID:                   uuid.New().String(),
		VoterID:              voter.ID,
		ElectionID:           election.ID,
		CandidateID:          candidate.ID,
		PollingUnitID:        pollingUnit.ID,
		EncryptedPayload:     encrypted.Ciphertext,
		EncryptedSessionKey:  encrypted.EncryptedSessionKey,
		IV:                   encrypted.IV,
		IntegrityHash:        encrypted.IntegrityHash,
		PublicKeyFingerprint: encrypted.Fingerprint,
		Source:               req.Source,
		ReceiptCode:          ballot.NewReceiptCode(),
		Timestamp:            now,
	}
	var recordKey []byte
	if len(voter.PublicKey) == 0 {
		recordKey = req.ClientPublicKey
	}
	if err := c.db.CreateVote(vote, recordKey); err != nil {
		return nil, err
	}
	log.Infof("vote %s cast in election %s via %s", vote.ID, election.ID, vote.Source)
	return &CastResult{
		VoteID:      vote.ID,
		ReceiptCode: vote.ReceiptCode,
		Timestamp:   vote.Timestamp,
	}, nil
}

// openBallot unwraps and decrypts an incoming ballot envelope far enough
// to extract the declared candidate. The private key stays inside the
// key manager; only the per-vote session key is unwrapped here. Any
// undecryptable ballot is a validation failure at cast time.
func (c *Coordinator) openBallot(electionID string, rawEnvelope []byte) (*ballot.Choice, error) {
	var envelope ballot.EncryptedVote
	if err := json.Unmarshal(rawEnvelope, &envelope); err != nil {
		return nil, fmt.Errorf("malformed ballot envelope: %w", types.ErrValidation)
	}
	wrapped, err := decodeWrappedKey(envelope.EncryptedSessionKey)
	if err != nil {
		return nil, err
	}
	sessionKey, err := c.keys.UnwrapSessionKey(electionID, wrapped)
	if err != nil {
		if errors.Is(err, types.ErrIntegrity) {
			return nil, fmt.Errorf("ballot session key does not unwrap: %w", types.ErrValidation)
		}
		return nil, err
	}
	var choice ballot.Choice
	if err := ballot.OpenWithSessionKey(&envelope, sessionKey, &choice); err != nil {
		return nil, fmt.Errorf("undecryptable ballot: %w", types.ErrValidation)
	}
	if choice.CandidateID == "" {
		return nil, fmt.Errorf("ballot carries no candidate: %w", types.ErrValidation)
	}
	return &choice, nil
}

// decodeWrappedKey decodes the base64 wrapped session key of an
// incoming envelope. Undecodable key material from a client is a
// validation failure, not an integrity one.
func decodeWrappedKey(encoded string) ([]byte, error) {
	wrapped, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("malformed wrapped session key encoding: %w", types.ErrValidation)
	}
	return wrapped, nil
}

// verifyRequestSignature checks the optional secp256k1 signature over
// the raw ballot envelope against the voter's public key on file, or the
// client-supplied key when the voter has none yet.
func verifyRequestSignature(voter *types.Voter, req *CastRequest) error {
	if len(req.Signature) == 0 {
		return nil
	}
	pubKey := voter.PublicKey
	if len(pubKey) == 0 {
		pubKey = req.ClientPublicKey
	}
	if len(pubKey) == 0 {
		return fmt.Errorf("signature present but no public key known for voter %s: %w",
			voter.ID, types.ErrValidation)
	}
	sig := req.Signature
	if len(sig) == 65 {
		// Drop the recovery id of an eth-style signature
		sig = sig[:64]
	}
	digest := ethcrypto.Keccak256(req.EncryptedBallot)
	if !ethcrypto.VerifySignature(pubKey, digest, sig) {
		return fmt.Errorf("ballot signature does not verify for voter %s: %w",
			voter.ID, types.ErrValidation)
	}
	return nil
}
