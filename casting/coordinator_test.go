package casting_test

import (
	"crypto/rsa"
	"encoding/json"
	"testing"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/Onyex101/secureballot-sub007/ballot"
	"github.com/Onyex101/secureballot-sub007/casting"
	"github.com/Onyex101/secureballot-sub007/database/testdb"
	"github.com/Onyex101/secureballot-sub007/test/testcommon"
	"github.com/Onyex101/secureballot-sub007/types"
)

// fixture is one fully seeded election: an open election with approved
// candidates, one polling unit, a voter pool and a generated key pair.
type fixture struct {
	api        testcommon.TestAPI
	db         *testdb.Database
	election   *types.Election
	candidates []*types.Candidate
	unit       *types.PollingUnit
	voters     []*types.Voter
	pub        *rsa.PublicKey
}

func newFixture(c *qt.C, numCandidates, numVoters int) *fixture {
	f := &fixture{api: testcommon.TestAPI{}}
	c.Assert(f.api.Start(nil, nil), qt.IsNil)
	f.db = f.api.DB.(*testdb.Database)

	f.unit = testcommon.CreatePollingUnits(1)[0]
	f.db.AddPollingUnit(f.unit)
	f.election = testcommon.CreateOpenElections(1)[0]
	f.db.AddElection(f.election)
	f.candidates = testcommon.CreateCandidates(numCandidates, f.election.ID)
	for _, candidate := range f.candidates {
		f.db.AddCandidate(candidate)
	}
	f.voters = testcommon.CreateVoters(numVoters, f.unit.Code)
	for _, voter := range f.voters {
		f.db.AddVoter(voter)
	}

	_, err := f.api.Keys.GenerateKeys(f.election.ID, false)
	c.Assert(err, qt.IsNil)
	f.pub, err = f.api.Keys.PublicKey(f.election.ID)
	c.Assert(err, qt.IsNil)
	return f
}

func (f *fixture) coordinator() *casting.Coordinator {
	return casting.NewCoordinator(f.api.DB, f.api.Keys)
}

// sealBallot produces the client-side ballot envelope for a candidate,
// encrypted to the election public key.
func (f *fixture) sealBallot(c *qt.C, candidateID string) []byte {
	encrypted, err := ballot.EncryptBallot(&ballot.Choice{CandidateID: candidateID}, f.pub)
	c.Assert(err, qt.IsNil)
	envelope, err := json.Marshal(encrypted)
	c.Assert(err, qt.IsNil)
	return envelope
}

func TestCastVote(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 2, 1)
	coordinator := f.coordinator()

	result, err := coordinator.Cast(&casting.CastRequest{
		VoterID:         f.voters[0].ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: f.sealBallot(c, f.candidates[0].ID),
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(result.VoteID, qt.Not(qt.Equals), "")
	c.Assert(result.ReceiptCode, qt.Not(qt.Equals), "")

	vote, err := f.db.GetVoteByReceipt(result.ReceiptCode)
	c.Assert(err, qt.IsNil)
	c.Assert(vote.ID, qt.Equals, result.VoteID)
	c.Assert(vote.VoterID, qt.Equals, f.voters[0].ID)
	c.Assert(vote.CandidateID, qt.Equals, f.candidates[0].ID)
	c.Assert(vote.PollingUnitID, qt.Equals, f.unit.ID)
	c.Assert(vote.Source, qt.Equals, types.SourceWeb)
	c.Assert(vote.IsCounted, qt.IsFalse)

	// The stored payload is a fresh server-side envelope, not the
	// client's ciphertext echoed back
	c.Assert(vote.EncryptedPayload, qt.Not(qt.HasLen), 0)
	c.Assert(vote.PublicKeyFingerprint, qt.Equals, ballot.Fingerprint(f.pub))

	count, err := f.db.CountVotes(f.election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 1)
}

func TestCastDuplicate(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 2, 1)
	coordinator := f.coordinator()

	_, err := coordinator.Cast(&casting.CastRequest{
		VoterID:         f.voters[0].ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: f.sealBallot(c, f.candidates[0].ID),
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.IsNil)

	// Second cast by the same voter, even for another candidate
	_, err = coordinator.Cast(&casting.CastRequest{
		VoterID:         f.voters[0].ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: f.sealBallot(c, f.candidates[1].ID),
		Source:          types.SourceMobile,
	})
	c.Assert(err, qt.ErrorIs, types.ErrConflict)

	count, err := f.db.CountVotes(f.election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 1)
}

func TestCastVoterValidation(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 1)
	coordinator := f.coordinator()
	envelope := f.sealBallot(c, f.candidates[0].ID)

	_, err := coordinator.Cast(&casting.CastRequest{
		VoterID:         uuid.New().String(),
		ElectionID:      f.election.ID,
		EncryptedBallot: envelope,
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.ErrorIs, types.ErrNotFound)

	inactive := testcommon.CreateVoters(1, f.unit.Code)[0]
	inactive.IsActive = false
	f.db.AddVoter(inactive)
	_, err = coordinator.Cast(&casting.CastRequest{
		VoterID:         inactive.ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: envelope,
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	unassigned := testcommon.CreateVoters(1, "")[0]
	f.db.AddVoter(unassigned)
	_, err = coordinator.Cast(&casting.CastRequest{
		VoterID:         unassigned.ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: envelope,
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)
}

func TestCastElectionWindow(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 2)
	coordinator := f.coordinator()
	envelope := f.sealBallot(c, f.candidates[0].ID)

	closed := testcommon.CreateOpenElections(1)[0]
	closed.StartDate = time.Now().Add(-2 * time.Hour)
	closed.EndDate = time.Now().Add(-time.Hour)
	f.db.AddElection(closed)
	_, err := coordinator.Cast(&casting.CastRequest{
		VoterID:         f.voters[0].ID,
		ElectionID:      closed.ID,
		EncryptedBallot: envelope,
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	inactive := testcommon.CreateOpenElections(1)[0]
	inactive.IsActive = false
	f.db.AddElection(inactive)
	_, err = coordinator.Cast(&casting.CastRequest{
		VoterID:         f.voters[0].ID,
		ElectionID:      inactive.ID,
		EncryptedBallot: envelope,
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	// Active flag and open window, but the lifecycle status moved on
	completed := testcommon.CreateOpenElections(1)[0]
	completed.Status = types.ElectionStatusCompleted
	f.db.AddElection(completed)
	_, err = coordinator.Cast(&casting.CastRequest{
		VoterID:         f.voters[1].ID,
		ElectionID:      completed.ID,
		EncryptedBallot: envelope,
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)
}

func TestCastCandidateValidation(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 3)
	coordinator := f.coordinator()

	// Unknown candidate inside an otherwise valid ballot
	_, err := coordinator.Cast(&casting.CastRequest{
		VoterID:         f.voters[0].ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: f.sealBallot(c, uuid.New().String()),
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.ErrorIs, types.ErrNotFound)

	unapproved := testcommon.CreateCandidates(1, f.election.ID)[0]
	unapproved.ApprovalStatus = "pending"
	f.db.AddCandidate(unapproved)
	_, err = coordinator.Cast(&casting.CastRequest{
		VoterID:         f.voters[1].ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: f.sealBallot(c, unapproved.ID),
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	otherElection := testcommon.CreateOpenElections(1)[0]
	f.db.AddElection(otherElection)
	foreign := testcommon.CreateCandidates(1, otherElection.ID)[0]
	f.db.AddCandidate(foreign)
	_, err = coordinator.Cast(&casting.CastRequest{
		VoterID:         f.voters[2].ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: f.sealBallot(c, foreign.ID),
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	count, err := f.db.CountVotes(f.election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 0)
}

func TestCastMalformedBallot(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 2)
	coordinator := f.coordinator()

	_, err := coordinator.Cast(&casting.CastRequest{
		VoterID:         f.voters[0].ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: []byte("not a ballot"),
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	// A ballot sealed to the wrong election key
	otherFixture := newFixture(c, 1, 0)
	_, err = coordinator.Cast(&casting.CastRequest{
		VoterID:         f.voters[1].ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: otherFixture.sealBallot(c, f.candidates[0].ID),
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)
}

func TestCastUndecodableSessionKey(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 1)

	// A well-formed envelope whose wrapped session key is not base64
	var envelope ballot.EncryptedVote
	c.Assert(json.Unmarshal(f.sealBallot(c, f.candidates[0].ID), &envelope), qt.IsNil)
	envelope.EncryptedSessionKey = "not base64!!!"
	raw, err := json.Marshal(envelope)
	c.Assert(err, qt.IsNil)

	_, err = f.coordinator().Cast(&casting.CastRequest{
		VoterID:         f.voters[0].ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: raw,
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)
}

func TestCastUnknownSource(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 1)

	_, err := f.coordinator().Cast(&casting.CastRequest{
		VoterID:         f.voters[0].ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: f.sealBallot(c, f.candidates[0].ID),
		Source:          types.VoteSource("carrier-pigeon"),
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)
}

func TestCastUnresolvablePollingUnit(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 0)

	// A voter whose polling unit code resolves to nothing is broken
	// electorate data
	stranded := testcommon.CreateVoters(1, "PU-GONE")[0]
	f.db.AddVoter(stranded)
	_, err := f.coordinator().Cast(&casting.CastRequest{
		VoterID:         stranded.ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: f.sealBallot(c, f.candidates[0].ID),
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.ErrorIs, types.ErrConfig)
}

func TestCastSignedBallot(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 2)
	coordinator := f.coordinator()

	priv, err := ethcrypto.GenerateKey()
	c.Assert(err, qt.IsNil)
	signer := testcommon.CreateVoters(1, f.unit.Code)[0]
	signer.PublicKey = ethcrypto.CompressPubkey(&priv.PublicKey)
	f.db.AddVoter(signer)

	envelope := f.sealBallot(c, f.candidates[0].ID)
	signature, err := ethcrypto.Sign(ethcrypto.Keccak256(envelope), priv)
	c.Assert(err, qt.IsNil)

	_, err = coordinator.Cast(&casting.CastRequest{
		VoterID:         signer.ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: envelope,
		Source:          types.SourceWeb,
		Signature:       signature,
	})
	c.Assert(err, qt.IsNil)

	// A signature by someone else's key must be rejected
	otherPriv, err := ethcrypto.GenerateKey()
	c.Assert(err, qt.IsNil)
	envelope = f.sealBallot(c, f.candidates[0].ID)
	forged, err := ethcrypto.Sign(ethcrypto.Keccak256(envelope), otherPriv)
	c.Assert(err, qt.IsNil)
	_, err = coordinator.Cast(&casting.CastRequest{
		VoterID:         f.voters[0].ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: envelope,
		Source:          types.SourceWeb,
		ClientPublicKey: ethcrypto.CompressPubkey(&priv.PublicKey),
		Signature:       forged,
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)
}

func TestCastRecordsClientPublicKey(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 1)

	clientKey := []byte{0x02, 0xaa, 0xbb}
	_, err := f.coordinator().Cast(&casting.CastRequest{
		VoterID:         f.voters[0].ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: f.sealBallot(c, f.candidates[0].ID),
		Source:          types.SourceMobile,
		ClientPublicKey: clientKey,
	})
	c.Assert(err, qt.IsNil)

	voter, err := f.db.GetVoter(f.voters[0].ID)
	c.Assert(err, qt.IsNil)
	c.Assert(voter.PublicKey, qt.DeepEquals, clientKey)
}
