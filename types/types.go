package types

import (
	"time"
)

type CreatedUpdated struct {
	CreatedAt time.Time `json:"createdAt,omitempty" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" db:"updated_at"`
}

// VoteSource identifies the channel a ballot was collected through.
// The source only affects vote metadata, never eligibility or encryption.
type VoteSource string

const (
	SourceWeb     VoteSource = "web"
	SourceMobile  VoteSource = "mobile"
	SourceUSSD    VoteSource = "ussd"
	SourceOffline VoteSource = "offline"
)

func (s VoteSource) Valid() bool {
	switch s {
	case SourceWeb, SourceMobile, SourceUSSD, SourceOffline:
		return true
	}
	return false
}

// Voter is a read-only collaborator record. The casting engine never
// writes voters, except the opportunistic public key recording done
// inside the vote insert transaction.
type Voter struct {
	CreatedUpdated
	ID              string `json:"id" db:"id"`
	IsActive        bool   `json:"isActive" db:"is_active"`
	PollingUnitCode string `json:"pollingUnitCode" db:"polling_unit_code"`
	PublicKey       []byte `json:"publicKey,omitempty" db:"public_key"` // secp256k1 compressed, optional
}

// Election lifecycle statuses. Only ElectionStatusActive accepts votes;
// the other states exist for the surrounding administration
// application, which owns the transitions.
const (
	ElectionStatusDraft     = "draft"
	ElectionStatusScheduled = "scheduled"
	ElectionStatusActive    = "active"
	ElectionStatusCompleted = "completed"
	ElectionStatusCancelled = "cancelled"
)

type Election struct {
	CreatedUpdated
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	Status    string    `json:"status" db:"status"`
	StartDate time.Time `json:"startDate" db:"start_date"`
	EndDate   time.Time `json:"endDate" db:"end_date"`
}

type Candidate struct {
	CreatedUpdated
	ID             string `json:"id" db:"id"`
	ElectionID     string `json:"electionId" db:"election_id"`
	Name           string `json:"name" db:"name"`
	IsActive       bool   `json:"isActive" db:"is_active"`
	ApprovalStatus string `json:"approvalStatus" db:"approval_status"`
}

type PollingUnit struct {
	CreatedUpdated
	ID   string `json:"id" db:"id"`
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}

// Vote is created exactly once per eligible voter per election. Rows are
// never updated after insert, except flipping IsCounted during tallying,
// and never deleted.
type Vote struct {
	CreatedUpdated
	ID                   string     `json:"id" db:"id"`
	VoterID              string     `json:"voterId" db:"voter_id"`
	ElectionID           string     `json:"electionId" db:"election_id"`
	CandidateID          string     `json:"candidateId" db:"candidate_id"`
	PollingUnitID        string     `json:"pollingUnitId" db:"polling_unit_id"`
	EncryptedPayload     []byte     `json:"encryptedPayload" db:"encrypted_payload"`
	EncryptedSessionKey  string     `json:"encryptedSessionKey" db:"encrypted_session_key"`
	IV                   string     `json:"iv" db:"iv"`
	IntegrityHash        string     `json:"integrityHash" db:"integrity_hash"`
	PublicKeyFingerprint string     `json:"publicKeyFingerprint" db:"public_key_fingerprint"`
	Source               VoteSource `json:"source" db:"source"`
	ReceiptCode          string     `json:"receiptCode" db:"receipt_code"`
	IsCounted            bool       `json:"isCounted" db:"is_counted"`
	Timestamp            time.Time  `json:"timestamp" db:"vote_timestamp"`
}

// ElectionKey holds the key material of one election. The private key is
// never stored in the clear: PrivateKeyCipher is the secretbox-encrypted
// PKCS1 encoding, escrowed with the configured escrow key.
type ElectionKey struct {
	CreatedUpdated
	ElectionID       string `json:"electionId" db:"election_id"`
	PublicKey        []byte `json:"publicKey" db:"public_key"` // PKIX DER
	PrivateKeyCipher []byte `json:"-" db:"private_key_cipher"`
	Fingerprint      string `json:"fingerprint" db:"fingerprint"`
}

// OfflineEnvelope is one externally collected ballot waiting to be
// replayed through the casting coordinator. Transient, never persisted.
type OfflineEnvelope struct {
	VoterID         string     `json:"voterId"`
	EncryptedBallot []byte     `json:"encryptedBallot"`
	Source          VoteSource `json:"source,omitempty"`
	ClientPublicKey []byte     `json:"clientPublicKey,omitempty"`
}
