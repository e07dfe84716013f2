package types

import (
	"fmt"
	"time"
)

// APIRequest contains all of the possible request fields.
// Fields must be in alphabetical order
// Those fields with valid zero-values (such as bool) must be pointers
type APIRequest struct {
	ClientPublicKey string            `json:"clientPublicKey,omitempty"` // hex
	EncryptedBallot string            `json:"encryptedBallot,omitempty"` // hex-encoded ballot envelope
	Envelopes       []OfflineEnvelope `json:"envelopes,omitempty"`
	Overwrite       *bool             `json:"overwrite,omitempty"`
	Signature       string            `json:"signature,omitempty"` // hex
	Source          string            `json:"source,omitempty"`
	TallyCapability string            `json:"tallyCapability,omitempty"`
	VoterID         string            `json:"voterId,omitempty"`
}

// APIResponse contains all of the possible response fields.
// Fields must be in alphabetical order
// Those fields with valid zero-values (such as bool) must be pointers
type APIResponse struct {
	CandidateName   string            `json:"candidateName,omitempty"`
	Counted         int               `json:"counted,omitempty"`
	ElectionName    string            `json:"electionName,omitempty"`
	Errors          []BatchError      `json:"errors,omitempty"`
	Excluded        int               `json:"excluded,omitempty"`
	Failed          int               `json:"failed,omitempty"`
	Fingerprint     string            `json:"fingerprint,omitempty"`
	Found           *bool             `json:"found,omitempty"`
	Message         string            `json:"message,omitempty"`
	Ok              bool              `json:"ok"`
	PollingUnitName string            `json:"pollingUnitName,omitempty"`
	PublicKey       []byte            `json:"publicKey,omitempty"`
	ReceiptCode     string            `json:"receiptCode,omitempty"`
	Results         []CandidateResult `json:"results,omitempty"`
	Source          string            `json:"source,omitempty"`
	Successful      int               `json:"successful,omitempty"`
	Timestamp       *time.Time        `json:"timestamp,omitempty"`
	VoteCount       int               `json:"voteCount,omitempty"`
	VoteID          string            `json:"voteId,omitempty"`
}

// SetError sets the APIResponse's Ok field to false, and Message to a string
// representation of v. Usually, v's type will be error or string.
func (r *APIResponse) SetError(v interface{}) {
	r.Ok = false
	r.Message = fmt.Sprintf("%s", v)
}

// BatchError records the failure of a single envelope during offline
// batch processing, keyed by the voter that submitted it.
type BatchError struct {
	VoterID string `json:"voterId"`
	Message string `json:"message"`
}

// CandidateResult is one aggregated tally line.
type CandidateResult struct {
	CandidateID   string `json:"candidateId"`
	CandidateName string `json:"candidateName,omitempty"`
	Votes         int    `json:"votes"`
}
