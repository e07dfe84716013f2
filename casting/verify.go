package casting

import (
	"errors"
	"time"

	"github.com/Onyex101/secureballot-sub007/database"
	"github.com/Onyex101/secureballot-sub007/types"
)

// Verifier resolves receipt codes into non-sensitive vote metadata.
type Verifier struct {
	db database.Database
}

func NewVerifier(db database.Database) *Verifier {
	return &Verifier{db: db}
}

// ReceiptInfo is what a receipt code discloses. It never includes
// ciphertext. Disclosing the candidate name follows the reference
// behavior and is a policy choice, not a correctness requirement.
type ReceiptInfo struct {
	Found           bool             `json:"found"`
	Timestamp       *time.Time       `json:"timestamp,omitempty"`
	ElectionName    string           `json:"electionName,omitempty"`
	CandidateName   string           `json:"candidateName,omitempty"`
	PollingUnitName string           `json:"pollingUnitName,omitempty"`
	Source          types.VoteSource `json:"source,omitempty"`
}

// VerifyByReceipt looks a vote up by its receipt code,
// case-insensitively. An unknown code is not an error: it reports
// Found=false so the caller cannot distinguish probing failures.
func (v *Verifier) VerifyByReceipt(receiptCode string) (*ReceiptInfo, error) {
	vote, err := v.db.GetVoteByReceipt(receiptCode)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return &ReceiptInfo{Found: false}, nil
		}
		return nil, err
	}
	info := &ReceiptInfo{
		Found:     true,
		Timestamp: &vote.Timestamp,
		Source:    vote.Source,
	}
	// Name lookups are best-effort; a missing collaborator record must
	// not hide the vote's existence from the voter
	if election, err := v.db.GetElection(vote.ElectionID); err == nil {
		info.ElectionName = election.Name
	}
	if candidate, err := v.db.GetCandidate(vote.CandidateID); err == nil {
		info.CandidateName = candidate.Name
	}
	if unit, err := v.db.GetPollingUnit(vote.PollingUnitID); err == nil {
		info.PollingUnitName = unit.Name
	}
	return info, nil
}
