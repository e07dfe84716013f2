package casting

import (
	"fmt"
	"sort"

	"go.vocdoni.io/dvote/log"

	"github.com/Onyex101/secureballot-sub007/ballot"
	"github.com/Onyex101/secureballot-sub007/database"
	"github.com/Onyex101/secureballot-sub007/keymanager"
	"github.com/Onyex101/secureballot-sub007/types"
)

// TallyDecryptor batch-decrypts all votes of an election and aggregates
// per-candidate counts. It is the only consumer of election private
// keys.
type TallyDecryptor struct {
	db   database.Database
	keys *keymanager.KeyManager
}

func NewTallyDecryptor(db database.Database, keys *keymanager.KeyManager) *TallyDecryptor {
	return &TallyDecryptor{db: db, keys: keys}
}

// TallyExclusion records one vote that could not be counted, so the
// difference between cast and counted votes stays auditable.
type TallyExclusion struct {
	VoteID  string `json:"voteId"`
	Message string `json:"message"`
}

// TallyResult is the aggregated outcome of one tally run. Counts are
// summed per candidate independently of vote order.
type TallyResult struct {
	ElectionID string                  `json:"electionId"`
	Results    []types.CandidateResult `json:"results"`
	Total      int                     `json:"total"`
	Counted    int                     `json:"counted"`
	Excluded   int                     `json:"excluded"`
	Exclusions []TallyExclusion        `json:"exclusions,omitempty"`
}

// Tally decrypts every vote of the election with the escrowed private
// key, released only against the tally capability. A vote that fails to
// decrypt or whose payload contradicts its row is excluded and reported,
// never silently dropped; missing key material halts the whole run.
func (t *TallyDecryptor) Tally(electionID, capability string) (*TallyResult, error) {
	priv, err := t.keys.PrivateKey(electionID, capability)
	if err != nil {
		return nil, fmt.Errorf("cannot tally election %s without key material: %w", electionID, err)
	}
	votes, err := t.db.ListVotesByElection(electionID)
	if err != nil {
		return nil, err
	}

	result := &TallyResult{ElectionID: electionID, Total: len(votes)}
	counts := make(map[string]int)
	var countedIDs []string
	for _, vote := range votes {
		envelope := &ballot.EncryptedVote{
			Ciphertext:          vote.EncryptedPayload,
			EncryptedSessionKey: vote.EncryptedSessionKey,
			IV:                  vote.IV,
			IntegrityHash:       vote.IntegrityHash,
			Fingerprint:         vote.PublicKeyFingerprint,
		}
		payload, err := ballot.Decrypt(envelope, priv)
		if err != nil {
			result.Exclusions = append(result.Exclusions, TallyExclusion{
				VoteID:  vote.ID,
				Message: err.Error(),
			})
			continue
		}
		if payload.CandidateID != vote.CandidateID || payload.ElectionID != vote.ElectionID {
			result.Exclusions = append(result.Exclusions, TallyExclusion{
				VoteID:  vote.ID,
				Message: fmt.Sprintf("decrypted payload contradicts vote row: %v", types.ErrIntegrity),
			})
			continue
		}
		counts[payload.CandidateID]++
		countedIDs = append(countedIDs, vote.ID)
	}
	result.Counted = len(countedIDs)
	result.Excluded = len(result.Exclusions)

	if _, err := t.db.MarkVotesCounted(countedIDs); err != nil {
		return nil, fmt.Errorf("could not mark votes counted: %w", err)
	}

	// Deterministic ordering regardless of iteration order
	candidateIDs := make([]string, 0, len(counts))
	for id := range counts {
		candidateIDs = append(candidateIDs, id)
	}
	sort.Strings(candidateIDs)
	for _, id := range candidateIDs {
		line := types.CandidateResult{CandidateID: id, Votes: counts[id]}
		if candidate, err := t.db.GetCandidate(id); err == nil {
			line.CandidateName = candidate.Name
		}
		result.Results = append(result.Results, line)
	}

	if result.Excluded > 0 {
		log.Warnf("tally for election %s excluded %d of %d votes",
			electionID, result.Excluded, result.Total)
	}
	log.Infof("tally for election %s complete: %d votes counted", electionID, result.Counted)
	return result, nil
}
