package casting

import (
	"go.vocdoni.io/dvote/log"

	"github.com/Onyex101/secureballot-sub007/types"
)

// BatchResult summarizes an offline batch replay.
type BatchResult struct {
	Successful int                `json:"successful"`
	Failed     int                `json:"failed"`
	Errors     []types.BatchError `json:"errors"`
}

// ProcessBatch replays externally collected envelopes through the
// coordinator, one at a time. A failing envelope is recorded with its
// voter id and the processing continues: losing a whole reconciliation
// batch to one bad entry is not acceptable.
func (c *Coordinator) ProcessBatch(envelopes []types.OfflineEnvelope, electionID string) *BatchResult {
	result := &BatchResult{Errors: []types.BatchError{}}
	for _, envelope := range envelopes {
		source := envelope.Source
		if source == "" {
			source = types.SourceOffline
		}
		_, err := c.Cast(&CastRequest{
			VoterID:         envelope.VoterID,
			ElectionID:      electionID,
			EncryptedBallot: envelope.EncryptedBallot,
			Source:          source,
			ClientPublicKey: envelope.ClientPublicKey,
		})
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, types.BatchError{
				VoterID: envelope.VoterID,
				Message: err.Error(),
			})
			continue
		}
		result.Successful++
	}
	log.Infof("offline batch for election %s: %d successful, %d failed",
		electionID, result.Successful, result.Failed)
	return result
}
