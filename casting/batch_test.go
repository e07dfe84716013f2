package casting_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/Onyex101/secureballot-sub007/types"
)

func TestProcessBatch(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 2, 10)
	coordinator := f.coordinator()

	envelopes := make([]types.OfflineEnvelope, 10)
	for i, voter := range f.voters {
		candidateID := f.candidates[i%2].ID
		if i == 3 || i == 7 {
			// Ballots naming an unknown candidate
			candidateID = uuid.New().String()
		}
		envelopes[i] = types.OfflineEnvelope{
			VoterID:         voter.ID,
			EncryptedBallot: f.sealBallot(c, candidateID),
		}
	}

	result := coordinator.ProcessBatch(envelopes, f.election.ID)
	c.Assert(result.Successful, qt.Equals, 8)
	c.Assert(result.Failed, qt.Equals, 2)
	c.Assert(result.Errors, qt.HasLen, 2)
	c.Assert(result.Errors[0].VoterID, qt.Equals, f.voters[3].ID)
	c.Assert(result.Errors[1].VoterID, qt.Equals, f.voters[7].ID)

	count, err := f.db.CountVotes(f.election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 8)

	// Offline is the default source for replayed envelopes
	votes, err := f.db.ListVotesByElection(f.election.ID)
	c.Assert(err, qt.IsNil)
	for _, vote := range votes {
		c.Assert(vote.Source, qt.Equals, types.SourceOffline)
	}
}

func TestProcessBatchDuplicates(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 1)
	coordinator := f.coordinator()

	envelopes := []types.OfflineEnvelope{
		{VoterID: f.voters[0].ID, EncryptedBallot: f.sealBallot(c, f.candidates[0].ID), Source: types.SourceUSSD},
		{VoterID: f.voters[0].ID, EncryptedBallot: f.sealBallot(c, f.candidates[0].ID)},
	}
	result := coordinator.ProcessBatch(envelopes, f.election.ID)
	c.Assert(result.Successful, qt.Equals, 1)
	c.Assert(result.Failed, qt.Equals, 1)

	votes, err := f.db.ListVotesByElection(f.election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(votes, qt.HasLen, 1)
	c.Assert(votes[0].Source, qt.Equals, types.SourceUSSD)
}

func TestProcessBatchEmpty(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 0)

	result := f.coordinator().ProcessBatch(nil, f.election.ID)
	c.Assert(result.Successful, qt.Equals, 0)
	c.Assert(result.Failed, qt.Equals, 0)
	c.Assert(result.Errors, qt.HasLen, 0)
}
