package casting_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/Onyex101/secureballot-sub007/casting"
	"github.com/Onyex101/secureballot-sub007/test/testcommon"
	"github.com/Onyex101/secureballot-sub007/types"
)

func castAll(c *qt.C, f *fixture, picks map[int]int) map[string]string {
	coordinator := f.coordinator()
	receipts := make(map[string]string)
	for voterIdx, candidateIdx := range picks {
		result, err := coordinator.Cast(&casting.CastRequest{
			VoterID:         f.voters[voterIdx].ID,
			ElectionID:      f.election.ID,
			EncryptedBallot: f.sealBallot(c, f.candidates[candidateIdx].ID),
			Source:          types.SourceWeb,
		})
		c.Assert(err, qt.IsNil)
		receipts[f.voters[voterIdx].ID] = result.ReceiptCode
	}
	return receipts
}

func TestTally(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 3, 7)

	// 4 votes for candidate 0, 2 for candidate 1, 1 for candidate 2
	castAll(c, f, map[int]int{0: 0, 1: 0, 2: 0, 3: 0, 4: 1, 5: 1, 6: 2})

	decryptor := casting.NewTallyDecryptor(f.api.DB, f.api.Keys)
	result, err := decryptor.Tally(f.election.ID, f.api.KeysConfig.TallyCapability)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Total, qt.Equals, 7)
	c.Assert(result.Counted, qt.Equals, 7)
	c.Assert(result.Excluded, qt.Equals, 0)
	c.Assert(result.Results, qt.HasLen, 3)

	counts := make(map[string]int)
	total := 0
	for _, line := range result.Results {
		counts[line.CandidateID] = line.Votes
		total += line.Votes
		c.Assert(line.CandidateName, qt.Not(qt.Equals), "")
	}
	c.Assert(total, qt.Equals, 7)
	c.Assert(counts[f.candidates[0].ID], qt.Equals, 4)
	c.Assert(counts[f.candidates[1].ID], qt.Equals, 2)
	c.Assert(counts[f.candidates[2].ID], qt.Equals, 1)

	// Every counted vote is flagged afterwards
	votes, err := f.db.ListVotesByElection(f.election.ID)
	c.Assert(err, qt.IsNil)
	for _, vote := range votes {
		c.Assert(vote.IsCounted, qt.IsTrue)
	}
}

func TestTallyExcludesTampered(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 2, 5)

	receipts := castAll(c, f, map[int]int{0: 0, 1: 0, 2: 0, 3: 1, 4: 1})

	// Corrupt one stored vote at rest
	tampered, err := f.db.GetVoteByReceipt(receipts[f.voters[0].ID])
	c.Assert(err, qt.IsNil)
	f.db.CorruptVote(tampered.ID)

	decryptor := casting.NewTallyDecryptor(f.api.DB, f.api.Keys)
	result, err := decryptor.Tally(f.election.ID, f.api.KeysConfig.TallyCapability)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Total, qt.Equals, 5)
	c.Assert(result.Counted, qt.Equals, 4)
	c.Assert(result.Excluded, qt.Equals, 1)
	c.Assert(result.Exclusions, qt.HasLen, 1)
	c.Assert(result.Exclusions[0].VoteID, qt.Equals, tampered.ID)

	counted := 0
	for _, line := range result.Results {
		counted += line.Votes
	}
	c.Assert(counted, qt.Equals, 4)

	// The tampered vote stays uncounted
	vote, err := f.db.GetVoteByReceipt(tampered.ReceiptCode)
	c.Assert(err, qt.IsNil)
	c.Assert(vote.IsCounted, qt.IsFalse)
}

func TestTallyRequiresCapability(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 1)
	castAll(c, f, map[int]int{0: 0})

	decryptor := casting.NewTallyDecryptor(f.api.DB, f.api.Keys)
	_, err := decryptor.Tally(f.election.ID, "wrong capability")
	c.Assert(err, qt.ErrorIs, types.ErrConfig)

	// Nothing was counted without the capability
	votes, err := f.db.ListVotesByElection(f.election.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(votes[0].IsCounted, qt.IsFalse)
}

func TestTallyEmptyElection(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 0)

	decryptor := casting.NewTallyDecryptor(f.api.DB, f.api.Keys)
	result, err := decryptor.Tally(f.election.ID, f.api.KeysConfig.TallyCapability)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Total, qt.Equals, 0)
	c.Assert(result.Counted, qt.Equals, 0)
	c.Assert(result.Results, qt.HasLen, 0)
}

func TestTallyMissingKeys(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 0)

	// An election that never had keys generated
	bare := testcommon.CreateOpenElections(1)[0]
	f.db.AddElection(bare)
	decryptor := casting.NewTallyDecryptor(f.api.DB, f.api.Keys)
	_, err := decryptor.Tally(bare.ID, f.api.KeysConfig.TallyCapability)
	c.Assert(err, qt.ErrorIs, types.ErrNotFound)
}
