package database

import (
	migrate "github.com/rubenv/sql-migrate"

	"github.com/Onyex101/secureballot-sub007/types"
)

type Database interface {
	// Electorate (read-only inputs to the casting engine)
	GetVoter(voterID string) (*types.Voter, error)
	GetElection(electionID string) (*types.Election, error)
	GetCandidate(candidateID string) (*types.Candidate, error)
	GetPollingUnitByCode(code string) (*types.PollingUnit, error)
	GetPollingUnit(pollingUnitID string) (*types.PollingUnit, error)
	// Votes
	// CreateVote persists the vote and, when voterPubKey is non-empty
	// and the voter has no key on file, records it in the same
	// transaction. A duplicate (voter, election) pair yields
	// types.ErrConflict with no partial row.
	CreateVote(vote *types.Vote, voterPubKey []byte) error
	GetVoteByReceipt(receiptCode string) (*types.Vote, error)
	HasVoted(voterID, electionID string) (bool, error)
	ListVotesByElection(electionID string) ([]types.Vote, error)
	MarkVotesCounted(voteIDs []string) (int, error)
	CountVotes(electionID string) (int, error)
	// Election keys
	CreateElectionKey(key *types.ElectionKey, overwrite bool) error
	GetElectionKey(electionID string) (*types.ElectionKey, error)
	// Manage DB
	Ping() error
	Close() error
	// Migrations
	Migrate(dir migrate.MigrationDirection) (int, error)
	MigrateStatus() (int, int, string, error)
	MigrationUpSync() (int, error)
}
