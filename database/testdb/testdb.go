// Package testdb is an in-memory database.Database used by the engine
// tests. It enforces the same uniqueness semantics as the postgres
// implementation so that duplicate-vote races and receipt lookups can be
// tested without a live database.
package testdb

import (
	"fmt"
	"strings"
	"sync"
	"time"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/Onyex101/secureballot-sub007/types"
)

type Database struct {
	mtx          sync.Mutex
	voters       map[string]*types.Voter
	elections    map[string]*types.Election
	candidates   map[string]*types.Candidate
	pollingUnits map[string]*types.PollingUnit // keyed by code
	keys         map[string]*types.ElectionKey
	votes        map[string]*types.Vote
	voterVoted   map[string]bool // voterID/electionID
	receipts     map[string]string
}

func New() (*Database, error) {
	return &Database{
		voters:       make(map[string]*types.Voter),
		elections:    make(map[string]*types.Election),
		candidates:   make(map[string]*types.Candidate),
		pollingUnits: make(map[string]*types.PollingUnit),
		keys:         make(map[string]*types.ElectionKey),
		votes:        make(map[string]*types.Vote),
		voterVoted:   make(map[string]bool),
		receipts:     make(map[string]string),
	}, nil
}

// Seed helpers; only tests use these, the engine treats the electorate
// as read-only.

func (d *Database) AddVoter(voter *types.Voter) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.voters[voter.ID] = voter
}

func (d *Database) AddElection(election *types.Election) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.elections[election.ID] = election
}

func (d *Database) AddCandidate(candidate *types.Candidate) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.candidates[candidate.ID] = candidate
}

func (d *Database) AddPollingUnit(unit *types.PollingUnit) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.pollingUnits[unit.Code] = unit
}

// CorruptVote overwrites stored ciphertext to simulate at-rest tampering.
func (d *Database) CorruptVote(voteID string) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if vote, ok := d.votes[voteID]; ok {
		vote.EncryptedPayload = []byte("corrupted")
	}
}

func (d *Database) GetVoter(voterID string) (*types.Voter, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	voter, ok := d.voters[voterID]
	if !ok {
		return nil, fmt.Errorf("voter %s: %w", voterID, types.ErrNotFound)
	}
	cp := *voter
	return &cp, nil
}

func (d *Database) GetElection(electionID string) (*types.Election, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	election, ok := d.elections[electionID]
	if !ok {
		return nil, fmt.Errorf("election %s: %w", electionID, types.ErrNotFound)
	}
	cp := *election
	return &cp, nil
}

func (d *Database) GetCandidate(candidateID string) (*types.Candidate, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	candidate, ok := d.candidates[candidateID]
	if !ok {
		return nil, fmt.Errorf("candidate %s: %w", candidateID, types.ErrNotFound)
	}
	cp := *candidate
	return &cp, nil
}

func (d *Database) GetPollingUnit(pollingUnitID string) (*types.PollingUnit, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	for _, unit := range d.pollingUnits {
		if unit.ID == pollingUnitID {
			cp := *unit
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("polling unit %s: %w", pollingUnitID, types.ErrNotFound)
}

func (d *Database) GetPollingUnitByCode(code string) (*types.PollingUnit, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	unit, ok := d.pollingUnits[code]
	if !ok {
		return nil, fmt.Errorf("polling unit with code %q: %w", code, types.ErrNotFound)
	}
	cp := *unit
	return &cp, nil
}

func (d *Database) CreateVote(vote *types.Vote, voterPubKey []byte) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	pair := vote.VoterID + "/" + vote.ElectionID
	if d.voterVoted[pair] {
		return fmt.Errorf("vote for voter %s in election %s: %w",
			vote.VoterID, vote.ElectionID, types.ErrConflict)
	}
	if _, ok := d.receipts[strings.ToLower(vote.ReceiptCode)]; ok {
		return fmt.Errorf("receipt code %q reused: %w", vote.ReceiptCode, types.ErrConflict)
	}
	now := time.Now()
	cp := *vote
	cp.CreatedAt = now
	cp.UpdatedAt = now
	if cp.Timestamp.IsZero() {
		cp.Timestamp = now
	}
	d.votes[cp.ID] = &cp
	d.voterVoted[pair] = true
	d.receipts[strings.ToLower(cp.ReceiptCode)] = cp.ID
	if len(voterPubKey) > 0 {
		if voter, ok := d.voters[vote.VoterID]; ok && len(voter.PublicKey) == 0 {
			voter.PublicKey = voterPubKey
			voter.UpdatedAt = now
		}
	}
	*vote = cp
	return nil
}

func (d *Database) GetVoteByReceipt(receiptCode string) (*types.Vote, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	id, ok := d.receipts[strings.ToLower(receiptCode)]
	if !ok {
		return nil, fmt.Errorf("vote with receipt %q: %w", receiptCode, types.ErrNotFound)
	}
	cp := *d.votes[id]
	return &cp, nil
}

func (d *Database) HasVoted(voterID, electionID string) (bool, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.voterVoted[voterID+"/"+electionID], nil
}

func (d *Database) ListVotesByElection(electionID string) ([]types.Vote, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	var votes []types.Vote
	for _, vote := range d.votes {
		if vote.ElectionID == electionID {
			votes = append(votes, *vote)
		}
	}
	return votes, nil
}

func (d *Database) MarkVotesCounted(voteIDs []string) (int, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	updated := 0
	for _, id := range voteIDs {
		if vote, ok := d.votes[id]; ok && !vote.IsCounted {
			vote.IsCounted = true
			vote.UpdatedAt = time.Now()
			updated++
		}
	}
	return updated, nil
}

func (d *Database) CountVotes(electionID string) (int, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	count := 0
	for _, vote := range d.votes {
		if vote.ElectionID == electionID {
			count++
		}
	}
	return count, nil
}

func (d *Database) CreateElectionKey(key *types.ElectionKey, overwrite bool) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if _, ok := d.keys[key.ElectionID]; ok && !overwrite {
		return fmt.Errorf("key pair for election %s already exists: %w",
			key.ElectionID, types.ErrConfig)
	}
	cp := *key
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	d.keys[key.ElectionID] = &cp
	return nil
}

func (d *Database) GetElectionKey(electionID string) (*types.ElectionKey, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	key, ok := d.keys[electionID]
	if !ok {
		return nil, fmt.Errorf("key pair for election %s: %w", electionID, types.ErrNotFound)
	}
	cp := *key
	return &cp, nil
}

func (d *Database) Ping() error {
	return nil
}

func (d *Database) Close() error {
	return nil
}

func (d *Database) Migrate(dir migrate.MigrationDirection) (int, error) {
	return 0, nil
}

func (d *Database) MigrateStatus() (int, int, string, error) {
	return 0, 0, "", nil
}

func (d *Database) MigrationUpSync() (int, error) {
	return 0, nil
}
