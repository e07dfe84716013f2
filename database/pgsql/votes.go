package pgsql

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/stdlib"
	"github.com/lib/pq"

	"github.com/Onyex101/secureballot-sub007/types"
)

// CreateVote inserts the vote row and, when voterPubKey is non-empty and
// the voter has no public key on file, records it inside the same
// transaction: either both writes commit or neither does.
//
// The votes_voter_election_unique constraint is the authoritative guard
// against a race where two concurrent casts pass the eligibility
// pre-check simultaneously; on violation the transaction is rolled back
// and types.ErrConflict is returned with no partial row left behind.
func (d *Database) CreateVote(vote *types.Vote, voterPubKey []byte) error {
	now := time.Now()
	vote.CreatedAt = now
	vote.UpdatedAt = now
	if vote.Timestamp.IsZero() {
		vote.Timestamp = now
	}
	insert := `INSERT INTO votes
			( id, voter_id, election_id, candidate_id, polling_unit_id, encrypted_payload,
				encrypted_session_key, iv, integrity_hash, public_key_fingerprint, source,
				receipt_code, is_counted, vote_timestamp, created_at, updated_at)
			VALUES ( :id, :voter_id, :election_id, :candidate_id, :polling_unit_id, :encrypted_payload,
				:encrypted_session_key, :iv, :integrity_hash, :public_key_fingerprint, :source,
				:receipt_code, :is_counted, :vote_timestamp, :created_at, :updated_at)`
	tx, err := d.db.Beginx()
	if err != nil {
		return fmt.Errorf("error creating vote: %w", err)
	}
	if _, err = tx.NamedExec(insert, vote); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("something is very wrong: could not rollback vote insert: %v after: %w", rollbackErr, err)
		}
		if isUniqueViolation(err, "votes_voter_election_unique") {
			return fmt.Errorf("vote for voter %s in election %s: %w",
				vote.VoterID, vote.ElectionID, types.ErrConflict)
		}
		return fmt.Errorf("error creating vote: %w", err)
	}
	if len(voterPubKey) > 0 {
		// Opportunistic key recording, only when the voter has none yet
		update := `UPDATE voters SET public_key=$1, updated_at=$2
				WHERE id=$3 AND octet_length(public_key)=0`
		if _, err = tx.Exec(update, voterPubKey, now, vote.VoterID); err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				return fmt.Errorf("something is very wrong: could not rollback voter key update: %v after: %w", rollbackErr, err)
			}
			return fmt.Errorf("error recording voter public key: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error creating vote: %w", err)
	}
	return nil
}

// GetVoteByReceipt looks a vote up by receipt code, case-insensitively.
func (d *Database) GetVoteByReceipt(receiptCode string) (*types.Vote, error) {
	var vote types.Vote
	selectVote := `SELECT id, voter_id, election_id, candidate_id, polling_unit_id,
				encrypted_payload, encrypted_session_key, iv, integrity_hash,
				public_key_fingerprint, source, receipt_code, is_counted,
				vote_timestamp, created_at, updated_at
			FROM votes WHERE LOWER(receipt_code)=LOWER($1)`
	row := d.db.QueryRowx(selectVote, receiptCode)
	if err := row.StructScan(&vote); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("vote with receipt %q: %w", receiptCode, types.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching vote by receipt: %w", err)
	}
	return &vote, nil
}

func (d *Database) HasVoted(voterID, electionID string) (bool, error) {
	var count int
	selectCount := `SELECT COUNT(*) FROM votes WHERE voter_id=$1 AND election_id=$2`
	if err := d.db.Get(&count, selectCount, voterID, electionID); err != nil {
		return false, fmt.Errorf("error checking existing vote: %w", err)
	}
	return count > 0, nil
}

func (d *Database) ListVotesByElection(electionID string) ([]types.Vote, error) {
	var votes []types.Vote
	selectVotes := `SELECT id, voter_id, election_id, candidate_id, polling_unit_id,
				encrypted_payload, encrypted_session_key, iv, integrity_hash,
				public_key_fingerprint, source, receipt_code, is_counted,
				vote_timestamp, created_at, updated_at
			FROM votes WHERE election_id=$1 ORDER BY vote_timestamp ASC`
	if err := d.db.Select(&votes, selectVotes, electionID); err != nil {
		return nil, fmt.Errorf("error listing votes for election %s: %w", electionID, err)
	}
	return votes, nil
}

// MarkVotesCounted flips is_counted for the given votes and returns the
// number of updated rows.
func (d *Database) MarkVotesCounted(voteIDs []string) (int, error) {
	if len(voteIDs) == 0 {
		return 0, nil
	}
	update := `UPDATE votes SET is_counted=true, updated_at=CURRENT_TIMESTAMP
			WHERE id = ANY($1::uuid[])`
	result, err := d.db.Exec(update, pq.Array(voteIDs))
	if err != nil {
		return 0, fmt.Errorf("error marking votes counted: %w", err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not verify updated rows: %w", err)
	}
	return int(updated), nil
}

func (d *Database) CountVotes(electionID string) (int, error) {
	var count int
	selectCount := `SELECT COUNT(*) FROM votes WHERE election_id=$1`
	if err := d.db.Get(&count, selectCount, electionID); err != nil {
		return 0, fmt.Errorf("error counting votes: %w", err)
	}
	return count, nil
}
