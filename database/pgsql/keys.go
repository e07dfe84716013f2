package pgsql

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/stdlib"

	"github.com/Onyex101/secureballot-sub007/types"
)

// CreateElectionKey stores the key pair of an election. Without
// overwrite, an existing pair makes the call fail so that key material
// can never be silently replaced once votes may reference it.
func (d *Database) CreateElectionKey(key *types.ElectionKey, overwrite bool) error {
	now := time.Now()
	key.CreatedAt = now
	key.UpdatedAt = now
	insert := `INSERT INTO election_keys
			( election_id, public_key, private_key_cipher, fingerprint, created_at, updated_at)
			VALUES ( :election_id, :public_key, :private_key_cipher, :fingerprint, :created_at, :updated_at)`
	if overwrite {
		insert += ` ON CONFLICT (election_id) DO UPDATE SET
				public_key=EXCLUDED.public_key,
				private_key_cipher=EXCLUDED.private_key_cipher,
				fingerprint=EXCLUDED.fingerprint,
				updated_at=EXCLUDED.updated_at`
	}
	if _, err := d.db.NamedExec(insert, key); err != nil {
		if isUniqueViolation(err, "election_keys_pkey") {
			return fmt.Errorf("key pair for election %s already exists: %w",
				key.ElectionID, types.ErrConfig)
		}
		return fmt.Errorf("error creating election key: %w", err)
	}
	return nil
}

func (d *Database) GetElectionKey(electionID string) (*types.ElectionKey, error) {
	var key types.ElectionKey
	selectKey := `SELECT election_id, public_key, private_key_cipher, fingerprint, created_at, updated_at
			FROM election_keys WHERE election_id=$1`
	row := d.db.QueryRowx(selectKey, electionID)
	if err := row.StructScan(&key); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("key pair for election %s: %w", electionID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching election key: %w", err)
	}
	return &key, nil
}
