package pgsql

import (
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"go.vocdoni.io/dvote/log"

	"github.com/Onyex101/secureballot-sub007/database"
)

// Migrations available
var Migrations = migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id:   "1",
			Up:   []string{migration1up},
			Down: []string{migration1down},
		},
	},
}

const migration1up = `
-- NOTES
-- 1. All columns are defined as NOT NULL to ease communication with Golang
-- 2. The votes unique constraints are the authoritative guard against
--    duplicate votes and receipt reuse under concurrent casting

-- SQL in section 'Up' is executed when this migration is applied
--------------------------- TABLES DEFINITION
-------------------------------- -------------------------------- --------------------------------


--------------------------- Electorate (read-only inputs to the engine)

CREATE TABLE voters (
    updated_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    created_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    id uuid NOT NULL,
    is_active boolean DEFAULT true NOT NULL,
    polling_unit_code text NOT NULL,
    public_key bytea DEFAULT '\x'::bytea NOT NULL
);

ALTER TABLE ONLY voters
    ADD CONSTRAINT voters_pkey PRIMARY KEY (id);

CREATE TABLE elections (
    updated_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    created_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    id uuid NOT NULL,
    name text NOT NULL,
    is_active boolean DEFAULT false NOT NULL,
    status text NOT NULL,
    start_date timestamp with time zone NOT NULL,
    end_date timestamp with time zone NOT NULL
);

ALTER TABLE ONLY elections
    ADD CONSTRAINT elections_pkey PRIMARY KEY (id);

CREATE TABLE candidates (
    updated_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    created_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    id uuid NOT NULL,
    election_id uuid NOT NULL,
    name text NOT NULL,
    is_active boolean DEFAULT true NOT NULL,
    approval_status text DEFAULT 'pending' NOT NULL
);

ALTER TABLE ONLY candidates
    ADD CONSTRAINT candidates_pkey PRIMARY KEY (id);

ALTER TABLE ONLY candidates
    ADD CONSTRAINT candidates_election_fkey FOREIGN KEY (election_id)
    REFERENCES elections(id);

CREATE TABLE polling_units (
    updated_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    created_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    id uuid NOT NULL,
    code text NOT NULL,
    name text NOT NULL
);

ALTER TABLE ONLY polling_units
    ADD CONSTRAINT polling_units_pkey PRIMARY KEY (id);

ALTER TABLE ONLY polling_units
    ADD CONSTRAINT polling_units_code_unique UNIQUE (code);

--------------------------- Election key pairs
-- Exactly one active key pair per election. The private key is stored
-- secretbox-encrypted with the configured escrow key, never in the clear.

CREATE TABLE election_keys (
    updated_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    created_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    election_id uuid NOT NULL,
    public_key bytea NOT NULL,
    private_key_cipher bytea NOT NULL,
    fingerprint text NOT NULL
);

ALTER TABLE ONLY election_keys
    ADD CONSTRAINT election_keys_pkey PRIMARY KEY (election_id);

ALTER TABLE ONLY election_keys
    ADD CONSTRAINT election_keys_election_fkey FOREIGN KEY (election_id)
    REFERENCES elections(id);

--------------------------- Votes
-- Insert-only. is_counted is the single mutable column, flipped during
-- tallying. votes_voter_election_unique enforces one vote per voter per
-- election; votes_receipt_unique makes receipt codes never reusable.

CREATE TABLE votes (
    updated_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    created_at timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL,
    id uuid NOT NULL,
    voter_id uuid NOT NULL,
    election_id uuid NOT NULL,
    candidate_id uuid NOT NULL,
    polling_unit_id uuid NOT NULL,
    encrypted_payload bytea NOT NULL,
    encrypted_session_key text NOT NULL,
    iv text NOT NULL,
    integrity_hash text NOT NULL,
    public_key_fingerprint text NOT NULL,
    source text NOT NULL,
    receipt_code text NOT NULL,
    is_counted boolean DEFAULT false NOT NULL,
    vote_timestamp timestamp with time zone DEFAULT CURRENT_TIMESTAMP NOT NULL
);

ALTER TABLE ONLY votes
    ADD CONSTRAINT votes_pkey PRIMARY KEY (id);

ALTER TABLE ONLY votes
    ADD CONSTRAINT votes_voter_election_unique UNIQUE (voter_id, election_id);

ALTER TABLE ONLY votes
    ADD CONSTRAINT votes_receipt_unique UNIQUE (receipt_code);

ALTER TABLE ONLY votes
    ADD CONSTRAINT votes_source_check CHECK
    (source IN ('web', 'mobile', 'ussd', 'offline'));

ALTER TABLE ONLY votes
    ADD CONSTRAINT votes_voter_fkey FOREIGN KEY (voter_id) REFERENCES voters(id);

ALTER TABLE ONLY votes
    ADD CONSTRAINT votes_election_fkey FOREIGN KEY (election_id) REFERENCES elections(id);

ALTER TABLE ONLY votes
    ADD CONSTRAINT votes_candidate_fkey FOREIGN KEY (candidate_id) REFERENCES candidates(id);

CREATE INDEX votes_election_idx ON votes (election_id);

CREATE INDEX votes_receipt_lower_idx ON votes (LOWER(receipt_code));
`

const migration1down = `
DROP TABLE votes;
DROP TABLE election_keys;
DROP TABLE candidates;
DROP TABLE polling_units;
DROP TABLE voters;
DROP TABLE elections;
`

func Migrator(action string, db database.Database) error {
	switch action {
	case "upSync":
		log.Infof("checking if DB is up to date")
		mTotal, mApplied, _, err := db.MigrateStatus()
		if err != nil {
			return fmt.Errorf("could not retrieve migrations status: (%v)", err)
		}
		if mTotal > mApplied {
			log.Infof("applying missing %d migrations to DB", mTotal-mApplied)
			n, err := db.MigrationUpSync()
			if err != nil {
				return fmt.Errorf("could not apply necessary migrations (%v)", err)
			}
			if n != mTotal-mApplied {
				return fmt.Errorf("could not apply all necessary migrations (%v)", err)
			}
		} else if mTotal < mApplied {
			return fmt.Errorf("something went terribly wrong with the DB migrations")
		}
	case "up", "down":
		log.Info("applying migration")
		op := migrate.Up
		if action == "down" {
			op = migrate.Down
		}
		n, err := db.Migrate(op)
		if err != nil {
			return fmt.Errorf("error applying migration: (%v)", err)
		}
		if n != 1 {
			return fmt.Errorf("reported applied migrations !=1")
		}
		log.Infof("%q migration complete", action)
	case "status":
		mTotal, mApplied, record, err := db.MigrateStatus()
		if err != nil {
			return fmt.Errorf("could not retrieve migrations status: (%v)", err)
		}
		log.Infof("Total Migrations: %d\nApplied migrations: %d (%s)", mTotal, mApplied, record)
	default:
		return fmt.Errorf("invalid migration action (%s)", action)
	}
	return nil
}
