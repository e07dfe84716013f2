package pgsql

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/stdlib"

	"github.com/Onyex101/secureballot-sub007/types"
)

// The electorate tables are owned by the surrounding administration
// application; the casting engine only ever reads them.

func (d *Database) GetVoter(voterID string) (*types.Voter, error) {
	var voter types.Voter
	selectVoter := `SELECT id, is_active, polling_unit_code, public_key, created_at, updated_at
			FROM voters WHERE id=$1`
	row := d.db.QueryRowx(selectVoter, voterID)
	if err := row.StructScan(&voter); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("voter %s: %w", voterID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching voter %s: %w", voterID, err)
	}
	return &voter, nil
}

func (d *Database) GetElection(electionID string) (*types.Election, error) {
	var election types.Election
	selectElection := `SELECT id, name, is_active, status, start_date, end_date, created_at, updated_at
			FROM elections WHERE id=$1`
	row := d.db.QueryRowx(selectElection, electionID)
	if err := row.StructScan(&election); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("election %s: %w", electionID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching election %s: %w", electionID, err)
	}
	return &election, nil
}

func (d *Database) GetCandidate(candidateID string) (*types.Candidate, error) {
	var candidate types.Candidate
	selectCandidate := `SELECT id, election_id, name, is_active, approval_status, created_at, updated_at
			FROM candidates WHERE id=$1`
	row := d.db.QueryRowx(selectCandidate, candidateID)
	if err := row.StructScan(&candidate); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("candidate %s: %w", candidateID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching candidate %s: %w", candidateID, err)
	}
	return &candidate, nil
}

func (d *Database) GetPollingUnit(pollingUnitID string) (*types.PollingUnit, error) {
	var unit types.PollingUnit
	selectUnit := `SELECT id, code, name, created_at, updated_at
			FROM polling_units WHERE id=$1`
	row := d.db.QueryRowx(selectUnit, pollingUnitID)
	if err := row.StructScan(&unit); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("polling unit %s: %w", pollingUnitID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching polling unit %s: %w", pollingUnitID, err)
	}
	return &unit, nil
}

func (d *Database) GetPollingUnitByCode(code string) (*types.PollingUnit, error) {
	var unit types.PollingUnit
	selectUnit := `SELECT id, code, name, created_at, updated_at
			FROM polling_units WHERE code=$1`
	row := d.db.QueryRowx(selectUnit, code)
	if err := row.StructScan(&unit); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("polling unit with code %q: %w", code, types.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching polling unit %q: %w", code, err)
	}
	return &unit, nil
}
