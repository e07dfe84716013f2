package types

import "errors"

// Error taxonomy of the casting engine. Callers classify failures with
// errors.Is against these sentinels; the variants carry context through
// fmt.Errorf %w wrapping.
var (
	// ErrNotFound covers missing voters, elections, candidates, polling
	// units and election key pairs.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a voter already has a vote recorded
	// for the election. Terminal per call, never retried.
	ErrConflict = errors.New("already voted")
	// ErrValidation covers malformed or undecryptable ballots and
	// inactive or unapproved candidates.
	ErrValidation = errors.New("validation failed")
	// ErrConfig signals missing or inconsistent key material or an
	// unresolvable polling unit: a data integrity issue, not user error.
	ErrConfig = errors.New("configuration error")
	// ErrIntegrity signals a hash mismatch during verification or tally.
	ErrIntegrity = errors.New("integrity check failed")
)
