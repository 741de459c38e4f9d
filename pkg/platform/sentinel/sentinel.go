package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store (or not in the caller's scope)
// - ErrAlreadyUsed: a uniquely constrained value (phone, email, name) is taken
// - ErrAllocationConflict: an owner-scoped sequence was already assigned
// - ErrInvalidReference: a foreign key does not resolve
// - ErrConflict: the row is referenced elsewhere or in a state that blocks the write
// - ErrUnavailable: store timed out, deadlocked or could not serialize
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyUsed        = errors.New("already used")
	ErrAllocationConflict = errors.New("sequence allocation conflict")
	ErrInvalidReference   = errors.New("invalid reference")
	ErrConflict           = errors.New("conflict")
	ErrUnavailable        = errors.New("unavailable")
)
