package domain

import (
	"fmt"
	"strconv"

	dErrors "guardhouse/pkg/domain-errors"
)

// Typed surrogate keys. They are BIGSERIAL values in Postgres and a monotonic
// counter in memory; zero means "unset".
type (
	OwnerID     int64
	DependentID int64
	EventID     int64
	DutyTypeID  int64
	ContactID   int64
	DocumentID  int64
)

// Sequence is an owner-scoped, human-facing number. It starts at 1 for each
// (owner, kind) pair and is never reused.
type Sequence int64

// AdminScope is the sequence scope used for events that belong to no owner.
const AdminScope OwnerID = 0

func (id OwnerID) String() string     { return strconv.FormatInt(int64(id), 10) }
func (id DependentID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id EventID) String() string     { return strconv.FormatInt(int64(id), 10) }
func (id DutyTypeID) String() string  { return strconv.FormatInt(int64(id), 10) }
func (s Sequence) String() string     { return strconv.FormatInt(int64(s), 10) }

func (id OwnerID) IsZero() bool     { return id == 0 }
func (id DependentID) IsZero() bool { return id == 0 }
func (id DutyTypeID) IsZero() bool  { return id == 0 }

// OwnerCode renders the supervisor display id, e.g. SPR007.
func OwnerCode(id OwnerID) string {
	return fmt.Sprintf("SPR%03d", int64(id))
}

// DependentCode renders the guard display id from its sequence, e.g. G012.
func DependentCode(seq Sequence) string {
	return fmt.Sprintf("G%03d", int64(seq))
}

func ParseOwnerID(s string) (OwnerID, error) {
	v, err := parsePositive(s, "owner id")
	return OwnerID(v), err
}

func ParseDependentID(s string) (DependentID, error) {
	v, err := parsePositive(s, "dependent id")
	return DependentID(v), err
}

func ParseDutyTypeID(s string) (DutyTypeID, error) {
	v, err := parsePositive(s, "duty type id")
	return DutyTypeID(v), err
}

func ParseSequence(s string) (Sequence, error) {
	v, err := parsePositive(s, "sequence")
	return Sequence(v), err
}

// parsePositive accepts only plain decimal digits so that path parameters
// like "+1", " 1" or "01e2" are rejected at the boundary.
func parsePositive(s, what string) (int64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	if len(s) > 19 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	return v, nil
}
