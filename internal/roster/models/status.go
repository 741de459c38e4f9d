package models

// Status is the employment status shared by owners and dependents.
type Status string

const (
	StatusActive     Status = "Active"
	StatusSuspended  Status = "Suspended"
	StatusTerminated Status = "Terminated"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusTerminated:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether a record in status s may move to target.
// Active and Suspended are interchangeable; Terminated is terminal, although
// re-terminating is allowed so the reason can be corrected.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusActive:
		return target == StatusSuspended || target == StatusTerminated
	case StatusSuspended:
		return target == StatusActive || target == StatusTerminated
	case StatusTerminated:
		return target == StatusTerminated
	}
	return false
}
