package models

import (
	"time"

	id "guardhouse/pkg/domain"
)

// Type classifies a notification.
type Type string

const (
	TypeDependentAdded      Type = "DEPENDENT_ADDED"
	TypeDependentUpdated    Type = "DEPENDENT_UPDATED"
	TypeDependentTerminated Type = "DEPENDENT_TERMINATED"
	TypeDependentDeleted    Type = "DEPENDENT_DELETED"
	TypeOwnerTerminated     Type = "OWNER_TERMINATED"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeDependentAdded, TypeDependentUpdated, TypeDependentTerminated, TypeDependentDeleted, TypeOwnerTerminated:
		return true
	}
	return false
}

// Scope selects whose notifications an operation sees: one owner's, or the
// administrative broadcast stream that has no owner.
type Scope struct {
	owner id.OwnerID
}

// OwnerScope is the scope of a single supervisor.
func OwnerScope(owner id.OwnerID) Scope {
	return Scope{owner: owner}
}

// AdminScope is the administrative broadcast scope.
func AdminScope() Scope {
	return Scope{owner: id.AdminScope}
}

func (s Scope) IsAdmin() bool {
	return s.owner == id.AdminScope
}

// Owner returns the owning supervisor, or id.AdminScope for the broadcast scope.
func (s Scope) Owner() id.OwnerID {
	return s.owner
}

func (s Scope) String() string {
	if s.IsAdmin() {
		return "admin"
	}
	return "supervisor:" + s.owner.String()
}

// Event is a notification. Sequence numbers events within their scope.
type Event struct {
	ID        id.EventID  `json:"id"`
	OwnerID   id.OwnerID  `json:"supervisor_id,omitempty"`
	Sequence  id.Sequence `json:"local_notification_id"`
	Type      Type        `json:"type"`
	Message   string      `json:"message"`
	IsRead    bool        `json:"is_read"`
	CreatedAt time.Time   `json:"created_at"`
}

func (e *Event) Scope() Scope {
	return Scope{owner: e.OwnerID}
}
