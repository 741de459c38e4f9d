package dispatch

import (
	"fmt"

	"guardhouse/internal/notification/models"
	id "guardhouse/pkg/domain"
)

// Kind names the committed change an intent reports.
type Kind string

const (
	DependentAdded      Kind = "dependent_added"
	DependentUpdated    Kind = "dependent_updated"
	DependentTerminated Kind = "dependent_terminated"
	DependentDeleted    Kind = "dependent_deleted"
	OwnerTerminated     Kind = "owner_terminated"
)

// Intent describes the side effects owed for one committed write. It is
// built from values captured inside the transaction, so delivery never reads
// the aggregate again.
type Intent struct {
	Kind          Kind
	OwnerID       id.OwnerID
	OwnerName     string
	DependentName string
	DependentCode string
	Reason        string
	// PushAddress is the owner's device; empty skips the push.
	PushAddress string
}

type note struct {
	scope     models.Scope
	eventType models.Type
	message   string
}

type pushNote struct {
	title string
	body  string
}

// plan expands an intent into the events to record and the optional push.
func plan(in Intent) ([]note, *pushNote) {
	owner := models.OwnerScope(in.OwnerID)
	admin := models.AdminScope()
	who := in.DependentName
	if in.DependentCode != "" {
		who = fmt.Sprintf("%s (%s)", in.DependentName, in.DependentCode)
	}
	supervisor := in.OwnerName
	if supervisor == "" {
		supervisor = id.OwnerCode(in.OwnerID)
	}

	switch in.Kind {
	case DependentAdded:
		return []note{
				{owner, models.TypeDependentAdded, "You added guard " + who},
				{admin, models.TypeDependentAdded, fmt.Sprintf("Supervisor %s added guard %s", supervisor, who)},
			}, &pushNote{
				title: "Guard added",
				body:  who + " has been added to your team",
			}
	case DependentUpdated:
		return []note{
			{owner, models.TypeDependentUpdated, "Guard " + who + " was updated"},
		}, nil
	case DependentTerminated:
		msg := "Guard " + who + " was terminated"
		if in.Reason != "" {
			msg += ": " + in.Reason
		}
		return []note{{owner, models.TypeDependentTerminated, msg}}, nil
	case DependentDeleted:
		return []note{
				{owner, models.TypeDependentDeleted, "Guard " + who + " was deleted"},
				{admin, models.TypeDependentDeleted, fmt.Sprintf("Supervisor %s deleted guard %s", supervisor, who)},
			}, &pushNote{
				title: "Guard deleted",
				body:  who + " has been removed from your team",
			}
	case OwnerTerminated:
		msg := fmt.Sprintf("Supervisor %s was terminated", supervisor)
		if in.Reason != "" {
			msg += ": " + in.Reason
		}
		return []note{{admin, models.TypeOwnerTerminated, msg}}, nil
	}
	return nil, nil
}
