// Package sequence hands out per-owner, per-kind sequence numbers.
//
// A sequence is the human-facing number of a row inside its owner's scope
// ("guard #3 of supervisor 7"). Values start at 1, are assigned once and are
// never handed out again for the same (owner, kind), even after the row that
// carried them is purged. Allocation must happen inside the unit of work that
// inserts the row, so a rolled-back insert also rolls back the allocation.
package sequence

import (
	"context"
	"fmt"

	id "guardhouse/pkg/domain"
)

// Kind names an independently numbered collection within an owner's scope.
type Kind string

const (
	KindDependent Kind = "dependent"
	KindEvent     Kind = "event"
)

func (k Kind) IsValid() bool {
	return k == KindDependent || k == KindEvent
}

// Allocator issues the next sequence for (scope, kind). The administrative
// scope is id.AdminScope.
type Allocator interface {
	Next(ctx context.Context, scope id.OwnerID, kind Kind) (id.Sequence, error)
	// Forget drops every counter of scope. Only used when the owner itself is purged.
	Forget(ctx context.Context, scope id.OwnerID) error
}

func errUnknownKind(kind Kind) error {
	return fmt.Errorf("unknown sequence kind %q", kind)
}
