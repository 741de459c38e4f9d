package models

import (
	"time"

	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
)

// Owner is a supervisor. Owners are created by administrators and own the
// dependents they register.
//
// Invariants:
//   - Email is unique (case-insensitive) and Phone is unique across owners
//   - Terminated is terminal; the row survives until the owner is purged
type Owner struct {
	ID                id.OwnerID `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	PushAddress       string     `json:"player_id,omitempty"`
	DeviceType        string     `json:"device_type,omitempty"`
	Status            Status     `json:"status"`
	TerminationReason string     `json:"termination_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Code is the display identifier, e.g. SPR007.
func (o *Owner) Code() string {
	return id.OwnerCode(o.ID)
}

func (o *Owner) IsActive() bool {
	return o.Status == StatusActive
}

// CanSetStatus checks a status change requested through the status endpoint.
// Termination has its own operation because it carries a reason.
func (o *Owner) CanSetStatus(target Status) error {
	if !target.IsValid() || target == StatusTerminated {
		return dErrors.New(dErrors.CodeValidation, "status must be Active or Suspended")
	}
	if o.Status == target {
		return nil
	}
	if !o.Status.CanTransitionTo(target) {
		return dErrors.New(dErrors.CodeInvariantViolation, "owner is terminated")
	}
	return nil
}

func (o *Owner) ApplyStatus(target Status, now time.Time) {
	o.Status = target
	o.UpdatedAt = now
}

// ApplyTermination marks the owner terminated. Repeating it only replaces the reason.
func (o *Owner) ApplyTermination(reason string, now time.Time) {
	o.Status = StatusTerminated
	o.TerminationReason = reason
	o.UpdatedAt = now
}

// CanEdit rejects contact changes on a terminated owner.
func (o *Owner) CanEdit() error {
	if o.Status == StatusTerminated {
		return dErrors.New(dErrors.CodeConflict, "supervisor is terminated")
	}
	return nil
}

// ApplyContact sets the contact fields present in req.
func (o *Owner) ApplyContact(req *UpdateOwnerRequest, now time.Time) {
	setIf(&o.Name, req.Name)
	setIf(&o.Email, req.Email)
	setIf(&o.Phone, req.Phone)
	o.UpdatedAt = now
}

// ApplyDevice records where push notifications for this owner are delivered.
func (o *Owner) ApplyDevice(pushAddress, deviceType string, now time.Time) {
	o.PushAddress = pushAddress
	o.DeviceType = deviceType
	o.UpdatedAt = now
}

func NewOwner(name, email, phone string, now time.Time) (*Owner, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "owner name cannot be empty")
	}
	if email == "" || phone == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "owner email and phone are required")
	}
	return &Owner{
		Name:      name,
		Email:     email,
		Phone:     phone,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
