package models

import (
	"time"

	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
)

// Dependent is a guard registered by an owner. Together with its emergency
// contacts and documents it forms one aggregate that is written atomically.
//
// Invariants:
//   - OwnerID is fixed at creation
//   - Sequence is unique within OwnerID, assigned once and never reused
//   - Phone is unique across all dependents
type Dependent struct {
	ID                id.DependentID     `json:"id"`
	OwnerID           id.OwnerID         `json:"supervisor_id"`
	Sequence          id.Sequence        `json:"local_guard_id"`
	Name              string             `json:"name"`
	Phone             string             `json:"phone"`
	Email             string             `json:"email,omitempty"`
	CurrentAddress    string             `json:"current_address,omitempty"`
	PermanentAddress  string             `json:"permanent_address,omitempty"`
	EmergencyAddress  string             `json:"emergency_address,omitempty"`
	DutyTypeID        id.DutyTypeID      `json:"duty_type_id"`
	DutyStartTime     string             `json:"duty_start_time,omitempty"`
	DutyEndTime       string             `json:"duty_end_time,omitempty"`
	WorkingLocation   string             `json:"working_location,omitempty"`
	WorkExperience    string             `json:"work_experience,omitempty"`
	ReferenceBy       string             `json:"reference_by,omitempty"`
	ProfilePhoto      string             `json:"profile_photo,omitempty"`
	Status            Status             `json:"status"`
	TerminationReason string             `json:"termination_reason,omitempty"`
	Contacts          []EmergencyContact `json:"emergency_contacts"`
	Documents         []Document         `json:"documents"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// EmergencyContact is a person to call for a dependent. Contacts are replaced
// as a set whenever they are edited.
type EmergencyContact struct {
	ID          id.ContactID   `json:"id"`
	DependentID id.DependentID `json:"guard_id"`
	Name        string         `json:"name"`
	Phone       string         `json:"phone"`
}

// Document is a stored file attached to a dependent. Documents are only
// appended; they disappear together with their dependent.
type Document struct {
	ID           id.DocumentID  `json:"id"`
	DependentID  id.DependentID `json:"guard_id"`
	Reference    string         `json:"file_path"`
	OriginalName string         `json:"original_name"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Code is the display identifier within the owner's roster, e.g. G003.
func (d *Dependent) Code() string {
	return id.DependentCode(d.Sequence)
}

func (d *Dependent) IsTerminated() bool {
	return d.Status == StatusTerminated
}

// CanEdit rejects edits to terminated dependents.
func (d *Dependent) CanEdit() error {
	if d.IsTerminated() {
		return dErrors.New(dErrors.CodeInvariantViolation, "terminated guards cannot be edited")
	}
	return nil
}

// ApplyTermination marks the dependent terminated. Repeating it only replaces the reason.
func (d *Dependent) ApplyTermination(reason string, now time.Time) {
	d.Status = StatusTerminated
	d.TerminationReason = reason
	d.UpdatedAt = now
}

// ApplyPatch copies the non-nil fields of the request onto the dependent.
// Contacts and documents are handled by the store.
func (d *Dependent) ApplyPatch(req *EditDependentRequest, now time.Time) {
	setIf(&d.Name, req.Name)
	setIf(&d.Phone, req.Phone)
	setIf(&d.Email, req.Email)
	setIf(&d.CurrentAddress, req.CurrentAddress)
	setIf(&d.PermanentAddress, req.PermanentAddress)
	setIf(&d.EmergencyAddress, req.EmergencyAddress)
	setIf(&d.DutyStartTime, req.DutyStartTime)
	setIf(&d.DutyEndTime, req.DutyEndTime)
	setIf(&d.WorkingLocation, req.WorkingLocation)
	setIf(&d.WorkExperience, req.WorkExperience)
	setIf(&d.ReferenceBy, req.ReferenceBy)
	setIf(&d.ProfilePhoto, req.ProfilePhoto)
	if req.DutyTypeID != nil {
		d.DutyTypeID = *req.DutyTypeID
	}
	if req.Status != nil {
		d.Status = *req.Status
	}
	d.UpdatedAt = now
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// NewDependent builds an unsaved dependent from a validated request. The store
// assigns ID and the service assigns Sequence.
func NewDependent(ownerID id.OwnerID, req *CreateDependentRequest, now time.Time) (*Dependent, error) {
	if ownerID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "guard must belong to a supervisor")
	}
	if req.Name == "" || req.Phone == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "guard name and phone are required")
	}
	d := &Dependent{
		OwnerID:          ownerID,
		Name:             req.Name,
		Phone:            req.Phone,
		Email:            req.Email,
		CurrentAddress:   req.CurrentAddress,
		PermanentAddress: req.PermanentAddress,
		EmergencyAddress: req.EmergencyAddress,
		DutyTypeID:       req.DutyTypeID,
		DutyStartTime:    req.DutyStartTime,
		DutyEndTime:      req.DutyEndTime,
		WorkingLocation:  req.WorkingLocation,
		WorkExperience:   req.WorkExperience,
		ReferenceBy:      req.ReferenceBy,
		ProfilePhoto:     req.ProfilePhoto,
		Status:           StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, c := range req.Contacts {
		d.Contacts = append(d.Contacts, EmergencyContact{Name: c.Name, Phone: c.Phone})
	}
	for _, doc := range req.Documents {
		d.Documents = append(d.Documents, Document{Reference: doc.Reference, OriginalName: doc.OriginalName, CreatedAt: now})
	}
	return d, nil
}

// DashboardStats summarizes the roster for administrators.
type DashboardStats struct {
	TotalOwners      int          `json:"total_supervisors"`
	TotalDependents  int          `json:"total_guards"`
	RecentDependents []*Dependent `json:"recent_guards"`
}
