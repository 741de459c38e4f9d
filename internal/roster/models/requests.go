package models

import (
	"net/mail"
	"strings"

	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	strutil "guardhouse/pkg/platform/strings"
)

const (
	maxNameLength    = 128
	maxTextLength    = 500
	maxReasonLength  = 500
	maxContacts      = 2
	maxDocuments     = 10
	minPhoneDigits   = 10
	maxPhoneDigits   = 15
	maxPushAddrBytes = 128
)

// ContactInput is one emergency contact slot. Slots without both a name and a
// phone are dropped during normalization.
type ContactInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// DocumentInput references a file that was already placed in object storage.
type DocumentInput struct {
	Reference    string `json:"file_path"`
	OriginalName string `json:"original_name"`
}

type CreateDependentRequest struct {
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	Email            string          `json:"email"`
	CurrentAddress   string          `json:"current_address"`
	PermanentAddress string          `json:"permanent_address"`
	EmergencyAddress string          `json:"emergency_address"`
	DutyTypeID       id.DutyTypeID   `json:"duty_type_id"`
	DutyStartTime    string          `json:"duty_start_time"`
	DutyEndTime      string          `json:"duty_end_time"`
	WorkingLocation  string          `json:"working_location"`
	WorkExperience   string          `json:"work_experience"`
	ReferenceBy      string          `json:"reference_by"`
	ProfilePhoto     string          `json:"profile_photo"`
	Contacts         []ContactInput  `json:"emergency_contacts"`
	Documents        []DocumentInput `json:"documents"`
}

func (r *CreateDependentRequest) Normalize() {
	if r == nil {
		return
	}
	for _, f := range []*string{
		&r.Name, &r.Phone, &r.Email, &r.CurrentAddress, &r.PermanentAddress, &r.EmergencyAddress,
		&r.DutyStartTime, &r.DutyEndTime, &r.WorkingLocation, &r.WorkExperience,
		&r.ReferenceBy, &r.ProfilePhoto,
	} {
		*f = strings.TrimSpace(*f)
	}
	r.Email = strings.ToLower(r.Email)
	r.Contacts = normalizeContacts(r.Contacts)
	r.Documents = normalizeDocuments(r.Documents)
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *CreateDependentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be 128 characters or less")
	}
	for _, f := range []string{r.CurrentAddress, r.PermanentAddress, r.EmergencyAddress, r.WorkingLocation, r.WorkExperience, r.ReferenceBy} {
		if len(f) > maxTextLength {
			return dErrors.New(dErrors.CodeValidation, "text fields must be 500 characters or less")
		}
	}
	if len(r.Contacts) > maxContacts {
		return dErrors.New(dErrors.CodeValidation, "at most 2 emergency contacts are allowed")
	}
	if len(r.Documents) > maxDocuments {
		return dErrors.New(dErrors.CodeValidation, "at most 10 documents are allowed per request")
	}

	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Phone == "" {
		return dErrors.New(dErrors.CodeValidation, "phone is required")
	}
	if r.DutyTypeID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "duty_type_id is required")
	}

	if err := validatePhone(r.Phone, "phone"); err != nil {
		return err
	}
	if err := validateEmail(r.Email, false); err != nil {
		return err
	}
	return validateContacts(r.Contacts)
}

// EditDependentRequest is a partial update. Nil fields are left untouched.
// A non-nil Contacts replaces every existing emergency contact, and Documents
// are appended.
type EditDependentRequest struct {
	Name             *string         `json:"name,omitempty"`
	Phone            *string         `json:"phone,omitempty"`
	Email            *string         `json:"email,omitempty"`
	CurrentAddress   *string         `json:"current_address,omitempty"`
	PermanentAddress *string         `json:"permanent_address,omitempty"`
	EmergencyAddress *string         `json:"emergency_address,omitempty"`
	DutyTypeID       *id.DutyTypeID  `json:"duty_type_id,omitempty"`
	DutyStartTime    *string         `json:"duty_start_time,omitempty"`
	DutyEndTime      *string         `json:"duty_end_time,omitempty"`
	WorkingLocation  *string         `json:"working_location,omitempty"`
	WorkExperience   *string         `json:"work_experience,omitempty"`
	ReferenceBy      *string         `json:"reference_by,omitempty"`
	ProfilePhoto     *string         `json:"profile_photo,omitempty"`
	Status           *Status         `json:"status,omitempty"`
	Contacts         *[]ContactInput `json:"emergency_contacts,omitempty"`
	Documents        []DocumentInput `json:"documents,omitempty"`
}

func (r *EditDependentRequest) Normalize() {
	if r == nil {
		return
	}
	for _, f := range []**string{
		&r.Name, &r.Phone, &r.Email, &r.CurrentAddress, &r.PermanentAddress, &r.EmergencyAddress,
		&r.DutyStartTime, &r.DutyEndTime, &r.WorkingLocation, &r.WorkExperience,
		&r.ReferenceBy, &r.ProfilePhoto,
	} {
		*f = strutil.TrimPtr(*f)
	}
	if r.Email != nil {
		lower := strings.ToLower(*r.Email)
		r.Email = &lower
	}
	if r.Contacts != nil {
		contacts := normalizeContacts(*r.Contacts)
		r.Contacts = &contacts
	}
	r.Documents = normalizeDocuments(r.Documents)
}

func (r *EditDependentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Name != nil && len(*r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be 128 characters or less")
	}
	for _, f := range []*string{r.CurrentAddress, r.PermanentAddress, r.EmergencyAddress, r.WorkingLocation, r.WorkExperience, r.ReferenceBy} {
		if f != nil && len(*f) > maxTextLength {
			return dErrors.New(dErrors.CodeValidation, "text fields must be 500 characters or less")
		}
	}
	if r.Contacts != nil && len(*r.Contacts) > maxContacts {
		return dErrors.New(dErrors.CodeValidation, "at most 2 emergency contacts are allowed")
	}
	if len(r.Documents) > maxDocuments {
		return dErrors.New(dErrors.CodeValidation, "at most 10 documents are allowed per request")
	}

	if r.Name != nil && *r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name cannot be empty")
	}
	if r.DutyTypeID != nil && r.DutyTypeID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "duty_type_id cannot be empty")
	}

	if r.Phone != nil {
		if err := validatePhone(*r.Phone, "phone"); err != nil {
			return err
		}
	}
	if r.Email != nil {
		if err := validateEmail(*r.Email, false); err != nil {
			return err
		}
	}
	if r.Status != nil && *r.Status != StatusActive && *r.Status != StatusSuspended {
		return dErrors.New(dErrors.CodeValidation, "status must be Active or Suspended; use terminate to end employment")
	}
	if r.Contacts != nil {
		return validateContacts(*r.Contacts)
	}
	return nil
}

// IsEmpty reports whether the request changes nothing.
func (r *EditDependentRequest) IsEmpty() bool {
	return r.Name == nil && r.Phone == nil && r.Email == nil && r.CurrentAddress == nil &&
		r.PermanentAddress == nil && r.EmergencyAddress == nil && r.DutyTypeID == nil && r.DutyStartTime == nil &&
		r.DutyEndTime == nil && r.WorkingLocation == nil && r.WorkExperience == nil &&
		r.ReferenceBy == nil && r.ProfilePhoto == nil && r.Status == nil &&
		r.Contacts == nil && len(r.Documents) == 0
}

type TerminateRequest struct {
	Reason string `json:"reason"`
}

func (r *TerminateRequest) Normalize() {
	if r != nil {
		r.Reason = strings.TrimSpace(r.Reason)
	}
}

func (r *TerminateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Reason) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason must be 500 characters or less")
	}
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

type CreateOwnerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (r *CreateOwnerRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r *CreateOwnerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be 128 characters or less")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if err := validateEmail(r.Email, true); err != nil {
		return err
	}
	return validatePhone(r.Phone, "phone")
}

type UpdateOwnerRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

func (r *UpdateOwnerRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strutil.TrimPtr(r.Name)
	r.Phone = strutil.TrimPtr(r.Phone)
	if r.Email = strutil.TrimPtr(r.Email); r.Email != nil {
		lower := strings.ToLower(*r.Email)
		r.Email = &lower
	}
}

func (r *UpdateOwnerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Name != nil {
		if len(*r.Name) > maxNameLength {
			return dErrors.New(dErrors.CodeValidation, "name must be 128 characters or less")
		}
		if *r.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "name cannot be empty")
		}
	}
	if r.Email != nil {
		if err := validateEmail(*r.Email, true); err != nil {
			return err
		}
	}
	if r.Phone != nil {
		return validatePhone(*r.Phone, "phone")
	}
	return nil
}

type SetStatusRequest struct {
	Status Status `json:"status"`
}

// RegisterDeviceRequest binds the caller's push address.
type RegisterDeviceRequest struct {
	PlayerID   string `json:"player_id"`
	DeviceType string `json:"device_type"`
}

func (r *RegisterDeviceRequest) Normalize() {
	if r == nil {
		return
	}
	r.PlayerID = strings.TrimSpace(r.PlayerID)
	r.DeviceType = strings.ToLower(strings.TrimSpace(r.DeviceType))
}

func (r *RegisterDeviceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.PlayerID) > maxPushAddrBytes || len(r.DeviceType) > 32 {
		return dErrors.New(dErrors.CodeValidation, "device fields are too long")
	}
	if r.PlayerID == "" {
		return dErrors.New(dErrors.CodeValidation, "player_id is required")
	}
	return nil
}

func normalizeContacts(in []ContactInput) []ContactInput {
	out := make([]ContactInput, 0, len(in))
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		c.Phone = strings.TrimSpace(c.Phone)
		if c.Name == "" || c.Phone == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func normalizeDocuments(in []DocumentInput) []DocumentInput {
	if len(in) == 0 {
		return nil
	}
	out := make([]DocumentInput, 0, len(in))
	for _, d := range in {
		d.Reference = strings.TrimSpace(d.Reference)
		d.OriginalName = strings.TrimSpace(d.OriginalName)
		if d.Reference == "" {
			continue
		}
		if d.OriginalName == "" {
			d.OriginalName = d.Reference
		}
		out = append(out, d)
	}
	return out
}

func validateContacts(contacts []ContactInput) error {
	for _, c := range contacts {
		if len(c.Name) > maxNameLength {
			return dErrors.New(dErrors.CodeValidation, "emergency contact name must be 128 characters or less")
		}
		if err := validatePhone(c.Phone, "emergency contact phone"); err != nil {
			return err
		}
	}
	return nil
}

func validatePhone(phone, field string) error {
	if len(phone) < minPhoneDigits || len(phone) > maxPhoneDigits || !strutil.IsDigits(phone) {
		return dErrors.New(dErrors.CodeValidation, field+" must be 10 to 15 digits")
	}
	return nil
}

func validateEmail(email string, required bool) error {
	if email == "" {
		if required {
			return dErrors.New(dErrors.CodeValidation, "email is required")
		}
		return nil
	}
	if len(email) > 254 {
		return dErrors.New(dErrors.CodeValidation, "email must be 254 characters or less")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return dErrors.New(dErrors.CodeValidation, "invalid email format")
	}
	return nil
}
