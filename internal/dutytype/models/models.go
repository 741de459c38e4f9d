package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
)

const maxNameLength = 100

// DutyType is a kind of post a guard can be assigned to (night watch, gate, patrol).
type DutyType struct {
	ID        id.DutyTypeID `json:"id"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"created_at"`
}

type CreateRequest struct {
	Name string `json:"name"`
}

func (r *CreateRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.Join(strings.Fields(r.Name), " ")
}

func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if utf8.RuneCountInString(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 100 characters")
	}
	return nil
}
