package model

import (
	"fmt"
	"strings"
	"time"
)

type Customer struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	Email       *string   `json:"email,omitempty"`
	IDType      *string   `json:"id_type,omitempty"` // national id, voter id, ...
	IDNumber    *string   `json:"id_number,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type CustomerCreateRequest struct {
	UserID      int64   `json:"user_id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	PhoneNumber string  `json:"phone_number"`
	Email       *string `json:"email,omitempty"`
	IDType      *string `json:"id_type,omitempty"`
	IDNumber    *string `json:"id_number,omitempty"`
}

func (p CustomerCreateRequest) Validate() error {
	if p.UserID == 0 {
		return fmt.Errorf("%w: user_id is required", ErrConstraintViolation)
	}
	if strings.TrimSpace(p.FirstName) == "" {
		return fmt.Errorf("%w: first_name is required", ErrConstraintViolation)
	}
	if strings.TrimSpace(p.LastName) == "" {
		return fmt.Errorf("%w: last_name is required", ErrConstraintViolation)
	}
	if strings.TrimSpace(p.PhoneNumber) == "" {
		return fmt.Errorf("%w: phone_number is required", ErrConstraintViolation)
	}
	return nil
}

// TrimOptional trims an optional field, mapping a blank value to nil.
func TrimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

// CustomerUpdateRequest is a partial update; nil fields are left untouched.
type CustomerUpdateRequest struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Email       *string `json:"email,omitempty"`
	IDType      *string `json:"id_type,omitempty"`
	IDNumber    *string `json:"id_number,omitempty"`
}

func (p CustomerUpdateRequest) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.PhoneNumber == nil &&
		p.Email == nil && p.IDType == nil && p.IDNumber == nil
}

func (p CustomerUpdateRequest) Validate() error {
	required := map[string]*string{
		"first_name":   p.FirstName,
		"last_name":    p.LastName,
		"phone_number": p.PhoneNumber,
	}
	for name, v := range required {
		if v != nil && strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%w: %s cannot be empty", ErrConstraintViolation, name)
		}
	}
	return nil
}

// CustomerFilter controls List queries.
type CustomerFilter struct {
	UserID      *int64
	PhoneNumber *string
	Limit       int // default 50
	Offset      int
}
