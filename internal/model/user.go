package model

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const MinPasswordLength = 6

// User is an agent account. Customers and transactions belong to a user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

type UserRegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p *UserRegisterRequest) Normalize() {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
}

func (p UserRegisterRequest) Validate() error {
	if p.Username == "" {
		return fmt.Errorf("%w: username is required", ErrConstraintViolation)
	}
	if p.Email == "" {
		return fmt.Errorf("%w: email is required", ErrConstraintViolation)
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return fmt.Errorf("%w: email is invalid", ErrConstraintViolation)
	}
	if len(p.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrConstraintViolation, MinPasswordLength)
	}
	return nil
}
