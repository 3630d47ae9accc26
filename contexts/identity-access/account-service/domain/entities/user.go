package entities

import (
	"net/mail"
	"strings"
	"time"

	domainerrors "ballotbox/contexts/identity-access/account-service/domain/errors"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleVoter Role = "voter"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
	// bcrypt rejects longer inputs.
	MaxPasswordBytes = 72
)

// User is an account. PasswordHash never leaves the service boundary.
type User struct {
	UserID       string
	Username     string
	Email        string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}

// NormalizeEmail is the key used for uniqueness and login lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegistration checks every field and reports all violations.
func ValidateRegistration(username string, email string, password string) error {
	verr := &domainerrors.ValidationError{}
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		verr.Add("username", "Username is required")
	case len([]rune(username)) < MinUsernameLength:
		verr.Add("username", "Username must be at least 3 characters")
	}

	email = strings.TrimSpace(email)
	if email == "" {
		verr.Add("email", "Email is required")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.Add("email", "Email is invalid")
	}

	switch {
	case password == "":
		verr.Add("password", "Password is required")
	case len(password) < MinPasswordLength:
		verr.Add("password", "Password must be at least 6 characters")
	case len(password) > MaxPasswordBytes:
		verr.Add("password", "Password must be at most 72 bytes")
	}
	return verr.OrNil()
}
