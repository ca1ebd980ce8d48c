package account

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caretrack/caretrack/internal/platform/apperr"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// User maps to the app_user table. The password hash never leaves the
// server.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// Validate runs the registration field rules and returns every failure.
func (in *RegisterInput) Validate() []apperr.FieldError {
	var errs []apperr.FieldError
	if strings.TrimSpace(in.Username) == "" {
		errs = append(errs, apperr.FieldError{Field: "username", Message: "Username is required."})
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		errs = append(errs, apperr.FieldError{Field: "email", Message: "Email is required."})
	} else if !strings.Contains(email, "@") {
		errs = append(errs, apperr.FieldError{Field: "email", Message: "Enter a valid email address."})
	}
	if len(in.Password) < MinPasswordLength {
		errs = append(errs, apperr.FieldError{Field: "password", Message: "Password must be at least 8 characters."})
	}
	if in.Password != in.PasswordConfirm {
		errs = append(errs, apperr.FieldError{Field: "password_confirm", Message: "Password fields didn't match."})
	}
	return errs
}

// ProfileInput carries the writable profile fields. Nil pointers mean
// "leave unchanged".
type ProfileInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}
