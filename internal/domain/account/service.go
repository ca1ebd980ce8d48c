package account

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/caretrack/caretrack/internal/platform/apperr"
	"github.com/caretrack/caretrack/internal/platform/auth"
)

// TokenPair is the login response credential set.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Service implements registration, authentication and profile
// management over the user repository.
type Service struct {
	users  UserRepository
	issuer *auth.TokenIssuer
}

func NewService(users UserRepository, issuer *auth.TokenIssuer) *Service {
	return &Service{users: users, issuer: issuer}
}

// Register creates a new user account and returns the stored profile.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return nil, apperr.ValidationFields(errs...)
	}

	u := &User{
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.TrimSpace(in.Email),
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}

	if err := s.checkUserEmail(ctx, u.Email, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	u.PasswordHash = string(hash)

	if err := s.users.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateUsername):
			return nil, apperr.ValidationFields(apperr.FieldError{Field: "username", Message: "A user with that username already exists."})
		case errors.Is(err, ErrDuplicateEmail):
			return nil, apperr.ValidationFields(apperr.FieldError{Field: "email", Message: "A user with this email already exists."})
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// Login verifies the credentials and returns a fresh token pair with
// the profile. Unknown users and wrong passwords are indistinguishable
// to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*TokenPair, *User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, invalidCredentialsErr()
		}
		return nil, nil, apperr.Internal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, nil, invalidCredentialsErr()
	}

	pair, err := s.issueTokens(u)
	if err != nil {
		return nil, nil, err
	}
	return pair, u, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.issuer.ValidateRefresh(refreshToken)
	if err != nil {
		return "", apperr.Unauthorized("Token is invalid or expired")
	}
	u, err := s.users.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", apperr.Unauthorized("Token is invalid or expired")
		}
		return "", apperr.Internal(err)
	}
	access, err := s.issuer.IssueAccess(u.ID, u.Username)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return access, nil
}

// Profile returns the caller's own profile.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// UpdateProfile applies the given fields to the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*User, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, apperr.ValidationFields(apperr.FieldError{Field: "email", Message: "Enter a valid email address."})
		}
		if err := s.checkUserEmail(ctx, email, u.ID); err != nil {
			return nil, err
		}
		u.Email = email
	}
	if err := s.users.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			return nil, apperr.ValidationFields(apperr.FieldError{Field: "email", Message: "A user with this email already exists."})
		case errors.Is(err, ErrNotFound):
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// ChangePassword replaces the caller's password after verifying the
// old one. The stored hash is untouched on any failure.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return apperr.ValidationFields(apperr.FieldError{Field: "old_password", Message: "Old password is incorrect"})
	}
	if len(newPassword) < MinPasswordLength {
		return apperr.ValidationFields(apperr.FieldError{Field: "new_password", Message: "Password must be at least 8 characters."})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// checkUserEmail is the advisory uniqueness pre-check. selfID exempts a
// user keeping their current address. The app_user_email_uq constraint
// remains the authority under concurrent writes.
func (s *Service) checkUserEmail(ctx context.Context, email string, selfID uuid.UUID) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return apperr.Internal(err)
	}
	if existing.ID == selfID {
		return nil
	}
	return apperr.ValidationFields(apperr.FieldError{Field: "email", Message: "A user with this email already exists."})
}

func (s *Service) issueTokens(u *User) (*TokenPair, error) {
	access, err := s.issuer.IssueAccess(u.ID, u.Username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refresh, err := s.issuer.IssueRefresh(u.ID, u.Username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func invalidCredentialsErr() *apperr.Error {
	return apperr.Unauthorized("No active account found with the given credentials")
}
