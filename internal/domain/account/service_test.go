package account

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/caretrack/caretrack/internal/platform/apperr"
	"github.com/caretrack/caretrack/internal/platform/auth"
)

type memUsers struct {
	rows map[uuid.UUID]*User
}

func newMemUsers() *memUsers {
	return &memUsers{rows: make(map[uuid.UUID]*User)}
}

func (m *memUsers) Create(_ context.Context, u *User) error {
	for _, existing := range m.rows {
		if existing.Username == u.Username {
			return ErrDuplicateUsername
		}
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	u.ID = uuid.New()
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.rows {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memUsers) Update(_ context.Context, u *User) error {
	existing, ok := m.rows[u.ID]
	if !ok {
		return ErrNotFound
	}
	for _, other := range m.rows {
		if other.ID != u.ID && other.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	existing.Email = u.Email
	existing.FirstName = u.FirstName
	existing.LastName = u.LastName
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func newTestService() (*Service, *memUsers, *auth.TokenIssuer) {
	users := newMemUsers()
	issuer := auth.NewTokenIssuer("unit-test-signing-secret", 15*time.Minute, 24*time.Hour)
	return NewService(users, issuer), users, issuer
}

func testRegisterInput() RegisterInput {
	return RegisterInput{
		Username:        "testuser",
		Email:           "test@example.com",
		Password:        "testpass123",
		PasswordConfirm: "testpass123",
		FirstName:       "Test",
		LastName:        "User",
	}
}

func wantKind(t *testing.T, err error, kind apperr.Kind) *apperr.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected apperr.Error, got %T: %v", err, err)
	}
	if appErr.Kind != kind {
		t.Fatalf("expected kind %s, got %s (%v)", kind, appErr.Kind, appErr)
	}
	return appErr
}

func TestRegister(t *testing.T) {
	svc, users, _ := newTestService()

	u, err := svc.Register(context.Background(), testRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == uuid.Nil {
		t.Fatal("expected assigned id")
	}
	if u.PasswordHash == "" || u.PasswordHash == "testpass123" {
		t.Fatal("password must be stored hashed")
	}

	stored, err := users.GetByUsername(context.Background(), "testuser")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.Email != "test@example.com" {
		t.Fatalf("unexpected stored user %+v", stored)
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	svc, _, _ := newTestService()

	in := testRegisterInput()
	in.PasswordConfirm = "differentpassword"
	_, err := svc.Register(context.Background(), in)
	appErr := wantKind(t, err, apperr.KindValidation)
	if len(appErr.Details) == 0 || appErr.Details[0].Field != "password_confirm" {
		t.Fatalf("unexpected details %+v", appErr.Details)
	}
}

func TestRegisterShortPassword(t *testing.T) {
	svc, _, _ := newTestService()

	in := testRegisterInput()
	in.Password = "short"
	in.PasswordConfirm = "short"
	_, err := svc.Register(context.Background(), in)
	wantKind(t, err, apperr.KindValidation)
}

func TestRegisterDuplicates(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, testRegisterInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	in := testRegisterInput()
	in.Email = "other@example.com"
	_, err := svc.Register(ctx, in)
	appErr := wantKind(t, err, apperr.KindValidation)
	if appErr.Details[0].Field != "username" {
		t.Fatalf("unexpected details %+v", appErr.Details)
	}

	in = testRegisterInput()
	in.Username = "otheruser"
	_, err = svc.Register(ctx, in)
	appErr = wantKind(t, err, apperr.KindValidation)
	if appErr.Details[0].Field != "email" {
		t.Fatalf("unexpected details %+v", appErr.Details)
	}
}

func TestLogin(t *testing.T) {
	svc, _, issuer := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, testRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	pair, u, err := svc.Login(ctx, "testuser", "testpass123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.ID != registered.ID {
		t.Fatalf("expected user %s, got %s", registered.ID, u.ID)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("expected both tokens")
	}

	claims, err := issuer.ValidateAccess(pair.Access)
	if err != nil {
		t.Fatalf("access token should validate: %v", err)
	}
	if claims.UserID() != registered.ID || claims.Username != "testuser" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, err := issuer.ValidateRefresh(pair.Refresh); err != nil {
		t.Fatalf("refresh token should validate: %v", err)
	}
	if _, err := issuer.ValidateAccess(pair.Refresh); err == nil {
		t.Fatal("refresh token must not pass as access token")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, testRegisterInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := svc.Login(ctx, "nonexistent", "wrongpassword")
	wantKind(t, err, apperr.KindUnauthorized)

	_, _, err = svc.Login(ctx, "testuser", "wrongpassword")
	wantKind(t, err, apperr.KindUnauthorized)
}

func TestRefresh(t *testing.T) {
	svc, _, issuer := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, testRegisterInput()); err != nil {
		t.Fatalf("register: %v", err)
	}
	pair, _, err := svc.Login(ctx, "testuser", "testpass123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	access, err := svc.Refresh(ctx, pair.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := issuer.ValidateAccess(access); err != nil {
		t.Fatalf("refreshed access token should validate: %v", err)
	}

	// An access token is not accepted in place of a refresh token.
	_, err = svc.Refresh(ctx, pair.Access)
	wantKind(t, err, apperr.KindUnauthorized)

	_, err = svc.Refresh(ctx, "garbage")
	wantKind(t, err, apperr.KindUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, testRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	first := "Updated"
	last := "Name"
	email := "updated@example.com"
	updated, err := svc.UpdateProfile(ctx, u.ID, ProfileInput{FirstName: &first, LastName: &last, Email: &email})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FirstName != "Updated" || updated.LastName != "Name" || updated.Email != "updated@example.com" {
		t.Fatalf("unexpected profile %+v", updated)
	}

	stored, _ := users.GetByID(ctx, u.ID)
	if stored.Email != "updated@example.com" {
		t.Fatalf("update not persisted: %+v", stored)
	}
}

func TestUpdateProfileDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, testRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	other := testRegisterInput()
	other.Username = "otheruser"
	other.Email = "other@example.com"
	if _, err := svc.Register(ctx, other); err != nil {
		t.Fatalf("register: %v", err)
	}

	taken := "other@example.com"
	_, err = svc.UpdateProfile(ctx, u.ID, ProfileInput{Email: &taken})
	appErr := wantKind(t, err, apperr.KindValidation)
	if appErr.Details[0].Field != "email" {
		t.Fatalf("unexpected details %+v", appErr.Details)
	}

	// Keeping the current address is not a conflict.
	own := "test@example.com"
	if _, err := svc.UpdateProfile(ctx, u.ID, ProfileInput{Email: &own}); err != nil {
		t.Fatalf("self-update with unchanged email should succeed: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, testRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	before, _ := users.GetByID(ctx, u.ID)

	err = svc.ChangePassword(ctx, u.ID, "wrongpassword", "newpassword123")
	appErr := wantKind(t, err, apperr.KindValidation)
	if appErr.Details[0].Message != "Old password is incorrect" {
		t.Fatalf("unexpected details %+v", appErr.Details)
	}
	after, _ := users.GetByID(ctx, u.ID)
	if after.PasswordHash != before.PasswordHash {
		t.Fatal("hash must be unchanged after a failed change")
	}

	if err := svc.ChangePassword(ctx, u.ID, "testpass123", "newpassword123"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, _, err := svc.Login(ctx, "testuser", "newpassword123"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := svc.Login(ctx, "testuser", "testpass123"); err == nil {
		t.Fatal("old password must no longer authenticate")
	}
}

func TestUserJSONOmitsPasswordHash(t *testing.T) {
	svc, _, _ := newTestService()

	u, err := svc.Register(context.Background(), testRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	raw, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "password") || strings.Contains(string(raw), u.PasswordHash) {
		t.Fatalf("serialized user leaks password material: %s", raw)
	}
}
