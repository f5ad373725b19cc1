package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"codeceylon/portal/internal/crypto"
	"codeceylon/portal/internal/model"
)

type fakeStore struct {
	users  map[string]model.User
	admins map[string]bool

	createUserErr error
	adminErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]model.User{}, admins: map[string]bool{}}
}

func (f *fakeStore) CreateUser(ctx context.Context, u model.User) error {
	if f.createUserErr != nil {
		return f.createUserErr
	}
	if _, ok := f.users[u.Email]; ok {
		return model.ErrDuplicate
	}
	f.users[u.Email] = u
	return nil
}

func (f *fakeStore) UserByEmail(ctx context.Context, email string) (model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) AdminEmailExists(ctx context.Context, email string) (bool, error) {
	if f.adminErr != nil {
		return false, f.adminErr
	}
	return f.admins[email], nil
}

func (f *fakeStore) CreateAdmin(ctx context.Context, u model.User, entry model.AdminEntry) error {
	if _, ok := f.users[u.Email]; ok {
		return model.ErrDuplicate
	}
	f.users[u.Email] = u
	f.admins[entry.Email] = true
	return nil
}

type fakeRevoker struct {
	revoked map[string]time.Time
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: map[string]time.Time{}}
}

func (f *fakeRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	f.revoked[tokenID] = until
	return nil
}

func (f *fakeRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, ok := f.revoked[tokenID]
	return ok, nil
}

func newTestResolver(store *fakeStore) *Resolver {
	r := NewResolver(store, newFakeRevoker())
	r.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestSignUpCreatesUserRole(t *testing.T) {
	store := newFakeStore()
	r := newTestResolver(store)

	sess, err := r.SignUp(context.Background(), "Amal", "Amal@Example.com ", "secret123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if sess.Role != model.RoleUser {
		t.Fatalf("expected role user, got %q", sess.Role)
	}
	if sess.User.Email != "amal@example.com" {
		t.Fatalf("expected normalized email, got %q", sess.User.Email)
	}
	if sess.User.PasswordHash == "secret123" {
		t.Fatalf("password stored in plaintext")
	}
}

func TestSignUpNeverGrantsAdmin(t *testing.T) {
	store := newFakeStore()
	store.admins["boss@example.com"] = true
	r := newTestResolver(store)

	sess, err := r.SignUp(context.Background(), "Boss", "boss@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if sess.Role != model.RoleUser {
		t.Fatalf("sign-up must not grant admin, got %q", sess.Role)
	}
}

func TestSignUpValidation(t *testing.T) {
	r := newTestResolver(newFakeStore())
	ctx := context.Background()

	cases := []struct {
		name, email, password string
	}{
		{"", "a@example.com", "secret123"},
		{"Amal", "", "secret123"},
		{"Amal", "a@example.com", ""},
	}
	for _, c := range cases {
		_, err := r.SignUp(ctx, c.name, c.email, c.password)
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error for %+v, got %v", c, err)
		}
	}

	if _, err := r.SignUp(ctx, "Amal", "a@example.com", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	r := newTestResolver(newFakeStore())
	ctx := context.Background()

	if _, err := r.SignUp(ctx, "Amal", "a@example.com", "secret123"); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	if _, err := r.SignUp(ctx, "Other", "a@example.com", "secret456"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func seedUser(t *testing.T, store *fakeStore, email, password string) {
	t.Helper()
	hash, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	store.users[email] = model.User{ID: "u-" + email, Email: email, Name: "Seeded", PasswordHash: hash, Role: model.RoleUser}
}

func TestLogInResolvesRoleFromAllowList(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "plain@example.com", "secret123")
	seedUser(t, store, "boss@example.com", "secret123")
	store.admins["boss@example.com"] = true
	r := newTestResolver(store)
	ctx := context.Background()

	sess, err := r.LogIn(ctx, "plain@example.com", "secret123")
	if err != nil {
		t.Fatalf("LogIn: %v", err)
	}
	if sess.Role != model.RoleUser {
		t.Fatalf("expected user role, got %q", sess.Role)
	}

	sess, err = r.LogIn(ctx, "Boss@Example.com", "secret123")
	if err != nil {
		t.Fatalf("LogIn admin: %v", err)
	}
	if sess.Role != model.RoleAdmin {
		t.Fatalf("expected admin role, got %q", sess.Role)
	}
}

func TestLogInBadCredentials(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "plain@example.com", "secret123")
	r := newTestResolver(store)
	ctx := context.Background()

	if _, err := r.LogIn(ctx, "plain@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := r.LogIn(ctx, "nobody@example.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestLogInAsAdminRejectsPlainUser(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "plain@example.com", "secret123")
	r := newTestResolver(store)

	_, err := r.LogInAsAdmin(context.Background(), "plain@example.com", "secret123")
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestLogInAsAdminSucceedsForAllowListed(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "boss@example.com", "secret123")
	store.admins["boss@example.com"] = true
	r := newTestResolver(store)

	sess, err := r.LogInAsAdmin(context.Background(), "boss@example.com", "secret123")
	if err != nil {
		t.Fatalf("LogInAsAdmin: %v", err)
	}
	if sess.Role != model.RoleAdmin {
		t.Fatalf("expected admin role, got %q", sess.Role)
	}
}

func TestCreateAdminWritesIdentityAndEntry(t *testing.T) {
	store := newFakeStore()
	r := newTestResolver(store)
	ctx := context.Background()

	user, err := r.CreateAdmin(ctx, "New Admin", "new@example.com", "secret123")
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if user.Role != model.RoleAdmin {
		t.Fatalf("expected admin role, got %q", user.Role)
	}
	if !store.admins["new@example.com"] {
		t.Fatalf("expected allow-list entry")
	}

	// The fresh admin can now log in through the admin door.
	sess, err := r.LogInAsAdmin(ctx, "new@example.com", "secret123")
	if err != nil {
		t.Fatalf("LogInAsAdmin after CreateAdmin: %v", err)
	}
	if sess.Role != model.RoleAdmin {
		t.Fatalf("expected admin session, got %q", sess.Role)
	}
}

func TestCreateAdminDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "taken@example.com", "secret123")
	r := newTestResolver(store)

	if _, err := r.CreateAdmin(context.Background(), "Dup", "taken@example.com", "secret123"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogOutRevokesToken(t *testing.T) {
	store := newFakeStore()
	revoker := newFakeRevoker()
	r := NewResolver(store, revoker)

	until := time.Now().Add(time.Hour)
	if err := r.LogOut(context.Background(), "tok-1", until); err != nil {
		t.Fatalf("LogOut: %v", err)
	}
	revoked, _ := revoker.IsRevoked(context.Background(), "tok-1")
	if !revoked {
		t.Fatalf("expected token to be revoked")
	}
}
