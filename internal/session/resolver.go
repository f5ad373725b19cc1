// Package session resolves who the caller is and which of the three roles
// (anonymous, user, admin) their session carries. Roles are decided once,
// at sign-up or login, against the admin allow-list; nothing re-evaluates
// them mid-session.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"codeceylon/portal/internal/auth"
	"codeceylon/portal/internal/crypto"
	"codeceylon/portal/internal/model"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrWeakPassword       = errors.New("password too short")
)

const minPasswordLen = 6

// Store is the persistence surface the resolver needs.
type Store interface {
	CreateUser(ctx context.Context, u model.User) error
	UserByEmail(ctx context.Context, email string) (model.User, error)
	AdminEmailExists(ctx context.Context, email string) (bool, error)
	// CreateAdmin persists the identity and the allow-list entry together,
	// so a crash cannot leave an admin identity without its entry.
	CreateAdmin(ctx context.Context, u model.User, entry model.AdminEntry) error
}

// Session is a resolved identity plus the role fixed for its lifetime.
type Session struct {
	User model.User
	Role model.Role
}

type Resolver struct {
	store   Store
	revoker auth.Revoker
	now     func() time.Time
}

func NewResolver(store Store, revoker auth.Revoker) *Resolver {
	return &Resolver{store: store, revoker: revoker, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a new account. Sign-up never consults the allow-list:
// a fresh registration always starts as a plain user, even if the email
// happens to match an admin entry.
func (r *Resolver) SignUp(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return Session{}, &model.ValidationError{Field: "name"}
	}
	if email == "" {
		return Session{}, &model.ValidationError{Field: "email"}
	}
	if password == "" {
		return Session{}, &model.ValidationError{Field: "password"}
	}
	if len(password) < minPasswordLen {
		return Session{}, ErrWeakPassword
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    r.now().UTC(),
	}
	if err := r.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	return Session{User: user, Role: model.RoleUser}, nil
}

// LogIn verifies the credentials and resolves the role for the new session:
// admin when the email matches an allow-list entry, user otherwise.
func (r *Resolver) LogIn(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, &model.ValidationError{Field: "email"}
	}

	user, err := r.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := crypto.CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	role := model.RoleUser
	isAdmin, err := r.store.AdminEmailExists(ctx, email)
	if err != nil {
		return Session{}, fmt.Errorf("check admin entry: %w", err)
	}
	if isAdmin {
		role = model.RoleAdmin
	}
	return Session{User: user, Role: role}, nil
}

// LogInAsAdmin is LogIn plus the requirement that the resolved role is
// admin. A correct password on a non-admin account authenticates nobody:
// no session is established.
func (r *Resolver) LogInAsAdmin(ctx context.Context, email, password string) (Session, error) {
	sess, err := r.LogIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	if sess.Role != model.RoleAdmin {
		return Session{}, ErrNotAuthorized
	}
	return sess, nil
}

// CreateAdmin provisions a new admin: the account and its allow-list entry
// are written in one transaction. Caller authorization is the transport
// layer's job.
func (r *Resolver) CreateAdmin(ctx context.Context, name, email, password string) (model.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return model.User{}, &model.ValidationError{Field: "name"}
	}
	if email == "" {
		return model.User{}, &model.ValidationError{Field: "email"}
	}
	if password == "" {
		return model.User{}, &model.ValidationError{Field: "password"}
	}
	if len(password) < minPasswordLen {
		return model.User{}, ErrWeakPassword
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := r.now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
	}
	entry := model.AdminEntry{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
	}
	if err := r.store.CreateAdmin(ctx, user, entry); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("create admin: %w", err)
	}
	return user, nil
}

// LogOut revokes the presented token for the remainder of its lifetime.
// After this the bearer is anonymous again.
func (r *Resolver) LogOut(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return nil
	}
	return r.revoker.Revoke(ctx, tokenID, expiresAt)
}
