// Package repository is the Postgres persistence layer: user accounts, the
// admin allow-list and the per-scope question collections.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"codeceylon/portal/internal/model"
	"codeceylon/portal/internal/scope"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS admins (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS company_questions (
	id           TEXT NOT NULL,
	stack        TEXT NOT NULL,
	district     TEXT NOT NULL,
	company_id   TEXT NOT NULL,
	question     TEXT NOT NULL,
	answer       TEXT NOT NULL,
	company_name TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ,
	PRIMARY KEY (stack, district, company_id, id)
);

CREATE INDEX IF NOT EXISTS company_questions_scope_idx
	ON company_questions (stack, district, company_id, created_at);
`

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) CreateUser(ctx context.Context, u model.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), u.CreatedAt)
	if isUniqueViolation(err) {
		return model.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	var role string
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, role, created_at
		 FROM users WHERE email = $1`,
		email).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("select user: %w", err)
	}
	u.Role = model.Role(role)
	return u, nil
}

func (s *Store) AdminEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admins WHERE email = $1)`,
		email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check admin email: %w", err)
	}
	return exists, nil
}

// CreateAdmin writes the account and its allow-list entry in one
// transaction so neither can exist without the other.
func (s *Store) CreateAdmin(ctx context.Context, u model.User, entry model.AdminEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), u.CreatedAt)
	if isUniqueViolation(err) {
		return model.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO admins (id, email, name, created_at)
		 VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.Email, entry.Name, entry.CreatedAt)
	if isUniqueViolation(err) {
		return model.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert admin entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, sc scope.Scope, rec model.QARecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO company_questions
		 (id, stack, district, company_id, question, answer, company_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, sc.Stack, sc.District, sc.CompanyID,
		rec.Question, rec.Answer, rec.CompanyName, rec.CreatedAt, rec.UpdatedAt)
	if isUniqueViolation(err) {
		return model.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *Store) ListByScope(ctx context.Context, sc scope.Scope) ([]model.QARecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, question, answer, district, company_name, created_at, updated_at
		 FROM company_questions
		 WHERE stack = $1 AND district = $2 AND company_id = $3
		 ORDER BY created_at, id`,
		sc.Stack, sc.District, sc.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	defer rows.Close()

	records := []model.QARecord{}
	for rows.Next() {
		var rec model.QARecord
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.Answer, &rec.District,
			&rec.CompanyName, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return records, nil
}

func (s *Store) Update(ctx context.Context, sc scope.Scope, id, question, answer string, updatedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE company_questions
		 SET question = $1, answer = $2, updated_at = $3
		 WHERE stack = $4 AND district = $5 AND company_id = $6 AND id = $7`,
		question, answer, updatedAt, sc.Stack, sc.District, sc.CompanyID, id)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, sc scope.Scope, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM company_questions
		 WHERE stack = $1 AND district = $2 AND company_id = $3 AND id = $4`,
		sc.Stack, sc.District, sc.CompanyID, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
