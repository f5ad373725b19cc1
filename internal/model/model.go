package model

import "time"

// Role is the closed set of visitor roles. It is computed in exactly one
// place (the session resolver) and carried in the signed session token.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAnonymous, RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// AdminEntry is one row of the admin allow-list. An identity is an admin
// if and only if an entry with a matching email exists.
type AdminEntry struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

type QARecord struct {
	ID          string
	Question    string
	Answer      string
	District    string
	CompanyName string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
