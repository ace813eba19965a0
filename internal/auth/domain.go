package auth

import (
	"sort"
	"time"
)

// RoleName enumerates the seeded role names.
type RoleName string

const (
	RoleAdmin RoleName = "ADMIN"
	RoleUser  RoleName = "USER"
)

// Valid reports whether the name is part of the closed enumeration.
func (r RoleName) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Account represents a registered identity.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role is a named permission group carrying privileges.
type Role struct {
	ID         int64
	Name       RoleName
	Privileges []Privilege
}

// Privilege is an atomic named permission attached to a role.
type Privilege struct {
	ID   int64
	Name string
}

// AuthorityNames flattens the account's roles into the authority set: every
// role name plus every privilege name under those roles, deduplicated.
// Recomputed at authentication time so it reflects current assignments.
func (a *Account) AuthorityNames() []string {
	set := make(map[string]struct{})
	for _, role := range a.Roles {
		set[string(role.Name)] = struct{}{}
		for _, priv := range role.Privileges {
			set[priv.Name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
