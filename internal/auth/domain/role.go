package domain

import "time"

// Role maps a role name to the permissions it grants. Permission names are
// opaque strings to this subsystem; they are resolved once at login and
// cached on the session record.
type Role struct {
	ID          string
	Name        string
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
