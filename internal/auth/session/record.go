// Package session stores server-side session records in Redis, keyed by the
// opaque session id carried in the client cookie.
package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is the current record layout version. Decode rejects any
// other version outright instead of probing fields.
const SchemaVersion = 1

// Record is the server-side session state: the token pair plus the
// principal facts resolved at login so request handling needs no store
// round-trip.
type Record struct {
	SchemaVersion int `json:"schemaVersion"`

	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"` // access-token expiry

	PrincipalID string   `json:"principalId"`
	Username    string   `json:"username"`
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// Expired reports whether the access token is past its logical expiry.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// HasRole reports whether the session's principal holds the role.
func (r *Record) HasRole(role string) bool {
	for _, have := range r.Roles {
		if have == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether any of the principal's roles granted the
// permission at login time.
func (r *Record) HasPermission(permission string) bool {
	for _, have := range r.Permissions {
		if have == permission {
			return true
		}
	}
	return false
}

// Encode serializes the record, stamping the current schema version.
func (r *Record) Encode() ([]byte, error) {
	r.SchemaVersion = SchemaVersion
	return json.Marshal(r)
}

// DecodeRecord parses a stored record, rejecting unknown schema versions.
func DecodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	if r.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported session record schema version %d", r.SchemaVersion)
	}
	return &r, nil
}
