package sqlite

import (
	"database/sql"

	"github.com/opspanel/authd/internal/auth/store"
)

type tx struct {
	tx *sql.Tx
}

var _ store.Tx = (*tx)(nil)

func (t *tx) Principals() store.PrincipalRepository {
	return &principalRepo{q: t.tx}
}

func (t *tx) Roles() store.RoleRepository {
	return &roleRepo{q: t.tx}
}

func (t *tx) RefreshCredentials() store.RefreshCredentialRepository {
	return &refreshCredentialRepo{q: t.tx}
}
