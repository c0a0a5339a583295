package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opspanel/authd/internal/auth/domain"
	"github.com/opspanel/authd/internal/auth/store"
)

type roleRepo struct {
	q querier
}

func (r *roleRepo) GetRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, name, permissions, created_at, updated_at
		FROM roles WHERE name = ?`, name)

	var (
		role                 domain.Role
		permissions          string
		createdAt, updatedAt int64
	)
	err := row.Scan(&role.ID, &role.Name, &permissions, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan role: %w", err)
	}
	role.Permissions = splitFields(permissions)
	role.CreatedAt = time.UnixMilli(createdAt).UTC()
	role.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &role, nil
}

func (r *roleRepo) CreateRole(ctx context.Context, role *domain.Role) error {
	now := time.Now().UTC()
	role.CreatedAt = now
	role.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO roles (id, name, permissions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		role.ID, role.Name, strings.Join(role.Permissions, " "),
		now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}
