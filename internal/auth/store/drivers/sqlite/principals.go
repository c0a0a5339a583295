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

type principalRepo struct {
	q querier
}

const principalColumns = "id, username, email, password_hash, roles, created_at, updated_at"

func (r *principalRepo) GetPrincipalByID(ctx context.Context, id string) (*domain.Principal, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT "+principalColumns+" FROM principals WHERE id = ?", id)
	return scanPrincipal(row)
}

func (r *principalRepo) GetPrincipalByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT "+principalColumns+" FROM principals WHERE username = ?", username)
	return scanPrincipal(row)
}

func (r *principalRepo) CreatePrincipal(ctx context.Context, p *domain.Principal) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO principals (id, username, email, password_hash, roles, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Username, p.Email, p.PasswordHash,
		strings.Join(p.Roles, " "),
		now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert principal: %w", err)
	}
	return nil
}

func scanPrincipal(row *sql.Row) (*domain.Principal, error) {
	var (
		p                    domain.Principal
		roles                string
		createdAt, updatedAt int64
	)
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.PasswordHash, &roles, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan principal: %w", err)
	}
	p.Roles = splitFields(roles)
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	p.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &p, nil
}

// splitFields splits a space-joined list column, nil for empty.
func splitFields(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}
