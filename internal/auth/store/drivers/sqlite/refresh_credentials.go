package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/opspanel/authd/internal/auth/domain"
	"github.com/opspanel/authd/internal/auth/store"
	"github.com/opspanel/authd/pkg/idx"
)

type refreshCredentialRepo struct {
	q querier
}

// Upsert installs a refresh credential for the principal. The UNIQUE index
// on principal_id makes the conflict clause the rotation primitive: a
// re-login or plain rotation rewrites the existing row rather than
// accumulating credentials.
func (r *refreshCredentialRepo) Upsert(ctx context.Context, principalID, codeHash string, expiresAt time.Time) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO refresh_credentials (id, principal_id, code_hash, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(principal_id) DO UPDATE SET
			code_hash  = excluded.code_hash,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		idx.New().String(), principalID, codeHash,
		expiresAt.UTC().UnixMilli(), now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert refresh credential: %w", err)
	}
	return nil
}

// Rotate is the compare-and-swap variant of Upsert: the update only lands
// when oldHash is still the current code. Zero affected rows means another
// caller rotated first.
func (r *refreshCredentialRepo) Rotate(ctx context.Context, principalID, oldHash, newHash string, expiresAt time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE refresh_credentials
		SET code_hash = ?, expires_at = ?, updated_at = ?
		WHERE principal_id = ? AND code_hash = ?`,
		newHash, expiresAt.UTC().UnixMilli(), time.Now().UTC().UnixMilli(),
		principalID, oldHash,
	)
	if err != nil {
		return fmt.Errorf("rotate refresh credential: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rotate refresh credential: rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrRotationConflict
	}
	return nil
}

func (r *refreshCredentialRepo) FindByCode(ctx context.Context, codeHash string) (*domain.RefreshCredential, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, principal_id, code_hash, expires_at, created_at, updated_at
		FROM refresh_credentials WHERE code_hash = ?`, codeHash)

	var (
		c                               domain.RefreshCredential
		expiresAt, createdAt, updatedAt int64
	)
	err := row.Scan(&c.ID, &c.PrincipalID, &c.CodeHash, &expiresAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan refresh credential: %w", err)
	}
	c.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	c.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &c, nil
}

func (r *refreshCredentialRepo) DeleteByCode(ctx context.Context, codeHash string) error {
	res, err := r.q.ExecContext(ctx,
		"DELETE FROM refresh_credentials WHERE code_hash = ?", codeHash)
	if err != nil {
		return fmt.Errorf("delete refresh credential: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete refresh credential: rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *refreshCredentialRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		"DELETE FROM refresh_credentials WHERE expires_at <= ?", now.UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh credentials: %w", err)
	}
	return res.RowsAffected()
}
