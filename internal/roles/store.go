// Package roles provides the authoritative role store. Roles are looked
// up here on every gated request; client-supplied metadata is never
// trusted.
package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-hq/atrium/internal/authz"
)

// Store defines role persistence operations.
type Store interface {
	// GetRole returns the user's role and whether one is recorded.
	GetRole(ctx context.Context, userID string) (authz.Role, bool, error)
	// SetRole records a role for the user without overwriting an
	// existing assignment.
	SetRole(ctx context.Context, userID string, role authz.Role) error
}

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// GetRole fetches the recorded role for a user.
func (s *PGStore) GetRole(ctx context.Context, userID string) (authz.Role, bool, error) {
	const query = `SELECT role FROM user_roles WHERE user_id = $1`
	var name string
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return authz.ParseRole(name), true, nil
}

// SetRole inserts a role assignment. An existing assignment wins: backfill
// must never clobber an explicit role change.
func (s *PGStore) SetRole(ctx context.Context, userID string, role authz.Role) error {
	const query = `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`
	_, err := s.pool.Exec(ctx, query, userID, string(role))
	return err
}

var _ Store = (*PGStore)(nil)
