package session

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var postgresSchema string

// uniqueViolation is the SQLSTATE for a primary key collision.
const uniqueViolation = "23505"

// PostgresBackend stores records in the auth_sessions table.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend returns a backend over pool. Call EnsureSchema once at startup.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

// EnsureSchema creates the table and index if they do not exist.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.pool.Exec(ctx, postgresSchema); err != nil {
		return unavailable(err)
	}
	return nil
}

func (b *PostgresBackend) Insert(ctx context.Context, rec *Record) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO auth_sessions (session_id, user_id, user_name, secret_hash, issued_at, expires_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	`, rec.SessionID, rec.UserID, rec.DisplayName, rec.SecretHash[:], rec.IssuedAt, rec.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSessionExists
		}
		return unavailable(err)
	}
	return nil
}

func (b *PostgresBackend) Get(ctx context.Context, sessionID string) (*Record, error) {
	var (
		rec       Record
		hash      []byte
		revokedAt *time.Time
	)

	err := b.pool.QueryRow(ctx, `
		SELECT session_id, user_id, user_name, secret_hash, issued_at, expires_at, revoked, revoked_at
		FROM auth_sessions
		WHERE session_id = $1
	`, sessionID).Scan(
		&rec.SessionID,
		&rec.UserID,
		&rec.DisplayName,
		&hash,
		&rec.IssuedAt,
		&rec.ExpiresAt,
		&rec.Revoked,
		&revokedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	if len(hash) != len(rec.SecretHash) {
		return nil, ErrRecordCorrupt
	}
	copy(rec.SecretHash[:], hash)
	if revokedAt != nil {
		rec.RevokedAt = *revokedAt
	}

	return &rec, nil
}

// Revoke is a single conditional UPDATE; the row lock makes concurrent revokes serialise
// and only the first one reports a transition.
func (b *PostgresBackend) Revoke(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	tag, err := b.pool.Exec(ctx, `
		UPDATE auth_sessions
		SET revoked = TRUE, revoked_at = $2
		WHERE session_id = $1 AND revoked = FALSE
	`, sessionID, at)
	if err != nil {
		return false, unavailable(err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	err = b.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM auth_sessions WHERE session_id = $1)`, sessionID).Scan(&exists)
	if err != nil {
		return false, unavailable(err)
	}
	if !exists {
		return false, ErrSessionNotFound
	}
	return false, nil
}

func (b *PostgresBackend) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := b.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, unavailable(err)
	}
	return int(tag.RowsAffected()), nil
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	if err := b.pool.Ping(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}
