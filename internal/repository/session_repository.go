package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"siteforge/api/internal/models"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts a new session row. The user's already-expired sessions are
// purged first; there is no background sweeper, cleanup rides along with
// every login.
func (r *SessionRepository) Create(ctx context.Context, session models.Session) error {
	purge := `DELETE FROM sessions WHERE user_id = $1 AND expires_at <= NOW()`
	if _, err := r.pool.Exec(ctx, purge, session.UserID); err != nil {
		return err
	}

	const query = `
		INSERT INTO sessions (id, user_id, refresh_token_hash, ip_address, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6)
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.RefreshTokenHash,
		session.IPAddress,
		session.UserAgent,
		session.ExpiresAt,
	)
	return err
}

// Rotate atomically retires the session matching oldHash and inserts its
// replacement. Of two concurrent calls holding the same stale token exactly
// one sees the DELETE hit a row; the other gets ErrSessionNotFound, which is
// the replay signal.
func (r *SessionRepository) Rotate(ctx context.Context, oldHash []byte, replacement models.Session) (models.Session, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.Session{}, err
	}
	defer tx.Rollback(ctx)

	const retire = `
		DELETE FROM sessions
		WHERE refresh_token_hash = $1 AND expires_at > NOW()
		RETURNING id, user_id, refresh_token_hash, ip_address, user_agent, created_at, expires_at
	`
	row := tx.QueryRow(ctx, retire, oldHash)

	var old models.Session
	if err := row.Scan(
		&old.ID,
		&old.UserID,
		&old.RefreshTokenHash,
		&old.IPAddress,
		&old.UserAgent,
		&old.CreatedAt,
		&old.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}

	const insert = `
		INSERT INTO sessions (id, user_id, refresh_token_hash, ip_address, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6)
	`
	if _, err := tx.Exec(ctx, insert,
		replacement.ID,
		replacement.UserID,
		replacement.RefreshTokenHash,
		replacement.IPAddress,
		replacement.UserAgent,
		replacement.ExpiresAt,
	); err != nil {
		return models.Session{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Session{}, err
	}
	return old, nil
}

// DeleteByHash revokes one session. Deleting an absent row is not an error;
// logout is idempotent.
func (r *SessionRepository) DeleteByHash(ctx context.Context, userID string, hash []byte) error {
	const query = `DELETE FROM sessions WHERE user_id = $1 AND refresh_token_hash = $2`
	_, err := r.pool.Exec(ctx, query, userID, hash)
	return err
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM sessions WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]models.Session, error) {
	const query = `
		SELECT id, user_id, refresh_token_hash, ip_address, user_agent, created_at, expires_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.RefreshTokenHash,
			&session.IPAddress,
			&session.UserAgent,
			&session.CreatedAt,
			&session.ExpiresAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// DeleteExpired drops every lapsed session across all users; the scheduler
// runs it so the table does not accumulate rows for users who never log in
// again.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
