package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"accounthub/api/internal/models"
)

var ErrTokenNotFound = errors.New("token not found")

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Append records a newly issued token. A single INSERT, so concurrent
// logins for the same user never clobber each other.
func (r *TokenRepository) Append(ctx context.Context, token models.SessionToken) error {
	const query = `
		INSERT INTO user_tokens (
			id, user_id, token_hash, created_at, expires_at
		) VALUES (
			$1, $2, $3, NOW(), $4
		)
	`
	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
	)
	return err
}

func (r *TokenRepository) Exists(ctx context.Context, userID string, tokenHash []byte) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM user_tokens
			WHERE user_id = $1 AND token_hash = $2 AND expires_at > NOW()
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, tokenHash).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Remove revokes exactly one token, leaving the user's other sessions live.
func (r *TokenRepository) Remove(ctx context.Context, userID string, tokenHash []byte) error {
	const query = `DELETE FROM user_tokens WHERE user_id = $1 AND token_hash = $2`
	cmd, err := r.pool.Exec(ctx, query, userID, tokenHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (r *TokenRepository) Clear(ctx context.Context, userID string) error {
	const query = `DELETE FROM user_tokens WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

// DeleteExpired reaps tokens past their TTL; run by the scheduler.
func (r *TokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM user_tokens WHERE expires_at <= NOW()`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
