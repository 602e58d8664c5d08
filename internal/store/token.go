package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/userdesk/apiserver/types"
)

// TokenRepository handles persistence for API tokens.
type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// FindValidUser resolves a raw token value to its owning user, excluding
// tokens whose expiry has passed. Missing and expired tokens are
// indistinguishable: both return ErrNotFound.
func (r *TokenRepository) FindValidUser(ctx context.Context, token string) (types.User, error) {
	const query = `
		SELECT u.id, u.email, u.phone, u.roles, u.password, u.created_at, u.updated_at
		FROM api_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token = $1 AND t.expires_at > now()`
	var user types.User
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&user.ID,
		&user.Email,
		&user.Phone,
		pq.Array(&user.Roles),
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *TokenRepository) Create(ctx context.Context, token types.ApiToken) (types.ApiToken, error) {
	token.CreatedAt = time.Now()

	const query = `
		INSERT INTO api_tokens (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		token.Token,
		token.UserID,
		token.ExpiresAt,
		token.CreatedAt,
	); err != nil {
		return types.ApiToken{}, err
	}
	return token, nil
}
