package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/userdesk/apiserver/types"
)

// tokenBytes gives 56 hex characters per token.
const tokenBytes = 28

// TokenRepository defines persistence operations for API tokens.
type TokenRepository interface {
	FindValidUser(ctx context.Context, token string) (types.User, error)
	Create(ctx context.Context, token types.ApiToken) (types.ApiToken, error)
}

// TokenService resolves bearer credentials and issues new tokens.
type TokenService struct {
	repo TokenRepository
}

func NewTokenService(repo TokenRepository) *TokenService {
	return &TokenService{repo: repo}
}

// Resolve maps a raw token value to the principal it authenticates.
// Unknown and expired tokens both come back as store.ErrNotFound.
func (s *TokenService) Resolve(ctx context.Context, token string) (types.Principal, error) {
	user, err := s.repo.FindValidUser(ctx, token)
	if err != nil {
		return types.Principal{}, err
	}
	return types.Principal{
		UserID: user.ID,
		Roles:  user.Roles,
	}, nil
}

// Issue creates a token for the user, valid for the given number of days.
func (s *TokenService) Issue(ctx context.Context, userID int, days int) (types.ApiToken, error) {
	value, err := newTokenValue()
	if err != nil {
		return types.ApiToken{}, err
	}
	token := types.ApiToken{
		Token:     value,
		UserID:    userID,
		ExpiresAt: time.Now().AddDate(0, 0, days),
	}
	return s.repo.Create(ctx, token)
}

func newTokenValue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
