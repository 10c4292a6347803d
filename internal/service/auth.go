// Package service provides the business logic for accounts, access tokens
// and owned items, delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/atinyakov/ItemKeeper/internal/models"
	"github.com/atinyakov/ItemKeeper/internal/token"
	"go.uber.org/zap"
)

// AccountRepository defines the persistence operations
// required by the account and guard services.
type AccountRepository interface {
	// Create inserts a new account, failing with common.ErrDuplicateUsername
	// or common.ErrDuplicateEmail.
	Create(ctx context.Context, a models.Account) (*models.Account, error)
	ByID(ctx context.Context, id int64) (*models.Account, error)
	ByUsername(ctx context.Context, username string) (*models.Account, error)
	// List returns one page in insertion order and the total number of accounts.
	List(ctx context.Context, offset, limit int) ([]models.Account, int, error)
	Update(ctx context.Context, id int64, patch models.AccountPatch) (*models.Account, error)
	Count(ctx context.Context) (int, error)
}

// PasswordHasher turns secrets into stored representations and checks them.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, representation string) bool
}

// TokenIssuer mints access tokens for a subject.
type TokenIssuer interface {
	Issue(subject string) (string, token.Claims, error)
	TTL() time.Duration
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64     `json:"expires_in"`
	ExpiresAt time.Time `json:"-"`
}

// AuthService implements registration, login and profile operations.
type AuthService struct {
	repo   AccountRepository
	hasher PasswordHasher
	tokens TokenIssuer
	log    *zap.Logger
}

// NewAuthService constructs an AuthService. A nil logger disables logging.
func NewAuthService(repo AccountRepository, hasher PasswordHasher, tokens TokenIssuer, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, log: log}
}

// Register validates reg, hashes its password and stores a new active account.
func (s *AuthService) Register(ctx context.Context, reg models.Registration) (*models.Account, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.repo.Create(ctx, models.Account{
		Username:     reg.Username,
		Email:        reg.Email,
		FullName:     reg.FullName,
		PasswordHash: hash,
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("account registered",
		zap.Int64("account_id", account.ID),
		zap.String("username", account.Username))
	return account, nil
}

// Login checks the credentials and issues a token for the account. Unknown
// usernames, wrong passwords and inactive accounts all yield
// common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	account, err := s.repo.ByUsername(ctx, username)
	if errors.Is(err, common.ErrNotFound) {
		s.log.Info("login rejected", zap.String("username", username), zap.String("reason", "unknown user"))
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		s.log.Info("login rejected", zap.String("username", username), zap.String("reason", "bad password"))
		return nil, common.ErrInvalidCredentials
	}
	if !account.IsActive {
		s.log.Info("login rejected", zap.String("username", username), zap.String("reason", "inactive"))
		return nil, common.ErrInvalidCredentials
	}

	raw, claims, err := s.tokens.Issue(account.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.log.Info("login succeeded", zap.Int64("account_id", account.ID), zap.String("username", account.Username))
	return &Session{
		AccessToken: raw,
		TokenType:   token.Type,
		ExpiresIn:   int64(s.tokens.TTL() / time.Second),
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

// UpdateProfile applies patch to the account with id. Changing the username
// or deactivating the account makes previously issued tokens unusable.
func (s *AuthService) UpdateProfile(ctx context.Context, id int64, patch models.AccountPatch) (*models.Account, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	account, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.log.Info("profile updated", zap.Int64("account_id", id))
	return account, nil
}

// ListAccounts returns one page of accounts and the total count.
func (s *AuthService) ListAccounts(ctx context.Context, offset, limit int) ([]models.Account, int, error) {
	return s.repo.List(ctx, offset, limit)
}

// GetAccount returns the account with id or common.ErrNotFound.
func (s *AuthService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	return s.repo.ByID(ctx, id)
}

// CountAccounts returns the number of registered accounts.
func (s *AuthService) CountAccounts(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
