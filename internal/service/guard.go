package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/atinyakov/ItemKeeper/internal/models"
	"github.com/atinyakov/ItemKeeper/internal/token"
)

// TokenDecoder validates raw tokens.
type TokenDecoder interface {
	Decode(raw string) (token.Claims, error)
}

// SubjectResolver finds the account a token subject names.
type SubjectResolver interface {
	ByUsername(ctx context.Context, username string) (*models.Account, error)
}

// Guard resolves the calling account from a presented token and enforces
// record ownership.
type Guard struct {
	tokens   TokenDecoder
	accounts SubjectResolver
}

// NewGuard constructs a Guard.
func NewGuard(tokens TokenDecoder, accounts SubjectResolver) *Guard {
	return &Guard{tokens: tokens, accounts: accounts}
}

// ResolveRequired returns the active account named by raw. It fails with
// common.ErrMissingToken for an empty token, with common.ErrMalformedToken or
// common.ErrExpiredToken when decoding fails, and with
// common.ErrUnknownSubject when the subject no longer names an active account.
func (g *Guard) ResolveRequired(ctx context.Context, raw string) (*models.Account, error) {
	if raw == "" {
		return nil, common.ErrMissingToken
	}

	claims, err := g.tokens.Decode(raw)
	if err != nil {
		return nil, err
	}

	account, err := g.accounts.ByUsername(ctx, claims.Subject)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownSubject, claims.Subject)
	}
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, fmt.Errorf("%w: %q is inactive", common.ErrUnknownSubject, claims.Subject)
	}
	return account, nil
}

// ResolveOptional behaves like ResolveRequired but reports any failure as an
// anonymous caller (nil account).
func (g *Guard) ResolveOptional(ctx context.Context, raw string) *models.Account {
	account, err := g.ResolveRequired(ctx, raw)
	if err != nil {
		return nil
	}
	return account
}

// RequireOwnership fails with common.ErrForbidden unless account owns record.
func RequireOwnership(record *models.Record, account *models.Account) error {
	if account == nil || record.OwnerID != account.ID {
		return common.ErrForbidden
	}
	return nil
}
