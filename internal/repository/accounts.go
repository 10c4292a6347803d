// Package repository provides the in-memory stores for accounts and records.
// Each store owns its collection and a lock; callers only ever receive copies.
package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/atinyakov/ItemKeeper/internal/clock"
	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/atinyakov/ItemKeeper/internal/models"
)

// MaxPageSize bounds account listing.
const MaxPageSize = 100

// MemoryAccountRepository stores accounts in insertion order and indexes them
// by id, username and email. Uniqueness checks run under the same write lock
// as the insert they guard.
type MemoryAccountRepository struct {
	mu         sync.RWMutex
	clock      clock.Clock
	lastID     int64
	accounts   []models.Account
	byID       map[int64]int
	byUsername map[string]int64
	byEmail    map[string]int64
}

// NewMemoryAccountRepository returns an empty account store.
func NewMemoryAccountRepository(clk clock.Clock) *MemoryAccountRepository {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemoryAccountRepository{
		clock:      clk,
		byID:       make(map[int64]int),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
	}
}

// emailKey folds case so that "A@x.com" and "a@x.com" collide.
func emailKey(email string) string { return strings.ToLower(email) }

// Create inserts a, assigning its ID and, when unset, its creation time.
// It fails with common.ErrDuplicateUsername or common.ErrDuplicateEmail if
// either natural key is taken at the moment of the insert.
func (r *MemoryAccountRepository) Create(ctx context.Context, a models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[a.Username]; taken {
		return nil, common.ErrDuplicateUsername
	}
	if _, taken := r.byEmail[emailKey(a.Email)]; taken {
		return nil, common.ErrDuplicateEmail
	}

	r.lastID++
	a.ID = r.lastID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.clock.Now().UTC()
	}

	r.accounts = append(r.accounts, a)
	r.byID[a.ID] = len(r.accounts) - 1
	r.byUsername[a.Username] = a.ID
	r.byEmail[emailKey(a.Email)] = a.ID

	out := a
	return &out, nil
}

// ByID returns the account with id or common.ErrNotFound.
func (r *MemoryAccountRepository) ByID(ctx context.Context, id int64) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(id)
}

// ByUsername returns the account registered under username (case-sensitive).
func (r *MemoryAccountRepository) ByUsername(ctx context.Context, username string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUsername[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.lookup(id)
}

// ByEmail returns the account registered under email (case-insensitive).
func (r *MemoryAccountRepository) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.lookup(id)
}

// lookup must be called with the lock held.
func (r *MemoryAccountRepository) lookup(id int64) (*models.Account, error) {
	idx, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := r.accounts[idx]
	return &out, nil
}

// List returns one page of accounts in insertion order and the total count.
// offset is clamped to >= 0 and limit to [1, MaxPageSize].
func (r *MemoryAccountRepository) List(ctx context.Context, offset, limit int) ([]models.Account, int, error) {
	offset, limit = ClampPage(offset, limit)

	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.accounts)
	if offset >= total {
		return []models.Account{}, total, nil
	}
	end := min(offset+limit, total)
	page := make([]models.Account, end-offset)
	copy(page, r.accounts[offset:end])
	return page, total, nil
}

// Update applies patch to the account with id. Username and email changes are
// checked for uniqueness against every other account under the write lock.
func (r *MemoryAccountRepository) Update(ctx context.Context, id int64, patch models.AccountPatch) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	current := r.accounts[idx]

	if patch.Username != nil && *patch.Username != current.Username {
		if _, taken := r.byUsername[*patch.Username]; taken {
			return nil, common.ErrDuplicateUsername
		}
	}
	if patch.Email != nil && emailKey(*patch.Email) != emailKey(current.Email) {
		if _, taken := r.byEmail[emailKey(*patch.Email)]; taken {
			return nil, common.ErrDuplicateEmail
		}
	}

	updated := current
	patch.Apply(&updated)

	delete(r.byUsername, current.Username)
	delete(r.byEmail, emailKey(current.Email))
	r.byUsername[updated.Username] = id
	r.byEmail[emailKey(updated.Email)] = id
	r.accounts[idx] = updated

	out := updated
	return &out, nil
}

// Count returns the number of stored accounts.
func (r *MemoryAccountRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts), nil
}

// ClampPage normalizes pagination input: offset >= 0, limit in [1, MaxPageSize].
func ClampPage(offset, limit int) (int, int) {
	return max(offset, 0), min(max(limit, 1), MaxPageSize)
}
