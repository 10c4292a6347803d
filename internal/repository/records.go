package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/atinyakov/ItemKeeper/internal/clock"
	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/atinyakov/ItemKeeper/internal/models"
)

// MemoryRecordRepository stores records ordered by id. Ids come from a
// counter that only grows, so a deleted id is never handed out again.
type MemoryRecordRepository struct {
	mu      sync.RWMutex
	clock   clock.Clock
	lastID  int64
	records []models.Record
}

// NewMemoryRecordRepository returns an empty record store.
func NewMemoryRecordRepository(clk clock.Clock) *MemoryRecordRepository {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemoryRecordRepository{clock: clk}
}

// Create stores a new record owned by ownerID.
func (r *MemoryRecordRepository) Create(ctx context.Context, ownerID int64, in models.RecordInput) (*models.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now().UTC()
	r.lastID++
	rec := models.Record{
		ID:          r.lastID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.records = append(r.records, rec)
	return &rec, nil
}

// Get returns the record with id or common.ErrNotFound.
func (r *MemoryRecordRepository) Get(ctx context.Context, id int64) (*models.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.index(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	out := r.records[idx]
	return &out, nil
}

// Update applies the supplied fields of patch and refreshes UpdatedAt.
func (r *MemoryRecordRepository) Update(ctx context.Context, id int64, patch models.RecordPatch) (*models.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.index(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	rec := r.records[idx]
	patch.Apply(&rec)
	rec.UpdatedAt = r.clock.Now().UTC()
	r.records[idx] = rec

	out := rec
	return &out, nil
}

// Delete removes the record with id.
func (r *MemoryRecordRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.index(id)
	if !ok {
		return common.ErrNotFound
	}
	r.records = append(r.records[:idx], r.records[idx+1:]...)
	return nil
}

// Snapshot returns a copy of every record in id order.
func (r *MemoryRecordRepository) Snapshot(ctx context.Context) ([]models.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Record, len(r.records))
	copy(out, r.records)
	return out, nil
}

// Count returns the number of stored records.
func (r *MemoryRecordRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}

// index must be called with the lock held. records is sorted by id because
// ids are minted in increasing order and only ever appended.
func (r *MemoryRecordRepository) index(id int64) (int, bool) {
	i := sort.Search(len(r.records), func(i int) bool { return r.records[i].ID >= id })
	if i < len(r.records) && r.records[i].ID == id {
		return i, true
	}
	return -1, false
}
