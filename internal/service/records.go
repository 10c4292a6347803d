package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/atinyakov/ItemKeeper/internal/models"
	"github.com/atinyakov/ItemKeeper/internal/query"
	"go.uber.org/zap"
)

// RecordRepository defines the persistence operations needed by the RecordService.
type RecordRepository interface {
	// Create stores a new record owned by ownerID.
	Create(ctx context.Context, ownerID int64, in models.RecordInput) (*models.Record, error)
	// Get fetches a single record or fails with common.ErrNotFound.
	Get(ctx context.Context, id int64) (*models.Record, error)
	// Update applies the supplied fields and refreshes the update time.
	Update(ctx context.Context, id int64, patch models.RecordPatch) (*models.Record, error)
	// Delete removes the record or fails with common.ErrNotFound.
	Delete(ctx context.Context, id int64) error
	// Snapshot returns a consistent copy of every record in id order.
	Snapshot(ctx context.Context) ([]models.Record, error)
	Count(ctx context.Context) (int, error)
}

// OwnerLookup confirms that an owning account exists.
type OwnerLookup interface {
	ByID(ctx context.Context, id int64) (*models.Account, error)
}

// Stats summarizes the stored items from one caller's point of view.
type Stats struct {
	TotalItems   int            `json:"total_items"`
	YourItems    int            `json:"your_items"`
	Categories   map[string]int `json:"categories"`
	AveragePrice float64        `json:"average_price"`
}

// RecordService implements item business logic with ownership enforcement.
type RecordService struct {
	repo   RecordRepository
	owners OwnerLookup
	log    *zap.Logger
}

// NewRecordService constructs a RecordService. A nil logger disables logging.
func NewRecordService(repo RecordRepository, owners OwnerLookup, log *zap.Logger) *RecordService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecordService{repo: repo, owners: owners, log: log}
}

// Create validates in and stores it with caller as owner.
func (s *RecordService) Create(ctx context.Context, caller *models.Account, in models.RecordInput) (*models.Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.owners.ByID(ctx, caller.ID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: owner %d", common.ErrUnknownSubject, caller.ID)
		}
		return nil, err
	}

	record, err := s.repo.Create(ctx, caller.ID, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("item created",
		zap.Int64("item_id", record.ID),
		zap.String("name", record.Name),
		zap.String("username", caller.Username))
	return record, nil
}

// Get returns the record with id.
func (s *RecordService) Get(ctx context.Context, id int64) (*models.Record, error) {
	return s.repo.Get(ctx, id)
}

// Update applies patch to the record with id if caller owns it.
func (s *RecordService) Update(ctx context.Context, caller *models.Account, id int64, patch models.RecordPatch) (*models.Record, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireOwnership(current, caller); err != nil {
		s.log.Warn("item update refused", zap.Int64("item_id", id), zap.String("username", caller.Username))
		return nil, err
	}

	// The owner never changes, so the check above still holds here.
	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.log.Info("item updated", zap.Int64("item_id", id), zap.String("username", caller.Username))
	return updated, nil
}

// Delete removes the record with id if caller owns it.
func (s *RecordService) Delete(ctx context.Context, caller *models.Account, id int64) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := RequireOwnership(current, caller); err != nil {
		s.log.Warn("item delete refused", zap.Int64("item_id", id), zap.String("username", caller.Username))
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("item deleted", zap.Int64("item_id", id), zap.String("username", caller.Username))
	return nil
}

// Find runs opts against the current records.
func (s *RecordService) Find(ctx context.Context, opts query.Options) (query.Result, error) {
	records, err := s.repo.Snapshot(ctx)
	if err != nil {
		return query.Result{}, err
	}
	return query.Run(records, opts), nil
}

// Categories aggregates the current records by category.
func (s *RecordService) Categories(ctx context.Context) ([]query.CategoryStats, error) {
	records, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return query.Categories(records), nil
}

// Stats reports item totals, including how many belong to caller.
func (s *RecordService) Stats(ctx context.Context, caller *models.Account) (*Stats, error) {
	records, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	mine := query.Filter(records, query.Options{OwnerID: &caller.ID})
	return &Stats{
		TotalItems:   len(records),
		YourItems:    len(mine),
		Categories:   query.Counts(records),
		AveragePrice: query.AveragePrice(records),
	}, nil
}

// Count returns the number of stored records.
func (s *RecordService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
