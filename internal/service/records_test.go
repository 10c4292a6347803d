package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/atinyakov/ItemKeeper/internal/models"
	"github.com/atinyakov/ItemKeeper/internal/query"
	"github.com/atinyakov/ItemKeeper/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func laptop() models.RecordInput {
	return models.RecordInput{Name: "Laptop", Description: "14 inch", Price: 999.99, Category: "Electronics"}
}

func TestRecordCreate(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, "alice")

	r, err := e.items.Create(context.Background(), alice, laptop())
	require.NoError(t, err)

	assert.Equal(t, int64(1), r.ID)
	assert.Equal(t, alice.ID, r.OwnerID)
	assert.Equal(t, epoch, r.CreatedAt)
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)
}

func TestRecordCreate_Rejected(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, "alice")
	ctx := context.Background()

	bad := laptop()
	bad.Price = 0
	_, err := e.items.Create(ctx, alice, bad)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = e.items.Create(ctx, &models.Account{ID: 42, Username: "ghost"}, laptop())
	assert.ErrorIs(t, err, common.ErrUnknownSubject)

	n, err := e.items.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordUpdate_OwnerOnly(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	ctx := context.Background()

	r, err := e.items.Create(ctx, alice, laptop())
	require.NoError(t, err)
	e.clock.Advance(time.Minute)

	_, err = e.items.Update(ctx, bob, r.ID, models.RecordPatch{Price: ptr(1.0)})
	require.ErrorIs(t, err, common.ErrForbidden)
	err = e.items.Delete(ctx, bob, r.ID)
	require.ErrorIs(t, err, common.ErrForbidden)

	unchanged, err := e.items.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, *r, *unchanged)

	updated, err := e.items.Update(ctx, alice, r.ID, models.RecordPatch{Price: ptr(899.0)})
	require.NoError(t, err)
	assert.Equal(t, 899.0, updated.Price)
	assert.Equal(t, "Laptop", updated.Name)
	assert.Equal(t, epoch.Add(time.Minute), updated.UpdatedAt)
	assert.Equal(t, epoch, updated.CreatedAt)

	require.NoError(t, e.items.Delete(ctx, alice, r.ID))
	_, err = e.items.Get(ctx, r.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRecordUpdate_Errors(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, "alice")
	ctx := context.Background()
	r, err := e.items.Create(ctx, alice, laptop())
	require.NoError(t, err)

	_, err = e.items.Update(ctx, alice, 99, models.RecordPatch{Price: ptr(1.0)})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = e.items.Update(ctx, alice, r.ID, models.RecordPatch{Name: ptr("")})
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.ErrorIs(t, e.items.Delete(ctx, alice, 99), common.ErrNotFound)
}

func TestRecordFind(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")
	ctx := context.Background()

	for _, in := range []struct {
		owner *models.Account
		price float64
		cat   string
	}{
		{alice, 50, "A"},
		{bob, 150, "B"},
		{alice, 100, "A"},
	} {
		_, err := e.items.Create(ctx, in.owner, models.RecordInput{Name: "thing", Price: in.price, Category: in.cat})
		require.NoError(t, err)
	}

	res, err := e.items.Find(ctx, query.Options{Category: "A", SortBy: query.SortPrice, SortOrder: query.Desc})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, int64(3), res.Items[0].ID)

	mine, err := e.items.Find(ctx, query.Options{OwnerID: &bob.ID})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, int64(2), mine.Items[0].ID)

	cats, err := e.items.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, query.CategoryStats{Category: "A", Count: 2, MinPrice: 50, MaxPrice: 100, AvgPrice: 75}, cats[0])

	stats, err := e.items.Stats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, &service.Stats{
		TotalItems:   3,
		YourItems:    2,
		Categories:   map[string]int{"A": 2, "B": 1},
		AveragePrice: 100,
	}, stats)
}

type failingRecords struct{ service.RecordRepository }

func (failingRecords) Snapshot(context.Context) ([]models.Record, error) {
	return nil, errors.New("snapshot failed")
}

func TestRecordFind_SnapshotError(t *testing.T) {
	svc := service.NewRecordService(failingRecords{}, nil, nil)
	ctx := context.Background()

	_, err := svc.Find(ctx, query.Options{})
	assert.Error(t, err)
	_, err = svc.Categories(ctx)
	assert.Error(t, err)
	_, err = svc.Stats(ctx, &models.Account{ID: 1})
	assert.Error(t, err)
}
