package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/atinyakov/ItemKeeper/internal/middleware"
	"github.com/atinyakov/ItemKeeper/internal/models"
	"github.com/atinyakov/ItemKeeper/internal/query"
	"github.com/atinyakov/ItemKeeper/internal/service"
	"github.com/stretchr/testify/require"
)

// fakeAuthService implements AuthService for testing.
type fakeAuthService struct {
	registerFunc func(models.Registration) (*models.Account, error)
	loginFunc    func(username, password string) (*service.Session, error)
	updateFunc   func(id int64, patch models.AccountPatch) (*models.Account, error)
	accounts     []models.Account
	err          error
}

func (f *fakeAuthService) Register(_ context.Context, reg models.Registration) (*models.Account, error) {
	return f.registerFunc(reg)
}

func (f *fakeAuthService) Login(_ context.Context, username, password string) (*service.Session, error) {
	return f.loginFunc(username, password)
}

func (f *fakeAuthService) UpdateProfile(_ context.Context, id int64, patch models.AccountPatch) (*models.Account, error) {
	return f.updateFunc(id, patch)
}

func (f *fakeAuthService) ListAccounts(_ context.Context, offset, limit int) ([]models.Account, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	end := min(offset+limit, len(f.accounts))
	if offset >= end {
		return []models.Account{}, len(f.accounts), nil
	}
	return f.accounts[offset:end], len(f.accounts), nil
}

func (f *fakeAuthService) GetAccount(_ context.Context, id int64) (*models.Account, error) {
	for _, a := range f.accounts {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, f.err
}

func (f *fakeAuthService) CountAccounts(context.Context) (int, error) {
	return len(f.accounts), f.err
}

// fakeRecordService implements RecordService for testing. It records the
// last query options it was asked to run.
type fakeRecordService struct {
	records  []models.Record
	lastOpts query.Options
	err      error

	updateFunc func(caller *models.Account, id int64, patch models.RecordPatch) (*models.Record, error)
	deleteFunc func(caller *models.Account, id int64) error
}

func (f *fakeRecordService) Create(_ context.Context, caller *models.Account, in models.RecordInput) (*models.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := models.Record{ID: int64(len(f.records) + 1), Name: in.Name, Price: in.Price, Category: in.Category, OwnerID: caller.ID}
	f.records = append(f.records, r)
	return &r, nil
}

func (f *fakeRecordService) Get(_ context.Context, id int64) (*models.Record, error) {
	for _, r := range f.records {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, f.err
}

func (f *fakeRecordService) Update(_ context.Context, caller *models.Account, id int64, patch models.RecordPatch) (*models.Record, error) {
	return f.updateFunc(caller, id, patch)
}

func (f *fakeRecordService) Delete(_ context.Context, caller *models.Account, id int64) error {
	return f.deleteFunc(caller, id)
}

func (f *fakeRecordService) Find(_ context.Context, opts query.Options) (query.Result, error) {
	f.lastOpts = opts
	if f.err != nil {
		return query.Result{}, f.err
	}
	return query.Run(f.records, opts), nil
}

func (f *fakeRecordService) Categories(context.Context) ([]query.CategoryStats, error) {
	return query.Categories(f.records), f.err
}

func (f *fakeRecordService) Stats(_ context.Context, caller *models.Account) (*service.Stats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.Stats{
		TotalItems:   len(f.records),
		YourItems:    len(query.Filter(f.records, query.Options{OwnerID: &caller.ID})),
		Categories:   query.Counts(f.records),
		AveragePrice: query.AveragePrice(f.records),
	}, nil
}

func (f *fakeRecordService) Count(context.Context) (int, error) {
	return len(f.records), f.err
}

// withAccount attaches a to the request as the auth middleware would.
func withAccount(req *http.Request, a *models.Account) *http.Request {
	return req.WithContext(middleware.WithAccount(req.Context(), a))
}

func decodeBody[T any](t *testing.T, body io.Reader) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(body).Decode(&v))
	return v
}
