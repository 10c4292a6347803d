package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/atinyakov/ItemKeeper/internal/clock"
	"github.com/atinyakov/ItemKeeper/internal/credential"
	"github.com/atinyakov/ItemKeeper/internal/models"
	"github.com/atinyakov/ItemKeeper/internal/repository"
	"github.com/atinyakov/ItemKeeper/internal/service"
	"github.com/atinyakov/ItemKeeper/internal/token"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var epoch = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

const ttl = 30 * time.Minute

// env wires the real in-memory stores, token service and a fast bcrypt.
type env struct {
	clock    *clock.FakeClock
	accounts *repository.MemoryAccountRepository
	records  *repository.MemoryRecordRepository
	tokens   *token.Service
	auth     *service.AuthService
	guard    *service.Guard
	items    *service.RecordService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clk := clock.Fake(epoch)
	accounts := repository.NewMemoryAccountRepository(clk)
	records := repository.NewMemoryRecordRepository(clk)
	tokens := token.NewService([]byte("test-secret"), ttl, clk)
	return &env{
		clock:    clk,
		accounts: accounts,
		records:  records,
		tokens:   tokens,
		auth:     service.NewAuthService(accounts, credential.NewBcrypt(bcrypt.MinCost), tokens, nil),
		guard:    service.NewGuard(tokens, accounts),
		items:    service.NewRecordService(records, accounts, nil),
	}
}

func (e *env) register(t *testing.T, username string) *models.Account {
	t.Helper()
	a, err := e.auth.Register(context.Background(), models.Registration{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return a
}

func (e *env) login(t *testing.T, username string) string {
	t.Helper()
	s, err := e.auth.Login(context.Background(), username, "password123")
	require.NoError(t, err)
	return s.AccessToken
}

func ptr[T any](v T) *T { return &v }
