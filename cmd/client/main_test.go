package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/ItemKeeper/internal/client/storage"
	"github.com/atinyakov/ItemKeeper/internal/models"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password","error_code":"INVALID_CREDENTIALS"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":1800}`))
	})
	r.Post("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var reg models.Registration
		_ = json.NewDecoder(r.Body).Decode(&reg)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Account{ID: 2, Username: reg.Username, Email: reg.Email})
	})
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer tok" {
					w.WriteHeader(http.StatusUnauthorized)
					_, _ = w.Write([]byte(`{"detail":"Token has expired, please log in again","error_code":"EXPIRED_TOKEN"}`))
					return
				}
				next.ServeHTTP(w, r)
			})
		})
		r.Get("/items", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"items":[{"id":1,"name":"Desk Lamp","price":19.5,"category":"home","owner_id":1,"is_owner":true}],"total":1,"page":1,"size":10,"pages":1}`))
		})
		r.Post("/items", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":5,"name":"Chair","price":10,"category":"home","owner_id":1}`))
		})
		r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Resource not found","error_code":"NOT_FOUND"}`))
		})
		r.Delete("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-version"}, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "ItemKeeper Client")
}

func TestRun_UnknownCommand(t *testing.T) {
	session := filepath.Join(t.TempDir(), "session.json")
	err := run(context.Background(), []string{"-cmd", "sync", "-session", session}, strings.NewReader(""), &bytes.Buffer{})
	assert.EqualError(t, err, "unknown command: sync")
}

func TestRun_ShellRequiresLogin(t *testing.T) {
	session := filepath.Join(t.TempDir(), "session.json")
	err := run(context.Background(), []string{"-session", session}, strings.NewReader("exit\n"), &bytes.Buffer{})
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestRun_Register(t *testing.T) {
	srv := fakeServer(t)
	session := filepath.Join(t.TempDir(), "session.json")

	var out bytes.Buffer
	in := strings.NewReader("bob\nbob@example.com\n\nsecret123\n")
	require.NoError(t, run(context.Background(), []string{"-cmd", "register", "-url", srv.URL, "-session", session}, in, &out))
	assert.Contains(t, out.String(), "Registered bob (id 2)")
}

func TestRun_LoginShellLogout(t *testing.T) {
	srv := fakeServer(t)
	session := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	var out bytes.Buffer
	err := run(ctx, []string{"-cmd", "login", "-url", srv.URL, "-session", session}, strings.NewReader("alice\nsecret123\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Logged in as alice")

	saved, err := storage.NewLocalStorage(session).Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "tok", saved.AccessToken)
	assert.Equal(t, srv.URL, saved.BaseURL)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), saved.ExpiresAt, time.Minute)

	out.Reset()
	script := strings.Join([]string{
		"list",
		"get 9",
		"get x",
		"add", "Chair", "", "10", "home",
		"delete 1",
		"bogus",
		"exit",
	}, "\n") + "\n"
	require.NoError(t, run(ctx, []string{"-session", session}, strings.NewReader(script), &out))

	got := out.String()
	assert.Contains(t, got, "Desk Lamp")
	assert.Contains(t, got, "1 (you)")
	assert.Contains(t, got, "Error: Resource not found (404)")
	assert.Contains(t, got, `Invalid id "x"`)
	assert.Contains(t, got, "Item 5 created")
	assert.Contains(t, got, "Item deleted")
	assert.Contains(t, got, "Unknown command")
	assert.Contains(t, got, "Bye")

	out.Reset()
	require.NoError(t, run(ctx, []string{"-cmd", "logout", "-session", session}, strings.NewReader(""), &out))
	saved, err = storage.NewLocalStorage(session).Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestRun_LoginRejected(t *testing.T) {
	srv := fakeServer(t)
	session := filepath.Join(t.TempDir(), "session.json")

	err := run(context.Background(), []string{"-cmd", "login", "-url", srv.URL, "-session", session}, strings.NewReader("alice\nwrong\n"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect username or password")
}

func TestRepl_ExpiredSessionStops(t *testing.T) {
	srv := fakeServer(t)
	session := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, storage.NewLocalStorage(session).Save(&storage.Session{
		BaseURL:     srv.URL,
		Username:    "alice",
		AccessToken: "stale",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-session", session}, strings.NewReader("list\nlist\n"), &out))
	assert.Equal(t, 1, strings.Count(out.String(), "Session is no longer valid"))
}
