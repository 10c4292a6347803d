package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/ItemKeeper/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cli, err := New(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return cli
}

func TestNew_NormalizesBaseURL(t *testing.T) {
	cli, err := New("localhost:9000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cli.BaseURL())

	cli, err = New("  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cli.BaseURL())
}

func TestLogin_StoresToken(t *testing.T) {
	var authHeader string
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "alice", body["username"])
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_ = json.NewEncoder(w).Encode(Token{AccessToken: "tok", TokenType: "bearer", ExpiresIn: 1800})
		case "/auth/me":
			authHeader = r.Header.Get("Authorization")
			_ = json.NewEncoder(w).Encode(models.Account{ID: 1, Username: "alice"})
		default:
			http.NotFound(w, r)
		}
	})

	tok, err := cli.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, int64(1800), tok.ExpiresIn)

	me, err := cli.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "Bearer tok", authHeader)
}

func TestDo_DecodesAPIError(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"validation failed","error_code":"VALIDATION_ERROR","fields":{"price":"must be greater than 0","name":"is required"}}`))
	})

	_, err := cli.CreateItem(context.Background(), models.RecordInput{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.True(t, IsCode(err, "VALIDATION_ERROR"))
	assert.Equal(t, "validation failed (422): name: is required; price: must be greater than 0", err.Error())
}

func TestDo_PlainTextError(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	err := cli.DeleteItem(context.Background(), 3)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "boom", apiErr.Detail)
	assert.False(t, IsCode(err, "NOT_FOUND"))
}

func TestListItems_EncodesParams(t *testing.T) {
	minPrice := 2.5
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "lamp", q.Get("search"))
		assert.Equal(t, "home", q.Get("category"))
		assert.Equal(t, "2.5", q.Get("min_price"))
		assert.Equal(t, "price", q.Get("sort_by"))
		assert.Equal(t, "5", q.Get("limit"))
		assert.Empty(t, q.Get("skip"))
		_, _ = w.Write([]byte(`{"items":[{"id":1,"name":"Lamp","price":3,"owner_id":1,"is_owner":true}],"total":1,"page":1,"size":5,"pages":1}`))
	})

	page, err := cli.ListItems(context.Background(), ListParams{
		Query: "lamp", Category: "home", MinPrice: &minPrice, SortBy: "price", Limit: 5,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Lamp", page.Items[0].Name)
	require.NotNil(t, page.Items[0].IsOwner)
	assert.True(t, *page.Items[0].IsOwner)
}

func TestSearch_UsesQParam(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/search", r.URL.Path)
		assert.Equal(t, "desk", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`[]`))
	})

	items, err := cli.Search(context.Background(), ListParams{Query: "desk"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateItem_SendsPatch(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/items/7", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"name": "Chair"}, body)
		_, _ = w.Write([]byte(`{"id":7,"name":"Chair","price":10,"owner_id":2}`))
	})

	name := "Chair"
	rec, err := cli.UpdateItem(context.Background(), 7, models.RecordPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.ID)
}

func TestDeleteItem_NoContent(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, cli.DeleteItem(context.Background(), 1))
}

func TestIsUnauthorized(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Token has expired, please log in again","error_code":"EXPIRED_TOKEN"}`))
	})

	_, err := cli.Me(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.True(t, IsCode(err, "EXPIRED_TOKEN"))
	assert.False(t, IsUnauthorized(nil))
}
