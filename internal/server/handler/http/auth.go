// Package http provides HTTP handlers for registration, login, accounts and
// the items they own.
package http

import (
	"context"
	"mime"
	"net/http"

	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/atinyakov/ItemKeeper/internal/middleware"
	"github.com/atinyakov/ItemKeeper/internal/models"
	"github.com/atinyakov/ItemKeeper/internal/service"
	"go.uber.org/zap"
)

// AuthService defines the account operations required by the HTTP handlers.
type AuthService interface {
	// Register creates a new account from the registration payload.
	Register(ctx context.Context, reg models.Registration) (*models.Account, error)
	// Login verifies credentials and issues an access token.
	Login(ctx context.Context, username, password string) (*service.Session, error)
	// UpdateProfile applies a partial update to the account with id.
	UpdateProfile(ctx context.Context, id int64, patch models.AccountPatch) (*models.Account, error)
	ListAccounts(ctx context.Context, offset, limit int) ([]models.Account, int, error)
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	CountAccounts(ctx context.Context) (int, error)
}

// AuthHandler handles HTTP requests for registration, login and the caller's
// own profile.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
	Log         *zap.Logger
}

// LoginRequest is the JSON login payload. Form-encoded bodies use the same
// field names.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /auth/register and responds 201 with the account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.Registration
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	account, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// Login handles POST /auth/login with either a JSON or a form-encoded body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := readLogin(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	session, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func readLogin(r *http.Request) (LoginRequest, error) {
	var req LoginRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			v := common.NewValidationError()
			v.Add("body", "invalid form body")
			return req, v
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := decodeJSON(r, &req); err != nil {
		return req, err
	}

	v := common.NewValidationError()
	if req.Username == "" {
		v.Add("username", "field required")
	}
	if req.Password == "" {
		v.Add("password", "field required")
	}
	return req, v.OrNil()
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, r, h.Log, common.ErrMissingToken)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// UpdateMe handles PATCH /auth/me.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, r, h.Log, common.ErrMissingToken)
		return
	}

	var patch models.AccountPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	updated, err := h.AuthService.UpdateProfile(r.Context(), account.ID, patch)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
