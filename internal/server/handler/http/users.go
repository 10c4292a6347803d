package http

import (
	"net/http"

	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/atinyakov/ItemKeeper/internal/middleware"
	"github.com/atinyakov/ItemKeeper/internal/models"
	"github.com/atinyakov/ItemKeeper/internal/query"
	"github.com/atinyakov/ItemKeeper/internal/repository"
	"go.uber.org/zap"
)

// UserHandler serves the account directory.
type UserHandler struct {
	AuthService   AuthService
	RecordService RecordService
	Log           *zap.Logger
}

// List handles GET /users?skip=&limit=.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	v := common.NewValidationError()
	skip, limit := pageParams(r.URL.Query(), repository.MaxPageSize, v)
	if err := v.OrNil(); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	accounts, _, err := h.AuthService.ListAccounts(r.Context(), skip, limit)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// Get handles GET /users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	account, err := h.AuthService.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Items handles GET /users/{id}/items. Callers may only list their own items.
func (h *UserHandler) Items(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	caller, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, r, h.Log, common.ErrMissingToken)
		return
	}
	if caller.ID != id {
		writeError(w, r, h.Log, common.ErrForbidden)
		return
	}

	v := common.NewValidationError()
	skip, limit := pageParams(r.URL.Query(), repository.MaxPageSize, v)
	if err := v.OrNil(); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	res, err := h.RecordService.Find(r.Context(), query.Options{OwnerID: &id, Offset: skip, Limit: limit})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, itemViews(res.Items, caller))
}

// itemView is a record plus whether the caller owns it. IsOwner is omitted
// for anonymous callers.
type itemView struct {
	models.Record
	IsOwner *bool `json:"is_owner,omitempty"`
}

func itemViews(records []models.Record, caller *models.Account) []itemView {
	out := make([]itemView, 0, len(records))
	for _, rec := range records {
		view := itemView{Record: rec}
		if caller != nil {
			owner := rec.OwnerID == caller.ID
			view.IsOwner = &owner
		}
		out = append(out, view)
	}
	return out
}
