package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/atinyakov/ItemKeeper/internal/middleware"
	"github.com/atinyakov/ItemKeeper/internal/models"
	"github.com/atinyakov/ItemKeeper/internal/query"
	"github.com/atinyakov/ItemKeeper/internal/service"
	"go.uber.org/zap"
)

// Default page sizes.
const (
	defaultListLimit   = 10
	defaultSearchLimit = 20
)

// RecordService defines the item operations required by the HTTP handlers.
type RecordService interface {
	// Create stores a new item owned by caller.
	Create(ctx context.Context, caller *models.Account, in models.RecordInput) (*models.Record, error)
	Get(ctx context.Context, id int64) (*models.Record, error)
	// Update and Delete fail with common.ErrForbidden unless caller owns the item.
	Update(ctx context.Context, caller *models.Account, id int64, patch models.RecordPatch) (*models.Record, error)
	Delete(ctx context.Context, caller *models.Account, id int64) error
	Find(ctx context.Context, opts query.Options) (query.Result, error)
	Categories(ctx context.Context) ([]query.CategoryStats, error)
	Stats(ctx context.Context, caller *models.Account) (*service.Stats, error)
	Count(ctx context.Context) (int, error)
}

// ItemHandler handles HTTP requests for items.
type ItemHandler struct {
	// RecordService performs the underlying item operations.
	RecordService RecordService
	Log           *zap.Logger
}

// Page is the paginated list envelope.
type Page struct {
	Items          []itemView     `json:"items"`
	Total          int            `json:"total"`
	Page           int            `json:"page"`
	Size           int            `json:"size"`
	Pages          int            `json:"pages"`
	FiltersApplied map[string]any `json:"filters_applied"`
}

func newPage(res query.Result, opts query.Options, caller *models.Account) Page {
	return Page{
		Items:          itemViews(res.Items, caller),
		Total:          res.Total,
		Page:           opts.Offset/opts.Limit + 1,
		Size:           len(res.Items),
		Pages:          (res.Total + opts.Limit - 1) / opts.Limit,
		FiltersApplied: filtersApplied(opts),
	}
}

// List handles GET /items. Authenticated callers get is_owner flags.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r.URL.Query(), "search", query.SortNone, query.Asc, defaultListLimit)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	caller, _ := middleware.AccountFromContext(r.Context())
	h.page(w, r, opts, caller)
}

// Mine handles GET /items/mine.
func (h *ItemHandler) Mine(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, r, h.Log, common.ErrMissingToken)
		return
	}
	opts, err := listOptions(r.URL.Query(), "search", query.SortNone, query.Asc, defaultListLimit)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	opts.OwnerID = &caller.ID
	h.page(w, r, opts, caller)
}

func (h *ItemHandler) page(w http.ResponseWriter, r *http.Request, opts query.Options, caller *models.Account) {
	res, err := h.RecordService.Find(r.Context(), opts)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(res, opts, caller))
}

// Search handles GET /items/search. It defaults to newest first and returns
// a bare array.
func (h *ItemHandler) Search(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r.URL.Query(), "q", query.SortCreatedAt, query.Desc, defaultSearchLimit)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	res, err := h.RecordService.Find(r.Context(), opts)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	caller, _ := middleware.AccountFromContext(r.Context())
	writeJSON(w, http.StatusOK, itemViews(res.Items, caller))
}

// Categories handles GET /items/categories.
func (h *ItemHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.RecordService.Categories(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// Get handles GET /items/{id}.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	record, err := h.RecordService.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Create handles POST /items. The caller becomes the owner.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, r, h.Log, common.ErrMissingToken)
		return
	}

	var in models.RecordInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	record, err := h.RecordService.Create(r.Context(), caller, in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// Update handles PUT and PATCH /items/{id}. Only supplied fields change.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, r, h.Log, common.ErrMissingToken)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	var patch models.RecordPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	record, err := h.RecordService.Update(r.Context(), caller, id, patch)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Delete handles DELETE /items/{id} and responds 204.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, r, h.Log, common.ErrMissingToken)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	if err := h.RecordService.Delete(r.Context(), caller, id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
