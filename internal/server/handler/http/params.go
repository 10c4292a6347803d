package http

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/atinyakov/ItemKeeper/internal/query"
	"github.com/atinyakov/ItemKeeper/internal/repository"
	"github.com/go-chi/chi/v5"
)

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		v := common.NewValidationError()
		v.Add("id", "must be a positive integer")
		return 0, v
	}
	return id, nil
}

// intParam reads a non-negative integer query parameter.
func intParam(q url.Values, name string, def int, v *common.ValidationError) int {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		v.Add(name, "must be a non-negative integer")
		return def
	}
	return n
}

// floatParam reads an optional non-negative number.
func floatParam(q url.Values, name string, v *common.ValidationError) *float64 {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		v.Add(name, "must be a non-negative number")
		return nil
	}
	return &f
}

// pageParams reads skip and limit, clamping limit to [1, MaxPageSize].
func pageParams(q url.Values, defLimit int, v *common.ValidationError) (int, int) {
	skip := intParam(q, "skip", 0, v)
	limit := intParam(q, "limit", defLimit, v)
	return repository.ClampPage(skip, limit)
}

// listOptions builds query options from the shared filter parameters.
// searchKey names the free-text parameter ("search" or "q").
func listOptions(q url.Values, searchKey string, defSort query.SortField, defOrder query.SortOrder, defLimit int) (query.Options, error) {
	v := common.NewValidationError()
	opts := query.Options{
		Query:    strings.TrimSpace(q.Get(searchKey)),
		Category: q.Get("category"),
		MinPrice: floatParam(q, "min_price", v),
		MaxPrice: floatParam(q, "max_price", v),
	}
	opts.Offset, opts.Limit = pageParams(q, defLimit, v)

	opts.SortBy = defSort
	if raw := q.Get("sort_by"); raw != "" {
		field, err := query.ParseSortField(raw)
		if err != nil {
			v.Add("sort_by", "must be one of name, price, created_at, updated_at")
		}
		opts.SortBy = field
	}
	opts.SortOrder = defOrder
	if raw := q.Get("sort_order"); raw != "" {
		order, err := query.ParseSortOrder(raw)
		if err != nil {
			v.Add("sort_order", "must be asc or desc")
		}
		opts.SortOrder = order
	}

	if opts.MinPrice != nil && opts.MaxPrice != nil && *opts.MinPrice > *opts.MaxPrice {
		v.Add("min_price", "must not exceed max_price")
	}
	return opts, v.OrNil()
}

// filtersApplied echoes the active filters back to the client.
func filtersApplied(opts query.Options) map[string]any {
	out := map[string]any{}
	if opts.Query != "" {
		out["search"] = opts.Query
	}
	if opts.Category != "" {
		out["category"] = opts.Category
	}
	if opts.MinPrice != nil {
		out["min_price"] = *opts.MinPrice
	}
	if opts.MaxPrice != nil {
		out["max_price"] = *opts.MaxPrice
	}
	if opts.SortBy != query.SortNone {
		out["sort_by"] = string(opts.SortBy)
		out["sort_order"] = string(opts.SortOrder)
	}
	return out
}

// decodeJSON reads the request body into dst, reporting syntax errors as
// validation errors on the body.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		v := common.NewValidationError()
		v.Add("body", fmt.Sprintf("invalid JSON: %v", err))
		return v
	}
	return nil
}
