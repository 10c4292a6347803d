// Package query filters, sorts, windows and aggregates records. It works on
// a snapshot handed to it by the caller and never touches a store directly.
package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/atinyakov/ItemKeeper/internal/models"
)

// SortField names a sortable record attribute.
type SortField string

const (
	SortNone      SortField = ""
	SortName      SortField = "name"
	SortPrice     SortField = "price"
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
)

// ParseSortField accepts both camelCase and snake_case spellings.
func ParseSortField(s string) (SortField, error) {
	switch s {
	case "":
		return SortNone, nil
	case "name":
		return SortName, nil
	case "price":
		return SortPrice, nil
	case "createdAt", "created_at":
		return SortCreatedAt, nil
	case "updatedAt", "updated_at":
		return SortUpdatedAt, nil
	}
	return SortNone, fmt.Errorf("unknown sort field %q", s)
}

// SortOrder is the sort direction.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// ParseSortOrder maps "" to Asc.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(s) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return Asc, fmt.Errorf("unknown sort order %q", s)
}

// Options selects, orders and windows records. Nil pointers and empty strings
// disable the corresponding filter.
type Options struct {
	// Query is matched case-insensitively as a substring of name or description.
	Query string
	// Category must equal the record's category exactly.
	Category string
	// MinPrice and MaxPrice are inclusive bounds.
	MinPrice *float64
	MaxPrice *float64
	// OwnerID restricts results to one owner.
	OwnerID *int64

	SortBy    SortField
	SortOrder SortOrder

	Offset int
	// Limit caps the page size; zero or negative means no cap.
	Limit int
}

// Result is one window of matches plus the number of matches before windowing.
type Result struct {
	Items []models.Record
	Total int
}

// Run applies opts to records. The input slice is not modified.
func Run(records []models.Record, opts Options) Result {
	matched := Filter(records, opts)
	Sort(matched, opts.SortBy, opts.SortOrder)
	return Result{Items: Window(matched, opts.Offset, opts.Limit), Total: len(matched)}
}

// Filter returns the records satisfying every predicate in opts, in input order.
func Filter(records []models.Record, opts Options) []models.Record {
	needle := strings.ToLower(opts.Query)
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if opts.Query != "" &&
			!strings.Contains(strings.ToLower(r.Name), needle) &&
			!strings.Contains(strings.ToLower(r.Description), needle) {
			continue
		}
		if opts.Category != "" && r.Category != opts.Category {
			continue
		}
		if opts.MinPrice != nil && r.Price < *opts.MinPrice {
			continue
		}
		if opts.MaxPrice != nil && r.Price > *opts.MaxPrice {
			continue
		}
		if opts.OwnerID != nil && r.OwnerID != *opts.OwnerID {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort orders records in place by field. Records with equal keys are ordered
// by ascending id regardless of direction. SortNone leaves the order alone.
func Sort(records []models.Record, field SortField, order SortOrder) {
	if field == SortNone {
		return
	}
	key := comparator(field)
	slices.SortStableFunc(records, func(a, b models.Record) int {
		c := key(a, b)
		if order == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func comparator(field SortField) func(a, b models.Record) int {
	switch field {
	case SortName:
		return func(a, b models.Record) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortPrice:
		return func(a, b models.Record) int { return cmp.Compare(a.Price, b.Price) }
	case SortCreatedAt:
		return func(a, b models.Record) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortUpdatedAt:
		return func(a, b models.Record) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	}
	panic(fmt.Sprintf("query: unhandled sort field %q", field))
}

// Window returns records[offset:offset+limit], clamped to the slice. A
// non-positive limit returns everything from offset on.
func Window(records []models.Record, offset, limit int) []models.Record {
	offset = max(offset, 0)
	if offset >= len(records) {
		return []models.Record{}
	}
	end := len(records)
	if limit > 0 {
		end = min(offset+limit, end)
	}
	return records[offset:end]
}
