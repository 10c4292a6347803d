package query

import (
	"sort"

	"github.com/atinyakov/ItemKeeper/internal/models"
)

// CategoryStats summarizes the records sharing one category.
type CategoryStats struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	MinPrice float64 `json:"min_price"`
	MaxPrice float64 `json:"max_price"`
	AvgPrice float64 `json:"avg_price"`
}

// Categories groups records by category, ordered by category name. Only
// categories that currently have records appear.
func Categories(records []models.Record) []CategoryStats {
	byName := make(map[string]*CategoryStats)
	sums := make(map[string]float64)

	for _, r := range records {
		s, ok := byName[r.Category]
		if !ok {
			s = &CategoryStats{Category: r.Category, MinPrice: r.Price, MaxPrice: r.Price}
			byName[r.Category] = s
		}
		s.Count++
		s.MinPrice = min(s.MinPrice, r.Price)
		s.MaxPrice = max(s.MaxPrice, r.Price)
		sums[r.Category] += r.Price
	}

	out := make([]CategoryStats, 0, len(byName))
	for name, s := range byName {
		s.AvgPrice = sums[name] / float64(s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Counts returns the number of records per category.
func Counts(records []models.Record) map[string]int {
	out := make(map[string]int)
	for _, r := range records {
		out[r.Category]++
	}
	return out
}

// AveragePrice returns the mean price, or 0 for no records.
func AveragePrice(records []models.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.Price
	}
	return sum / float64(len(records))
}
