package storage

import (
	"time"

	"sjsage522/dealscout/internal/listing"
)

// Stats summarizes the store
type Stats struct {
	Total    int            `json:"total"`
	ThisWeek int            `json:"this_week"`
	ByBrand  map[string]int `json:"by_brand"`
	ByYear   map[string]int `json:"by_year"`
	BySite   map[string]int `json:"by_site"`
}

// ComputeStats counts records; "this week" means created in the last seven days
func ComputeStats(records []listing.Record, now time.Time) Stats {
	stats := Stats{
		Total:   len(records),
		ByBrand: make(map[string]int),
		ByYear:  make(map[string]int),
		BySite:  make(map[string]int),
	}
	weekAgo := now.Add(-7 * 24 * time.Hour)

	for i := range records {
		r := &records[i]
		if !r.CreatedAt.Before(weekAgo) {
			stats.ThisWeek++
		}
		if brand := r.Brand(); brand != "" {
			stats.ByBrand[brand]++
		}
		if year := r.Get(listing.FieldYear); year != "" {
			stats.ByYear[year]++
		}
		stats.BySite[string(r.Site)]++
	}
	return stats
}
