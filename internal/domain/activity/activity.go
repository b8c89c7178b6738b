// Package activity holds tabular corpus statistics.
package activity

import "time"

// Row is one snapshot in the statistics table.
type Row struct {
	Service      string    `json:"service"`
	DocumentType string    `json:"document_type"`
	CapturedAt   time.Time `json:"captured_at"`
}

// Month aggregates snapshot activity over one calendar month.
type Month struct {
	// YearMonth is formatted as YYYY-MM.
	YearMonth string `json:"year_month"`
	// ServicesActive counts distinct services with a snapshot in this month.
	ServicesActive int `json:"n_services_active"`
	// ServicesTracked counts distinct services seen in this or any earlier month.
	ServicesTracked int `json:"n_services_tracked"`
}
