package model

import "time"

// Entry is one journal record. Date is the calendar day the entry is
// about (YYYY-MM-DD, unique across all entries); CreatedAt is that day
// shifted by the submitter's UTC offset and is the sort key for listing.
type Entry struct {
	ID                int64
	Title             string
	Body              string
	Date              string
	CreatedAt         time.Time
	IncludeAstronomy  bool
	AstronomyImageURL *string
	UpdatedAt         time.Time
}
