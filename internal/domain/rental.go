package domain

import "time"

// Rental is a product in the catalog: one rentable water blaster with a
// per-day rate.
type Rental struct {
	ID          int64
	Title       string
	Description string
	PricePerDay float64
	ImageURL    string
	Featured    bool
	CreatedAt   time.Time
}
