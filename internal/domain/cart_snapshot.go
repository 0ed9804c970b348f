package domain

import "time"

type CartSnapshotItem struct {
	ProductID  int64     `json:"product_id"`
	Title      string    `json:"title"`
	ImageURL   string    `json:"image_url,omitempty"`
	DailyRate  float64   `json:"daily_rate"`
	Quantity   int       `json:"quantity"`
	RentalDays int       `json:"rental_days"`
	UnitPrice  float64   `json:"unit_price"`
	Subtotal   float64   `json:"subtotal"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

// CartSnapshot is the priced, immutable cart state captured when checkout
// begins. Materialization after the payment redirect works from this
// snapshot alone, never from in-memory state.
type CartSnapshot struct {
	Items       []CartSnapshotItem `json:"items"`
	TotalAmount float64            `json:"total_amount"`
	Currency    string             `json:"currency"`
	CapturedAt  time.Time          `json:"captured_at"`
}
