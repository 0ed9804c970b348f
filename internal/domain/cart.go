package domain

import "time"

// LineItem is one rentable product plus quantity and a date range, as held
// in a buyer's cart. The cart mirror stores items exactly in this shape.
type LineItem struct {
	ProductID int64     `bson:"product_id" json:"product_id"`
	Title     string    `bson:"title" json:"title"`
	ImageURL  string    `bson:"image_url" json:"image_url"`
	DailyRate float64   `bson:"daily_rate" json:"daily_rate"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	StartDate time.Time `bson:"start_date" json:"start_date"`
	EndDate   time.Time `bson:"end_date" json:"end_date"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// Cart is owned by a single buyer. Item order is insertion order and only
// matters for display.
type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []LineItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}
