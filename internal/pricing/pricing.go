// Package pricing computes rental-day counts and line totals. A rental day
// is one inclusive calendar day of a booking's date range.
package pricing

import (
	"math"
	"time"

	"github.com/bcasadei/rental-website/internal/domain"
)

const hoursPerDay = 24

// RentalDays returns the inclusive day count of [start, end], minimum 1.
// Zero-value or reversed dates count as a single-day rental rather than an
// error.
func RentalDays(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 1
	}
	days := int(math.Ceil(end.Sub(start).Hours()/hoursPerDay)) + 1
	if days < 1 {
		return 1
	}
	return days
}

// LineTotal is dailyRate * quantity * rentalDays for one cart line.
func LineTotal(item domain.LineItem) float64 {
	return item.DailyRate * float64(item.Quantity) * float64(RentalDays(item.StartDate, item.EndDate))
}
