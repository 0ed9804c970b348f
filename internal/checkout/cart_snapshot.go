package checkout

import (
	"encoding/json"
	"log"
	"time"

	"github.com/bcasadei/rental-website/internal/domain"
	"github.com/bcasadei/rental-website/internal/pricing"
)

// The processor caps each metadata value; an order summary that would not
// fit is dropped rather than truncated into invalid JSON.
const metadataValueLimit = 500

// buildCartSnapshot prices every cart line and freezes the result. The
// unit price is dailyRate * rentalDays, so the processor's native
// unit-price * quantity multiplication reproduces the correct line total.
func buildCartSnapshot(cart *domain.Cart) *domain.CartSnapshot {
	snapshot := &domain.CartSnapshot{
		Items:      make([]domain.CartSnapshotItem, 0, len(cart.Items)),
		Currency:   "USD",
		CapturedAt: time.Now(),
	}

	var totalAmount float64
	for _, item := range cart.Items {
		days := pricing.RentalDays(item.StartDate, item.EndDate)
		unitPrice := item.DailyRate * float64(days)
		subtotal := unitPrice * float64(item.Quantity)

		snapshot.Items = append(snapshot.Items, domain.CartSnapshotItem{
			ProductID:  item.ProductID,
			Title:      item.Title,
			ImageURL:   item.ImageURL,
			DailyRate:  item.DailyRate,
			Quantity:   item.Quantity,
			RentalDays: days,
			UnitPrice:  unitPrice,
			Subtotal:   subtotal,
			StartDate:  item.StartDate,
			EndDate:    item.EndDate,
		})

		totalAmount += subtotal
	}

	snapshot.TotalAmount = totalAmount
	return snapshot
}

type summaryEntry struct {
	ID    int64   `json:"id"`
	Qty   int     `json:"qty"`
	Days  int     `json:"days"`
	Price float64 `json:"price"`
}

// orderSummaryJSON is the compact per-line summary stored in session
// metadata. Returns "" when the summary cannot fit the metadata limit.
func orderSummaryJSON(snapshot *domain.CartSnapshot) string {
	summary := make([]summaryEntry, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		summary = append(summary, summaryEntry{
			ID:    item.ProductID,
			Qty:   item.Quantity,
			Days:  item.RentalDays,
			Price: item.DailyRate,
		})
	}

	data, err := json.Marshal(summary)
	if err != nil {
		log.Printf("marshal order summary failed: %v", err)
		return ""
	}
	if len(data) > metadataValueLimit {
		log.Printf("order summary of %d bytes exceeds metadata limit, omitting", len(data))
		return ""
	}
	return string(data)
}
