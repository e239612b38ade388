package response

import (
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/market"
)

type Purchase struct {
	ID         uint64 `json:"id"`
	OfferID    uint64 `json:"offer_id"`
	Buyer      string `json:"buyer"`
	Slots      uint64 `json:"slots"`
	TotalPrice uint64 `json:"total_price"`
	Timestamp  int64  `json:"timestamp"`
}

// One buyer history entry, the purchase with its offer context
type HistoryEntry struct {
	Purchase

	OfferTitle   string `json:"offer_title"`
	OfferCreator string `json:"offer_creator"`
}

type BuyerHistory struct {
	Buyer   string         `json:"buyer"`
	Entries []HistoryEntry `json:"entries"`
}

func PurchaseToResponse(purchase *market.Purchase) *Purchase {
	return &Purchase{
		ID:         purchase.ID,
		OfferID:    purchase.OfferID,
		Buyer:      purchase.Buyer.Hex(),
		Slots:      purchase.Slots,
		TotalPrice: purchase.TotalPrice,
		Timestamp:  purchase.Timestamp,
	}
}
