package model

const (
	TablePurchase = "purchases"
)

// Immutable once created
type Purchase struct {
	// Ledger-assigned sequential id, never reused
	ID uint64

	OfferID uint64

	// Wallet address of the buyer
	Buyer string

	// Number of slots bought in this purchase
	Slots uint64

	// PublicPrice * Slots at purchase time
	TotalPrice uint64

	Timestamp int64
}

func (Purchase) TableName() string {
	return TablePurchase
}
