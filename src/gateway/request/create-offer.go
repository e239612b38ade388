package request

type CreateOffer struct {
	Caller       string `json:"caller" binding:"required"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Price        uint64 `json:"price"`
	DurationDays uint64 `json:"duration_days"`
	Slots        uint64 `json:"slots"`
}

type CreateOfferEncrypted struct {
	CreateOffer

	// Ciphertext handles in bundle order with the shared input proof
	PriceHandle    string `json:"price_handle" binding:"required"`
	DurationHandle string `json:"duration_handle" binding:"required"`
	SlotsHandle    string `json:"slots_handle" binding:"required"`
	Proof          string `json:"proof" binding:"required"`
}
