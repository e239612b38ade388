package request

type PurchaseOffer struct {
	Caller   string `json:"caller" binding:"required"`
	Quantity uint64 `json:"quantity"`
	Payment  uint64 `json:"payment"`
}

type DeactivateOffer struct {
	Caller string `json:"caller" binding:"required"`
}
