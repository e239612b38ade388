package response

type RevealRequested struct {
	OfferID uint64 `json:"offer_id"`

	// Handles the decryption callback must cover, in request order
	Handles []string `json:"handles"`
}

type Withdraw struct {
	Amount uint64 `json:"amount"`
}
