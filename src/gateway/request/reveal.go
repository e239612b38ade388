package request

type RequestReveal struct {
	Caller string `json:"caller" binding:"required"`
}

type ResolveCallback struct {
	// Hex-encoded plaintexts concatenated in handle order
	Cleartext string `json:"cleartext" binding:"required"`

	// Decryption proof covering the handle list and the cleartext
	Proof string `json:"proof" binding:"required"`
}
