package model

import (
	"database/sql"
)

const (
	TableOffer = "offers"
)

// Reveal lifecycle of the offer's encrypted price/slots handles
const (
	RevealStateSealed       = "sealed"
	RevealStateDeclassified = "declassified"
	RevealStateResolved     = "resolved"
)

type Offer struct {
	// Ledger-assigned sequential id, never reused
	ID uint64

	// Wallet address of the offer creator
	Creator string

	Title       string
	Description string

	// Price per slot in the smallest currency unit
	PublicPrice uint64

	DurationDays uint64

	// Total slots, fixed at creation
	Slots uint64

	// Slots still up for purchase, always <= Slots
	AvailableSlots uint64

	IsActive bool

	CreatedAt int64
	ExpiresAt int64

	// References to the ciphertexts imported at creation, assigned exactly once
	PriceHandle    string
	DurationHandle string
	SlotsHandle    string

	RevealState string

	// Filled in by a successful decryption callback
	RevealedPrice sql.NullInt64
	RevealedSlots sql.NullInt64
}

func (Offer) TableName() string {
	return TableOffer
}
