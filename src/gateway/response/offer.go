package response

import (
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/market"
)

type Offer struct {
	ID             uint64 `json:"id"`
	Creator        string `json:"creator"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	PublicPrice    uint64 `json:"public_price"`
	DurationDays   uint64 `json:"duration_days"`
	Slots          uint64 `json:"slots"`
	AvailableSlots uint64 `json:"available_slots"`
	IsActive       bool   `json:"is_active"`
	CreatedAt      int64  `json:"created_at"`
	ExpiresAt      int64  `json:"expires_at"`

	RevealState   string  `json:"reveal_state"`
	RevealedPrice *uint64 `json:"revealed_price,omitempty"`
	RevealedSlots *uint64 `json:"revealed_slots,omitempty"`
}

type Handles struct {
	OfferID        uint64 `json:"offer_id"`
	PriceHandle    string `json:"price_handle"`
	DurationHandle string `json:"duration_handle"`
	SlotsHandle    string `json:"slots_handle"`
}

type ActiveOffers struct {
	Ids []uint64 `json:"ids"`
}

type CreatorOffers struct {
	Creator string   `json:"creator"`
	Ids     []uint64 `json:"ids"`
}

type Grant struct {
	Subject string `json:"subject"`
	Handle  string `json:"handle"`
}

type Grants struct {
	OfferID uint64  `json:"offer_id"`
	Grants  []Grant `json:"grants"`
}

// Current platform-wide settings
type PlatformConfig struct {
	Owner          string `json:"owner"`
	Treasury       string `json:"treasury"`
	FeeBasisPoints uint64 `json:"fee_basis_points"`
}

func OfferToResponse(offer *market.Offer) *Offer {
	return &Offer{
		ID:             offer.ID,
		Creator:        offer.Creator.Hex(),
		Title:          offer.Title,
		Description:    offer.Description,
		PublicPrice:    offer.PublicPrice,
		DurationDays:   offer.DurationDays,
		Slots:          offer.Slots,
		AvailableSlots: offer.AvailableSlots,
		IsActive:       offer.IsActive,
		CreatedAt:      offer.CreatedAt,
		ExpiresAt:      offer.ExpiresAt,
		RevealState:    offer.RevealState.String(),
		RevealedPrice:  offer.RevealedPrice,
		RevealedSlots:  offer.RevealedSlots,
	}
}
