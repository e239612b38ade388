package gateway

import (
	"net/http"
	"strconv"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/gateway/request"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/gateway/response"
	. "github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

func (self *Server) onPurchaseOffer(c *gin.Context) {
	id, ok := offerId(c)
	if !ok {
		return
	}

	var in = new(request.PurchaseOffer)
	err := c.ShouldBindJSON(in)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
		return
	}

	purchase, err := self.ledger.PurchaseOffer(c, common.HexToAddress(in.Caller), id, in.Quantity, in.Payment)
	if err != nil {
		LOGE(c, err, errorStatus(err)).Error("Failed to purchase offer")
		return
	}

	self.cache.Delete(cacheKeyActiveOffers)
	self.cache.Delete(cacheKeyStats)

	LOG(c).WithField("offer_id", id).
		WithField("purchase_id", purchase.ID).
		Debug("Purchase made")

	c.JSON(http.StatusCreated, response.PurchaseToResponse(purchase))
}

func (self *Server) onGetPurchase(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Malformed purchase id")
		return
	}

	purchase, err := self.ledger.GetPurchase(id)
	if err != nil {
		LOGE(c, err, errorStatus(err)).Debug("Purchase not found")
		return
	}

	c.JSON(http.StatusOK, response.PurchaseToResponse(purchase))
}

func (self *Server) onDeactivateOffer(c *gin.Context) {
	id, ok := offerId(c)
	if !ok {
		return
	}

	var in = new(request.DeactivateOffer)
	err := c.ShouldBindJSON(in)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
		return
	}

	err = self.ledger.DeactivateOffer(c, common.HexToAddress(in.Caller), id)
	if err != nil {
		LOGE(c, err, errorStatus(err)).Error("Failed to deactivate offer")
		return
	}

	self.cache.Delete(cacheKeyActiveOffers)
	self.cache.Delete(cacheKeyStats)

	c.Status(http.StatusNoContent)
}

func (self *Server) onBuyerHistory(c *gin.Context) {
	buyer := common.HexToAddress(c.Param("address"))

	purchases := self.ledger.PurchasesByBuyer(buyer)

	out := &response.BuyerHistory{
		Buyer:   buyer.Hex(),
		Entries: make([]response.HistoryEntry, 0, len(purchases)),
	}

	for _, purchase := range purchases {
		entry := response.HistoryEntry{
			Purchase: *response.PurchaseToResponse(purchase),
		}

		offer, err := self.ledger.GetOffer(purchase.OfferID)
		if err == nil {
			entry.OfferTitle = offer.Title
			entry.OfferCreator = offer.Creator.Hex()
		}

		out.Entries = append(out.Entries, entry)
	}

	c.JSON(http.StatusOK, out)
}
