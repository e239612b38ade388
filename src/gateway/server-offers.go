package gateway

import (
	"net/http"
	"strconv"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/encoder"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/gateway/request"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/gateway/response"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/market"
	. "github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

const (
	cacheKeyActiveOffers = "active-offers"
	cacheKeyStats        = "stats"
)

func offerId(c *gin.Context) (id uint64, ok bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Malformed offer id")
		return 0, false
	}
	return id, true
}

func (self *Server) onCreateOffer(c *gin.Context) {
	var in = new(request.CreateOffer)
	err := c.ShouldBindJSON(in)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
		return
	}

	offer, err := self.ledger.CreateOffer(c, common.HexToAddress(in.Caller), market.CreateOfferParams{
		Title:        in.Title,
		Description:  in.Description,
		Price:        in.Price,
		DurationDays: in.DurationDays,
		Slots:        in.Slots,
	})
	if err != nil {
		LOGE(c, err, errorStatus(err)).Error("Failed to create offer")
		return
	}

	self.cache.Delete(cacheKeyActiveOffers)
	self.cache.Delete(cacheKeyStats)

	c.JSON(http.StatusCreated, response.OfferToResponse(offer))
}

func (self *Server) onCreateOfferEncrypted(c *gin.Context) {
	var in = new(request.CreateOfferEncrypted)
	err := c.ShouldBindJSON(in)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
		return
	}

	priceHandle, err := encoder.ParseHandle(in.PriceHandle)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Malformed price handle")
		return
	}
	durationHandle, err := encoder.ParseHandle(in.DurationHandle)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Malformed duration handle")
		return
	}
	slotsHandle, err := encoder.ParseHandle(in.SlotsHandle)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Malformed slots handle")
		return
	}
	proof, err := encoder.ParseProof(in.Proof)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Malformed proof")
		return
	}

	offer, err := self.ledger.CreateOfferEncrypted(c, common.HexToAddress(in.Caller),
		market.CreateOfferParams{
			Title:        in.Title,
			Description:  in.Description,
			Price:        in.Price,
			DurationDays: in.DurationDays,
			Slots:        in.Slots,
		},
		priceHandle, durationHandle, slotsHandle, proof)
	if err != nil {
		LOGE(c, err, errorStatus(err)).Error("Failed to import encrypted offer")
		return
	}

	self.cache.Delete(cacheKeyActiveOffers)
	self.cache.Delete(cacheKeyStats)

	c.JSON(http.StatusCreated, response.OfferToResponse(offer))
}

func (self *Server) onGetOffer(c *gin.Context) {
	id, ok := offerId(c)
	if !ok {
		return
	}

	offer, err := self.ledger.GetOffer(id)
	if err != nil {
		LOGE(c, err, errorStatus(err)).Debug("Offer not found")
		return
	}

	c.JSON(http.StatusOK, response.OfferToResponse(offer))
}

func (self *Server) onListActiveOffers(c *gin.Context) {
	cached, found := self.cache.Get(cacheKeyActiveOffers)
	if found {
		c.JSON(http.StatusOK, cached)
		return
	}

	out := &response.ActiveOffers{Ids: self.ledger.ActiveOfferIDs()}
	self.cache.SetDefault(cacheKeyActiveOffers, out)

	c.JSON(http.StatusOK, out)
}

func (self *Server) onGetHandles(c *gin.Context) {
	id, ok := offerId(c)
	if !ok {
		return
	}

	handles, err := self.ledger.HandlesByOffer(id)
	if err != nil {
		LOGE(c, err, errorStatus(err)).Debug("Offer not found")
		return
	}

	c.JSON(http.StatusOK, &response.Handles{
		OfferID:        id,
		PriceHandle:    handles[0].String(),
		DurationHandle: handles[1].String(),
		SlotsHandle:    handles[2].String(),
	})
}

func (self *Server) onGetGrants(c *gin.Context) {
	id, ok := offerId(c)
	if !ok {
		return
	}

	// Ensure the offer exists so unknown ids don't come back as empty lists
	_, err := self.ledger.GetOffer(id)
	if err != nil {
		LOGE(c, err, errorStatus(err)).Debug("Offer not found")
		return
	}

	out := &response.Grants{OfferID: id}
	for _, grant := range self.ledger.Grants(id) {
		out.Grants = append(out.Grants, response.Grant{
			Subject: grant.Subject.Hex(),
			Handle:  grant.Handle.String(),
		})
	}

	c.JSON(http.StatusOK, out)
}

func (self *Server) onGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, &response.PlatformConfig{
		Owner:          self.ledger.Owner().Hex(),
		Treasury:       self.ledger.Treasury().Hex(),
		FeeBasisPoints: self.ledger.FeeBasisPoints(),
	})
}

func (self *Server) onCreatorOffers(c *gin.Context) {
	creator := common.HexToAddress(c.Param("address"))

	c.JSON(http.StatusOK, &response.CreatorOffers{
		Creator: creator.Hex(),
		Ids:     self.ledger.OffersByCreator(creator),
	})
}

func (self *Server) onGetStats(c *gin.Context) {
	cached, found := self.cache.Get(cacheKeyStats)
	if found {
		c.JSON(http.StatusOK, cached)
		return
	}

	stats := self.ledger.GetStats()
	self.cache.SetDefault(cacheKeyStats, stats)

	c.JSON(http.StatusOK, stats)
}
