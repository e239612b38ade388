package gateway

import (
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/encoder"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/gateway/request"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/gateway/response"
	. "github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

func (self *Server) onRequestReveal(c *gin.Context) {
	id, ok := offerId(c)
	if !ok {
		return
	}

	var in = new(request.RequestReveal)
	err := c.ShouldBindJSON(in)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
		return
	}

	handles, err := self.ledger.RequestReveal(c, common.HexToAddress(in.Caller), id)
	if err != nil {
		LOGE(c, err, errorStatus(err)).Error("Failed to request reveal")
		return
	}

	out := &response.RevealRequested{OfferID: id}
	for _, handle := range handles {
		out.Handles = append(out.Handles, handle.String())
	}

	c.JSON(http.StatusAccepted, out)
}

// Manual callback entry point, normally the resolver feeds callbacks in by
// itself. Kept for external oracles pushing results over HTTP.
func (self *Server) onResolveCallback(c *gin.Context) {
	id, ok := offerId(c)
	if !ok {
		return
	}

	var in = new(request.ResolveCallback)
	err := c.ShouldBindJSON(in)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
		return
	}

	cleartext, err := hex.DecodeString(strings.TrimPrefix(in.Cleartext, "0x"))
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Malformed cleartext")
		return
	}

	proof, err := encoder.ParseProof(in.Proof)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Malformed proof")
		return
	}

	err = self.ledger.ResolveCallback(c, id, cleartext, proof)
	if err != nil {
		LOGE(c, err, errorStatus(err)).Error("Failed to resolve callback")
		return
	}

	c.Status(http.StatusNoContent)
}
