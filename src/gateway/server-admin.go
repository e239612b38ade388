package gateway

import (
	"net/http"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/gateway/request"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/gateway/response"
	. "github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

func (self *Server) onUpdateFee(c *gin.Context) {
	var in = new(request.UpdateFee)
	err := c.ShouldBindJSON(in)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
		return
	}

	err = self.ledger.UpdateFee(c, common.HexToAddress(in.Caller), in.FeeBasisPoints)
	if err != nil {
		LOGE(c, err, errorStatus(err)).Error("Failed to update fee")
		return
	}

	c.Status(http.StatusNoContent)
}

func (self *Server) onUpdateTreasury(c *gin.Context) {
	var in = new(request.UpdateTreasury)
	err := c.ShouldBindJSON(in)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
		return
	}

	err = self.ledger.UpdateTreasury(c, common.HexToAddress(in.Caller), common.HexToAddress(in.Treasury))
	if err != nil {
		LOGE(c, err, errorStatus(err)).Error("Failed to update treasury")
		return
	}

	c.Status(http.StatusNoContent)
}

func (self *Server) onEmergencyWithdraw(c *gin.Context) {
	var in = new(request.EmergencyWithdraw)
	err := c.ShouldBindJSON(in)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
		return
	}

	amount, err := self.ledger.EmergencyWithdraw(c, common.HexToAddress(in.Caller))
	if err != nil {
		LOGE(c, err, errorStatus(err)).Error("Failed to withdraw")
		return
	}

	c.JSON(http.StatusOK, &response.Withdraw{Amount: amount})
}
