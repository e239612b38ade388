package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/market"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/config"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/logger"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/monitoring"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/task"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"github.com/rs/xid"
)

// Public REST API of the marketplace. Mutating routes call straight into the
// ledger, hot read views get short-lived caching.
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	ledger  *market.Ledger
	monitor monitoring.Monitor

	cache *cache.Cache
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "gateway").
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	gin.SetMode(gin.ReleaseMode)
	self.Router = gin.New()
	self.Router.Use(gin.Recovery())

	self.cache = cache.New(config.Gateway.CacheExpiration, config.Gateway.CacheCleanupInterval)

	self.httpServer = &http.Server{
		Addr:         config.Gateway.ServerListenAddress,
		Handler:      self.Router,
		ReadTimeout:  config.Gateway.ServerRequestTimeout,
		WriteTimeout: config.Gateway.ServerRequestTimeout,
	}

	return
}

func (self *Server) WithLedger(v *market.Ledger) *Server {
	self.ledger = v
	return self
}

func (self *Server) WithMonitor(v monitoring.Monitor) *Server {
	self.monitor = v
	return self
}

func (self *Server) run() (err error) {
	self.routes()

	err = self.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		self.Log.WithError(err).Error("Failed to start gateway server")
		return
	}
	return nil
}

func (self *Server) routes() {
	v1 := self.Router.Group("v1", self.track)
	{
		v1.POST("offers", self.onCreateOffer)
		v1.POST("offers/encrypted", self.onCreateOfferEncrypted)
		v1.GET("offers", self.onListActiveOffers)
		v1.GET("offers/:id", self.onGetOffer)
		v1.GET("offers/:id/handles", self.onGetHandles)
		v1.GET("offers/:id/grants", self.onGetGrants)
		v1.POST("offers/:id/purchase", self.onPurchaseOffer)
		v1.POST("offers/:id/deactivate", self.onDeactivateOffer)
		v1.POST("offers/:id/reveal", self.onRequestReveal)
		v1.POST("offers/:id/callback", self.onResolveCallback)

		v1.GET("purchases/:id", self.onGetPurchase)
		v1.GET("creators/:address/offers", self.onCreatorOffers)
		v1.GET("buyers/:address/history", self.onBuyerHistory)
		v1.GET("stats", self.onGetStats)
		v1.GET("config", self.onGetConfig)

		admin := v1.Group("admin")
		{
			admin.POST("fee", self.onUpdateFee)
			admin.POST("treasury", self.onUpdateTreasury)
			admin.POST("withdraw", self.onEmergencyWithdraw)
		}
	}
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown gateway server")
		return
	}
}

// Tags every request with an id and a scoped logger, counts requests
func (self *Server) track(c *gin.Context) {
	requestId := xid.New().String()
	c.Header("X-Request-Id", requestId)
	logger.SetGinLogger(c, self.Log.WithField("request_id", requestId))

	self.monitor.GetReport().Market.State.GatewayRequests.Inc()

	c.Next()
}

// Maps the ledger error taxonomy onto HTTP statuses
func errorStatus(err error) int {
	switch {
	case errors.Is(err, market.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, market.ErrProofVerification):
		return http.StatusUnprocessableEntity
	case errors.Is(err, market.ErrPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, market.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrReentrantCall):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
