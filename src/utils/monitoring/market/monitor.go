package monitor_market

import (
	"math"
	"net/http"
	"time"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/monitoring/report"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/task"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	historySize int

	collector *Collector

	// Purchase throughput history
	PurchaseCounts *deque.Deque[int64]
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:     &report.RunReport{},
		Market:  &report.MarketReport{},
		Indexer: &report.IndexerReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorPurchases)

	return self.WithMaxHistorySize(30)
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.historySize = maxHistorySize
	self.PurchaseCounts = deque.New[int64](self.historySize)
	return self
}

func (self *Monitor) Clear() {
	self.PurchaseCounts.Clear()
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Measure purchase throughput
func (self *Monitor) monitorPurchases() (err error) {
	loaded := self.Report.Market.State.OffersPurchased.Load()
	if loaded == 0 {
		// Neglect the first 0
		return
	}

	self.PurchaseCounts.PushBack(loaded)
	if self.PurchaseCounts.Len() > self.historySize {
		self.PurchaseCounts.PopFront()
	}
	value := float64(self.PurchaseCounts.Back()-self.PurchaseCounts.Front()) / float64(self.PurchaseCounts.Len())
	self.Report.Market.State.AveragePurchasesPerMinute.Store(round(value))
	return
}

func (self *Monitor) IsOK() bool {
	// The ledger is demand driven, it is healthy as long as it runs
	return true
}

func (self *Monitor) OnGetState(c *gin.Context) {
	self.Report.Run.State.UpForSeconds.Store(uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()))

	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if self.IsOK() {
		c.Status(http.StatusOK)
	} else {
		c.Status(http.StatusServiceUnavailable)
	}
}
