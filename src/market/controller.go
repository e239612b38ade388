package market

import (
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/encoder"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/config"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/model"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/monitoring"
	monitor_market "github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/monitoring/market"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/publisher"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/task"
)

type Controller struct {
	*task.Task

	// Created once, shared with the API server wired on top
	Ledger  *Ledger
	Monitor monitoring.Monitor
}

// Main class that orchestrates the marketplace functionalities.
// Setups the ledger, persistence, reveal resolution and notifications.
// The ledger itself lives outside the watchdog, only the stages talking to
// external systems get restarted on failure.
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)

	self.Task = task.NewTask(config, "market-controller")

	monitor := monitor_market.NewMonitor().
		WithMaxHistorySize(30)
	self.Monitor = monitor

	server := monitoring.NewServer(config).
		WithMonitor(monitor)

	sdk, oracle := newBackend(config)

	self.Ledger = NewLedger(config).
		WithSDK(sdk).
		WithBank(NewMemoryBank()).
		WithMonitor(monitor)

	// Subscriptions outlive watchdog restarts
	storeEvents := self.Ledger.Subscribe(config.Market.EventChannelSize)
	resolverEvents := self.Ledger.Subscribe(config.Market.EventChannelSize)
	var notifierEvents chan *Event
	if config.Redis.Enabled {
		notifierEvents = self.Ledger.Subscribe(config.Market.EventChannelSize)
	}

	watched := func() *task.Task {
		db, err := model.NewConnection(self.Ctx, self.Config, "market")
		if err != nil {
			panic(err)
		}

		store := NewStore(config).
			WithInputChannel(storeEvents).
			WithLedger(self.Ledger).
			WithMonitor(monitor).
			WithDB(db)

		resolver := NewResolver(config).
			WithInputChannel(resolverEvents).
			WithOracle(oracle).
			WithLedger(self.Ledger).
			WithMonitor(monitor)

		redisPublisher := publisher.NewRedisPublisher[*Event](config, config.Redis, "market-redis-publisher").
			WithChannelName(config.Market.NotifierChannelName).
			WithInputChannel(notifierEvents).
			WithMonitor(monitor)

		return task.NewTask(config, "watched-market").
			WithSubtask(store.Task).
			WithSubtask(resolver.Task).
			WithConditionalSubtask(config.Redis.Enabled, redisPublisher.Task)
	}

	watchdog := task.NewWatchdog(config).
		WithTask(watched).
		WithIsOK(func() bool {
			isOK := monitor.IsOK()
			if !isOK {
				monitor.GetReport().Run.Errors.NumWatchdogRestarts.Inc()
			}
			return isOK
		})

	self.Task = self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(server.Task).
		WithSubtask(watchdog.Task).
		WithOnStop(self.Ledger.Close)

	return
}

// Local backend keeps ciphertexts in process, the remote one calls out
// to the coprocessor and the decryption oracle
func newBackend(config *config.Config) (sdk encoder.SDK, oracle encoder.Oracle) {
	if config.Encoder.Backend == "remote" {
		return encoder.NewRemoteSDK(config), encoder.NewRemoteOracle(config)
	}
	local := encoder.NewLocalSDK()
	return local, local
}
