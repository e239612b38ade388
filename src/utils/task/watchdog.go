package task

import (
	"time"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/config"
)

// Watchdog supervises a task created by a factory function. The watched task
// gets recreated and restarted whenever the health check fails.
type Watchdog struct {
	*Task

	taskFactory func() *Task
	isOK        func() bool
	checkPeriod time.Duration

	watched *Task
}

func NewWatchdog(config *config.Config) (self *Watchdog) {
	self = new(Watchdog)

	self.checkPeriod = 30 * time.Second

	self.Task = NewTask(config, "watchdog").
		WithOnBeforeStart(self.startWatched).
		WithOnAfterStop(self.stopWatched).
		WithSubtaskFunc(self.run)

	return
}

func (self *Watchdog) WithTask(f func() *Task) *Watchdog {
	self.taskFactory = f
	return self
}

func (self *Watchdog) WithIsOK(f func() bool) *Watchdog {
	self.isOK = f
	return self
}

func (self *Watchdog) WithCheckPeriod(v time.Duration) *Watchdog {
	self.checkPeriod = v
	return self
}

func (self *Watchdog) startWatched() (err error) {
	self.watched = self.taskFactory()
	return self.watched.Start()
}

func (self *Watchdog) stopWatched() {
	if self.watched == nil {
		return
	}
	self.watched.StopWait()
	self.watched = nil
}

// The period is read every round, so WithCheckPeriod takes effect whenever
// it is called before Start
func (self *Watchdog) run() (err error) {
	for {
		select {
		case <-self.StopChannel:
			self.Log.Debug("Task stopped")
			return nil
		case <-time.After(self.checkPeriod):
		}

		err = self.check()
		if err != nil {
			return
		}
	}
}

func (self *Watchdog) check() (err error) {
	if self.isOK == nil || self.isOK() {
		return
	}

	self.Log.Warn("Watched task is not OK, restarting")

	self.stopWatched()

	select {
	case <-self.Ctx.Done():
		return
	default:
	}

	return self.startWatched()
}
