package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
)

func TestWatchdogTestSuite(t *testing.T) {
	suite.Run(t, new(WatchdogTestSuite))
}

type WatchdogTestSuite struct {
	suite.Suite
}

func (s *WatchdogTestSuite) TestRestartsUnhealthyTask() {
	var starts atomic.Int64
	healthy := atomic.NewBool(false)

	watchdog := NewWatchdog(nil).
		WithCheckPeriod(10 * time.Millisecond).
		WithTask(func() *Task {
			starts.Inc()
			return NewTask(nil, "watched")
		}).
		WithIsOK(healthy.Load)

	s.Require().NoError(watchdog.Start())

	// With the default 30s period no restart would happen here, so this also
	// covers that the configured period is in effect
	s.Eventually(func() bool { return starts.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	healthy.Store(true)
	time.Sleep(50 * time.Millisecond)
	count := starts.Load()
	time.Sleep(50 * time.Millisecond)
	s.Equal(count, starts.Load())

	watchdog.StopWait()
}

func (s *WatchdogTestSuite) TestHealthyTaskStartsOnce() {
	var starts atomic.Int64

	watchdog := NewWatchdog(nil).
		WithCheckPeriod(10 * time.Millisecond).
		WithTask(func() *Task {
			starts.Inc()
			return NewTask(nil, "watched")
		}).
		WithIsOK(func() bool { return true })

	s.Require().NoError(watchdog.Start())

	time.Sleep(100 * time.Millisecond)
	s.Equal(int64(1), starts.Load())

	watchdog.StopWait()
}
