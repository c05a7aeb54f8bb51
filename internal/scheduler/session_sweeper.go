package scheduler

import (
	"time"

	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// IdleEvicter is the part of the session service the sweeper drives.
type IdleEvicter interface {
	EvictIdle(maxIdle time.Duration) int
}

// SessionSweeper periodically drops sessions that have been idle longer than maxIdle.
type SessionSweeper struct {
	cron     *cron.Cron
	sessions IdleEvicter
	schedule string
	maxIdle  time.Duration
}

func NewSessionSweeper(sessions IdleEvicter, schedule string, maxIdle time.Duration) *SessionSweeper {
	return &SessionSweeper{
		cron:     cron.New(),
		sessions: sessions,
		schedule: schedule,
		maxIdle:  maxIdle,
	}
}

// Start registers the sweep job and starts the cron runner.
func (s *SessionSweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.RunNow()
	})
	if err != nil {
		logger.Error("Failed to add cron job for session sweep", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Session sweeper started", map[string]interface{}{
		"schedule": s.schedule,
		"max_idle": s.maxIdle.String(),
	})
	return nil
}

// RunNow performs one sweep synchronously.
func (s *SessionSweeper) RunNow() int {
	evicted := s.sessions.EvictIdle(s.maxIdle)
	logger.Debug("Session sweep finished", map[string]interface{}{
		"evicted": evicted,
	})
	return evicted
}

// Stop waits for a running sweep to finish.
func (s *SessionSweeper) Stop() {
	logger.Info("Stopping session sweeper...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Session sweeper stopped", nil)
}
