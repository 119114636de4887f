// Package housekeeping runs a periodic, strictly observational sweep
// over the session manager: refresh the active-session gauge and log
// sessions whose process has exited but have not yet been explicitly
// stopped. It never mutates or stops a session — §7 is explicit that
// "no eager reaping" is required, and this sweep preserves that.
//
// Grounded on the teacher's robfig/cron/v3 usage in
// internal/schedule/cron.go, trimmed to a single fixed interval since
// this domain has no user-configurable schedules.
package housekeeping

import (
	"fmt"
	"time"

	"github.com/quietloop/sessionmcp/internal/logger"
	"github.com/quietloop/sessionmcp/internal/metrics"
	"github.com/quietloop/sessionmcp/internal/shellsession"
	"github.com/robfig/cron/v3"
)

// Sweeper periodically inspects a Manager's sessions without mutating
// them.
type Sweeper struct {
	manager *shellsession.Manager
	cron    *cron.Cron
}

// New creates a Sweeper that runs every interval, expressed to
// robfig/cron as an "@every" duration spec.
func New(manager *shellsession.Manager, interval time.Duration) (*Sweeper, error) {
	c := cron.New()
	s := &Sweeper{manager: manager, cron: c}
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), s.sweep); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the periodic sweep in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
	logger.Info("housekeeping sweeper started")
}

// Stop halts the sweep, waiting for any in-flight run to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("housekeeping sweeper stopped")
}

// sweep refreshes the active-session gauge and logs (but never stops)
// sessions whose process has already exited.
func (s *Sweeper) sweep() {
	infos := s.manager.List()
	metrics.ActiveSessions.Set(float64(len(infos)))

	for _, info := range infos {
		if !info.Running {
			logger.Info("session %s process has exited but has not been stopped (uptime %s)", info.ID, info.Uptime)
		}
	}
}
