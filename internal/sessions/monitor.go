package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/brain-io/agent/internal/models"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

const DefaultMonitorInterval = 300 * time.Second

// SessionGetter is satisfied by Manager
type SessionGetter interface {
	GetSession(ctx context.Context) (*models.Session, error)
}

// Monitor keeps the session warm by calling GetSession on a fixed interval.
// A slow tick (for example one waiting on biometric verification) is never
// overlapped by the next one.
type Monitor struct {
	sessions SessionGetter
	interval time.Duration
}

func NewMonitor(sessions SessionGetter, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	return &Monitor{
		sessions: sessions,
		interval: interval,
	}
}

// Run checks the session immediately and then every interval until ctx is
// done. Errors from a single check are logged and retried on the next tick.
func (m *Monitor) Run(ctx context.Context) error {

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	if _, err := scheduler.Every(m.interval).StartImmediately().Do(m.check, ctx); err != nil {
		return fmt.Errorf("failed to schedule session monitor: %w", err)
	}

	logrus.WithField("interval", m.interval).Infoln("Starting session monitor")

	scheduler.StartAsync()

	<-ctx.Done()

	scheduler.Stop()

	logrus.Infoln("Session monitor stopped")

	return nil
}

func (m *Monitor) check(ctx context.Context) {

	if ctx.Err() != nil {
		return
	}

	session, err := m.sessions.GetSession(ctx)
	if err != nil {
		logrus.WithError(err).Errorln("Session check failed")
		return
	}

	logrus.WithFields(logrus.Fields{
		"session":   session.ID,
		"remaining": session.Remaining(time.Now()).Round(time.Second),
	}).Infoln("Session is valid")
}
