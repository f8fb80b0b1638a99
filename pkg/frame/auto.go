package frame

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"epaperdash/pkg/settings"
)

const minRefreshInterval = 30 * time.Second

// Loop is the dashboard auto-refresh task. Start and Stop are idempotent;
// Stop takes effect immediately because the loop waits on the earlier of
// "interval elapsed" or "stop requested" instead of polling a flag. A failed
// tick is logged and never terminates the loop.
type Loop struct {
	ctrl     *Controller
	settings *settings.Store
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewLoop(ctrl *Controller, st *settings.Store, logger *zap.Logger) *Loop {
	return &Loop{ctrl: ctrl, settings: st, logger: logger}
}

func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return
	}
	l.running = true
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.run(l.stop, l.done)
}

func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.stop)
	done := l.done
	l.mu.Unlock()

	<-done
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(time.Nanosecond)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
			l.tick()
			timer.Reset(l.interval())
		}
	}
}

func (l *Loop) tick() {
	if l.settings.Get().Mode != "dashboard" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), minRefreshInterval)
	defer cancel()

	if err := l.ctrl.RenderDashboard(ctx); err != nil {
		l.logger.With(zap.Error(err)).Error("auto refresh tick failed")
		return
	}
	l.logger.Info("dashboard frame displayed")
}

func (l *Loop) interval() time.Duration {
	d := time.Duration(l.settings.Get().Interval) * time.Second
	if d < minRefreshInterval {
		d = minRefreshInterval
	}
	return d
}
