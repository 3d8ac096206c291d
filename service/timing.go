package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Timer measures an operation.
type Timer struct {
	Tag  string
	Then time.Time
}

func NewTimer(tag string) *Timer {
	return &Timer{
		Tag:  tag,
		Then: time.Now(),
	}
}

// Stop returns the time since the Timer started (or was last
// stopped) and restarts it.
func (t *Timer) Stop() time.Duration {
	now := time.Now()
	d := now.Sub(t.Then)
	t.Then = now
	return d
}

// StopObserve stops the Timer and reports the duration in seconds.
func (t *Timer) StopObserve(o prometheus.Observer) time.Duration {
	d := t.Stop()
	o.Observe(d.Seconds())
	return d
}
