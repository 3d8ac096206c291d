package sio

import (
	"context"

	"github.com/Comcast/nudge/core"

	"go.uber.org/zap"
)

// LoggingExposures logs each exposure.
type LoggingExposures struct {
	Logger *zap.Logger
}

func (e *LoggingExposures) RecordExposure(ctx context.Context, m *core.Message) error {
	e.Logger.Info("exposure", zap.String("message", m.Id))
	return nil
}

// MultiExposures sends each exposure to every recorder.
//
// All recorders are called even when some fail.  The first error is
// returned.
type MultiExposures []core.ExposureRecorder

func (es MultiExposures) RecordExposure(ctx context.Context, m *core.Message) error {
	var first error
	for _, e := range es {
		if e == nil {
			continue
		}
		if err := e.RecordExposure(ctx, m); err != nil && first == nil {
			first = err
		}
	}
	return first
}
