// Package service exposes a core.Messaging over HTTP and websockets.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Comcast/nudge/core"
	"github.com/Comcast/nudge/tools"

	"go.uber.org/zap"
)

// Service answers message-selection operations for one user.
type Service struct {
	Messaging *core.Messaging
	Metrics   *Metrics
	Logger    *zap.Logger

	// Websockets enables /ws/api.
	Websockets bool
}

// NewService serves a copy of the given Messaging, which is left
// alone.
//
// If the Messaging has no AttributeProvider, the copy gets one that
// reads attributes from the context (see WithAttributes).  The copy's
// ExposureRecorder is wrapped to count exposures for this Service.
func NewService(m *core.Messaging, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := NewMetrics()

	mine := *m
	if mine.Attributes == nil {
		mine.Attributes = AttributesFromContext
	}
	mine.Exposures = &countingExposures{
		next:    m.Exposures,
		counter: metrics.Exposures,
	}

	return &Service{
		Messaging:  &mine,
		Metrics:    metrics,
		Logger:     logger,
		Websockets: true,
	}
}

type attributesKey struct{}

// WithAttributes returns a context carrying the custom attributes
// for trigger evaluation.
func WithAttributes(ctx context.Context, attrs map[string]interface{}) context.Context {
	return context.WithValue(ctx, attributesKey{}, attrs)
}

// AttributesFromContext is a core.AttributeProvider for attributes
// given to WithAttributes.
func AttributesFromContext(ctx context.Context) map[string]interface{} {
	attrs, _ := ctx.Value(attributesKey{}).(map[string]interface{})
	return attrs
}

// List returns the available messages in priority order.
func (s *Service) List(ctx context.Context) ([]*core.Message, error) {
	return s.Messaging.ListEligibleMessages(ctx)
}

// Next returns the message to show, which can be nil.
func (s *Service) Next(ctx context.Context) (*core.Message, error) {
	ms, err := s.Messaging.ListEligibleMessages(ctx)
	if err != nil {
		s.Metrics.Selections.WithLabelValues("error").Inc()
		return nil, err
	}
	m, err := s.Messaging.GetNextMessage(ctx, ms)
	switch {
	case err != nil:
		s.Metrics.Selections.WithLabelValues("error").Inc()
	case m == nil:
		s.Metrics.Selections.WithLabelValues("none").Inc()
	default:
		s.Metrics.Selections.WithLabelValues("message").Inc()
	}
	return m, err
}

// Action resolves the action for the message with the given id.
func (s *Service) Action(ctx context.Context, id string) (string, error) {
	m, err := s.Messaging.FindMessage(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Messaging.GetMessageAction(ctx, m)
}

// Events are the lifecycle events that Event understands.
var Events = []string{"displayed", "dismissed", "pressed"}

// UnknownEvent is returned by Event.
type UnknownEvent struct {
	Event string
}

func (e *UnknownEvent) Error() string {
	return fmt.Sprintf("unknown event '%s'", e.Event)
}

// Event records that the message was displayed, dismissed, or
// pressed.  Returns the updated metadata.
func (s *Service) Event(ctx context.Context, id, event string) (*core.Metadata, error) {
	var f func(context.Context, *core.Message) (*core.Metadata, error)
	switch event {
	case "displayed":
		f = s.Messaging.OnMessageDisplayed
	case "dismissed":
		f = s.Messaging.OnMessageDismissed
	case "pressed":
		f = s.Messaging.OnMessagePressed
	default:
		return nil, &UnknownEvent{event}
	}

	m, err := s.Messaging.FindMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	md, err := f(ctx, m)
	if err != nil {
		return nil, err
	}
	s.Metrics.Events.WithLabelValues(event).Inc()
	return md, nil
}

// UpdateMetadata replaces a message's metadata.
func (s *Service) UpdateMetadata(ctx context.Context, md *core.Metadata) error {
	if md == nil || md.Id == "" {
		return &BadRequest{"metadata needs an id"}
	}
	return s.Messaging.UpdateMetadata(ctx, md)
}

// Catalog returns the current catalog snapshot.
func (s *Service) Catalog(ctx context.Context) (*core.Catalog, error) {
	var c *core.Catalog
	if s.Messaging.Catalogs != nil {
		c = s.Messaging.Catalogs.Catalog()
	}
	if c == nil {
		return nil, core.NoCatalog
	}
	return c, nil
}

// Report analyzes the current catalog.
func (s *Service) Report(ctx context.Context) (*tools.CatalogAnalysis, error) {
	c, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return tools.Analyze(c)
}

// BadRequest is a problem with a request.
type BadRequest struct {
	Msg string
}

func (e *BadRequest) Error() string {
	return e.Msg
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var (
		unknownMessage *core.UnknownMessage
		unknownEvent   *UnknownEvent
		badRequest     *BadRequest
	)
	switch {
	case errors.As(err, &unknownMessage), errors.As(err, &unknownEvent):
		return http.StatusNotFound
	case errors.As(err, &badRequest), errors.Is(err, core.MissingMetadata):
		return http.StatusBadRequest
	case errors.Is(err, core.NoCatalog):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
