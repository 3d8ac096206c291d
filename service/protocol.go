package service

import (
	"context"
	"fmt"

	"github.com/Comcast/nudge/core"

	"go.uber.org/zap"
)

// Op is a service operation as it arrives over a websocket.
//
// The request fields are Op, Id, and Attributes.  Do fills in the
// rest.
type Op struct {
	// Op is one of "list", "next", "action", "displayed",
	// "dismissed", or "pressed".
	Op string `json:"op"`

	// Id is the message id for "action" and the lifecycle events.
	Id string `json:"id,omitempty"`

	// Attributes, if given, are used instead of the connection's
	// attributes.
	Attributes map[string]interface{} `json:"attributes,omitempty"`

	Messages []*core.Message `json:"messages,omitempty"`

	// Message is the "next" message.  Absent means nothing to show.
	Message  *core.Message  `json:"message,omitempty"`
	Action   string         `json:"action,omitempty"`
	Metadata *core.Metadata `json:"metadata,omitempty"`

	// Error will hold an error (if any) that results from
	// processing this operation.
	Error error `json:"-"`

	// Err will hold a string representation of an error (if any)
	// that results from processing this operation.
	Err string `json:"err,omitempty"`
}

// erred is a utility function to return values to assign to operation
// Error and Err fields.
func erred(err error) (error, string) {
	if err == nil {
		return nil, ""
	}
	return err, err.Error()
}

// opLabel keeps client-supplied op names out of metric labels.
func opLabel(op string) string {
	switch op {
	case "list", "next", "action", "displayed", "dismissed", "pressed":
		return op
	}
	return "unknown"
}

// Do performs the operation and records the results in the Op.
func (o *Op) Do(ctx context.Context, s *Service) error {
	if o.Attributes != nil {
		ctx = WithAttributes(ctx, o.Attributes)
	}

	t := NewTimer(opLabel(o.Op))

	var err error
	switch o.Op {
	case "list":
		o.Messages, err = s.List(ctx)
	case "next":
		o.Message, err = s.Next(ctx)
	case "action":
		o.Action, err = s.Action(ctx, o.Id)
	case "displayed", "dismissed", "pressed":
		o.Metadata, err = s.Event(ctx, o.Id, o.Op)
	default:
		err = &BadRequest{fmt.Sprintf("unknown op '%s'", o.Op)}
	}

	o.Error, o.Err = erred(err)

	result := "ok"
	if err != nil {
		result = "error"
		s.Logger.Info("op failed",
			zap.String("op", o.Op),
			zap.String("id", o.Id),
			zap.Error(err))
	}
	d := t.StopObserve(s.Metrics.Ops.WithLabelValues(t.Tag, result))
	s.Logger.Debug("op", zap.String("op", t.Tag), zap.Duration("elapsed", d))

	return o.Error
}
