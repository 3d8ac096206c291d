package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// loadMessages resolves every definition in the Catalog into a
// Message, in Catalog order.
//
// Definitions with an unresolvable action or trigger are dropped
// quietly.  So are definitions with no triggers at all, since such a
// message could never be selected.
func (s *Messaging) loadMessages(ctx context.Context, c *Catalog) ([]*Message, error) {
	stored, err := s.Store.GetAllMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("get metadata: %w", err)
	}
	metadata := make(map[string]*Metadata, len(stored))
	for _, md := range stored {
		metadata[md.Id] = md
	}

	log := s.logger()

	acc := make([]*Message, 0, len(c.Messages))
	for _, def := range c.Messages {
		if def.Data == nil {
			continue
		}
		action, ok := SanitizeAction(def.Data.Action, c.Actions)
		if !ok {
			log.Debug("dropping message with bad action",
				zap.String("message", def.Id),
				zap.String("action", def.Data.Action))
			continue
		}
		triggers, ok := SanitizeTriggers(def.Data.Trigger, c.Triggers)
		if !ok || len(triggers) == 0 {
			log.Debug("dropping message with bad triggers",
				zap.String("message", def.Id),
				zap.Strings("triggers", def.Data.Trigger))
			continue
		}

		md, have := metadata[def.Id]
		if !have {
			if md, err = s.addMetadata(ctx, def.Id); err != nil {
				return nil, err
			}
		}

		acc = append(acc, &Message{
			Id:       def.Id,
			Data:     def.Data,
			Action:   action,
			Style:    c.Style(def.Data.Style),
			Triggers: triggers,
			Metadata: md,
		})
	}

	return acc, nil
}
