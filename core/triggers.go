package core

import (
	"context"

	"go.uber.org/zap"
)

// TriggerCache maps an expression to its value.
//
// A TriggerCache should only live as long as a single selection.
// Attributes can change between selections.
type TriggerCache map[string]bool

// isMessageEligible reports whether all of the message's triggers
// are true.
//
// An expression that fails to evaluate is false, and that result is
// cached like any other so the failure is evaluated and logged once.
func (s *Messaging) isMessageEligible(ctx context.Context, m *Message, helper Helper, cache TriggerCache) bool {
	for _, condition := range m.Triggers {
		result, have := cache[condition]
		if !have {
			var err error
			if result, err = helper.Evaluate(ctx, condition); err != nil {
				s.logger().Info("unable to evaluate trigger",
					zap.String("message", m.Id),
					zap.String("condition", condition),
					zap.Error(err))
				cache[condition] = false
				return false
			}
			cache[condition] = result
		}
		if !result {
			return false
		}
	}
	return true
}
