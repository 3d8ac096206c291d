package core

import (
	"context"
	"fmt"
)

// GetMessageAction renders the message's action.
//
// The Helper generates an id (typically a UUID) that's substituted
// into the action template.  Any error from the Platform or Helper is
// returned.
func (s *Messaging) GetMessageAction(ctx context.Context, m *Message) (string, error) {
	helper, err := s.createHelper(ctx)
	if err != nil {
		return "", fmt.Errorf("create helper: %w", err)
	}
	id := helper.GenerateID(m.Action)
	return helper.Format(m.Action, id)
}
