package core

import (
	"context"
)

// These functions are for the presentation layer, which owns the
// display, dismiss, and press events.  Selection never calls them.
//
// Each returns the updated Metadata, which has been written to the
// store.  The given Message is not modified.

// OnMessageDisplayed counts a display of the message.
func (s *Messaging) OnMessageDisplayed(ctx context.Context, m *Message) (*Metadata, error) {
	md := m.Metadata.Copy()
	md.DisplayCount++
	return md, s.UpdateMetadata(ctx, md)
}

// OnMessageDismissed records that the user dismissed the message.
func (s *Messaging) OnMessageDismissed(ctx context.Context, m *Message) (*Metadata, error) {
	md := m.Metadata.Copy()
	md.Dismissed = true
	return md, s.UpdateMetadata(ctx, md)
}

// OnMessagePressed records that the user acted on the message.
func (s *Messaging) OnMessagePressed(ctx context.Context, m *Message) (*Metadata, error) {
	md := m.Metadata.Copy()
	md.Pressed = true
	return md, s.UpdateMetadata(ctx, md)
}
