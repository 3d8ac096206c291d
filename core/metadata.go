package core

import (
	"context"
	"fmt"
)

// UpdateMetadata writes the given Metadata to the store as is.
func (s *Messaging) UpdateMetadata(ctx context.Context, m *Metadata) error {
	return s.Store.UpdateMetadata(ctx, m)
}

// addMetadata has the store create a default record.
func (s *Messaging) addMetadata(ctx context.Context, id string) (*Metadata, error) {
	md, err := s.Store.AddMetadata(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("add metadata for %s: %w", id, err)
	}
	if md == nil {
		md = NewMetadata(id)
	}
	return md, nil
}
