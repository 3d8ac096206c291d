package core

import (
	"context"
)

// MetadataStore is a persistence interface for message Metadata.
//
// The store owns consistency.  Messaging only reads everything,
// adds defaults, and writes updates through unchanged.
type MetadataStore interface {
	GetAllMetadata(ctx context.Context) ([]*Metadata, error)

	// AddMetadata creates and stores a default record for the
	// given id and returns what was stored.
	AddMetadata(ctx context.Context, id string) (*Metadata, error)

	UpdateMetadata(ctx context.Context, m *Metadata) error
}

// Platform creates Helpers.  A Platform is the gateway to the
// experimentation system's expression evaluator.
type Platform interface {
	CreateHelper(ctx context.Context, attributes map[string]interface{}) (Helper, error)
}

// Helper evaluates trigger expressions and formats actions for one
// set of attributes.
type Helper interface {
	// Evaluate should return an *EvaluationError when the
	// expression is malformed or refers to unknown attributes.
	Evaluate(ctx context.Context, expr string) (bool, error)

	// GenerateID returns an identifier to substitute into the
	// given action template.  It may return "" if the template
	// has no use for one.
	GenerateID(template string) string

	// Format renders the action template with the given id.
	Format(template, id string) (string, error)
}

// ExposureRecorder hears when a message under experiment was
// selected for display.
type ExposureRecorder interface {
	RecordExposure(ctx context.Context, m *Message) error
}

// CatalogSource provides the current Catalog, which can be nil if
// none is available.
type CatalogSource interface {
	Catalog() *Catalog
}

// StaticCatalog is a CatalogSource that always returns the same
// Catalog.
type StaticCatalog struct {
	C *Catalog
}

func (s *StaticCatalog) Catalog() *Catalog {
	return s.C
}

// AttributeProvider gathers custom attributes for expression
// evaluation.
type AttributeProvider func(ctx context.Context) map[string]interface{}
