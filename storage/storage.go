// Package storage provides core.MetadataStore implementations.
//
// JSONStore is here.  Backends with real dependencies are in
// subpackages.  Use Open to pick one by name.
package storage

import (
	"context"
	"fmt"

	"github.com/Comcast/nudge/core"
	"github.com/Comcast/nudge/storage/bolt"
	"github.com/Comcast/nudge/storage/pebble"
)

// Storage is a core.MetadataStore with a lifecycle.
type Storage interface {
	core.MetadataStore

	Open(ctx context.Context) error
	Close(ctx context.Context) error
}

// Kinds are the names that Open understands.
var Kinds = []string{"mem", "json", "bolt", "pebble"}

// Open makes and opens a Storage of the given kind.
//
// "mem" ignores the path.  "json" and "bolt" want a filename.
// "pebble" wants a directory.
func Open(ctx context.Context, kind, path string) (Storage, error) {
	var (
		s   Storage
		err error
	)
	switch kind {
	case "mem", "":
		s = NewJSONStore("")
	case "json":
		s = NewJSONStore(path)
	case "bolt":
		s, err = bolt.NewStorage(path)
	case "pebble":
		s, err = pebble.NewStorage(path)
	default:
		return nil, fmt.Errorf("unknown storage kind '%s'", kind)
	}
	if err != nil {
		return nil, err
	}
	if kind != "mem" && kind != "" && path == "" {
		return nil, fmt.Errorf("storage kind '%s' needs a path", kind)
	}
	if err = s.Open(ctx); err != nil {
		return nil, fmt.Errorf("open %s storage: %w", kind, err)
	}
	return s, nil
}
