package sio

import (
	"os"
	"sync"
	"time"

	"github.com/Comcast/nudge/core"
)

// ReadCatalog reads and parses a YAML or JSON catalog file.
func ReadCatalog(filename string) (*core.Catalog, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return core.ParseCatalog(src)
}

// Holder is a core.CatalogSource whose Catalog can be replaced at
// any time.
//
// Each Catalog is a snapshot.  Set replaces the snapshot and never
// modifies the old one, so a caller that got the old one can keep
// using it.
type Holder struct {
	sync.RWMutex

	c       *core.Catalog
	version int
	updated time.Time
}

// NewHolder makes a Holder with the given (possibly nil) Catalog.
func NewHolder(c *core.Catalog) *Holder {
	h := &Holder{}
	if c != nil {
		h.Set(c)
	}
	return h
}

func (h *Holder) Catalog() *core.Catalog {
	h.RLock()
	defer h.RUnlock()
	return h.c
}

// Set replaces the current Catalog.
func (h *Holder) Set(c *core.Catalog) {
	h.Lock()
	h.c = c
	h.version++
	h.updated = time.Now()
	h.Unlock()
}

// Version is the number of times Set has been called.
func (h *Holder) Version() (int, time.Time) {
	h.RLock()
	defer h.RUnlock()
	return h.version, h.updated
}
