// Package pebble is a core.MetadataStore backed by Pebble.  Records
// are encoded with msgpack.
package pebble

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/Comcast/nudge/core"

	"github.com/cockroachdb/pebble"
	"github.com/vmihailenco/msgpack/v5"
)

var prefix = []byte("meta:")

// record is the stored form of core.Metadata.  The id is in the key.
type record struct {
	DisplayCount int  `msgpack:"displayCount"`
	Pressed      bool `msgpack:"pressed"`
	Dismissed    bool `msgpack:"dismissed"`
}

type Storage struct {
	dir string
	db  *pebble.DB
}

// NewStorage makes a Storage that will use the given directory.
func NewStorage(dir string) (*Storage, error) {
	return &Storage{
		dir: dir,
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.dir), 0700); err != nil {
		return err
	}
	db, err := pebble.Open(s.dir, &pebble.Options{})
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func key(id string) []byte {
	return append(append([]byte{}, prefix...), id...)
}

func encode(md *core.Metadata) ([]byte, error) {
	return msgpack.Marshal(&record{
		DisplayCount: md.DisplayCount,
		Pressed:      md.Pressed,
		Dismissed:    md.Dismissed,
	})
}

func decode(id string, bs []byte) (*core.Metadata, error) {
	var r record
	if err := msgpack.Unmarshal(bs, &r); err != nil {
		return nil, err
	}
	return &core.Metadata{
		Id:           id,
		DisplayCount: r.DisplayCount,
		Pressed:      r.Pressed,
		Dismissed:    r.Dismissed,
	}, nil
}

func (s *Storage) GetAllMetadata(ctx context.Context) ([]*core.Metadata, error) {
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: []byte("meta;"),
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	mds := make([]*core.Metadata, 0, 32)
	for ok := it.First(); ok; ok = it.Next() {
		k := it.Key()
		if !bytes.HasPrefix(k, prefix) {
			continue
		}
		md, err := decode(string(k[len(prefix):]), it.Value())
		if err != nil {
			return nil, err
		}
		mds = append(mds, md)
	}
	return mds, it.Error()
}

// AddMetadata writes a default record unless one already exists, in
// which case the existing record is returned.
//
// The check and the write are not atomic.  Callers that add the same
// id concurrently will both see a default record.
func (s *Storage) AddMetadata(ctx context.Context, id string) (*core.Metadata, error) {
	v, closer, err := s.db.Get(key(id))
	switch {
	case err == nil:
		defer closer.Close()
		return decode(id, v)
	case !errors.Is(err, pebble.ErrNotFound):
		return nil, err
	}

	md := core.NewMetadata(id)
	if err = s.UpdateMetadata(ctx, md); err != nil {
		return nil, err
	}
	return md, nil
}

func (s *Storage) UpdateMetadata(ctx context.Context, md *core.Metadata) error {
	if md == nil || md.Id == "" {
		return core.MissingMetadata
	}
	bs, err := encode(md)
	if err != nil {
		return err
	}
	return s.db.Set(key(md.Id), bs, pebble.Sync)
}
