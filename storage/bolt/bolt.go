// Package bolt is a core.MetadataStore backed by BoltDB.
package bolt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Comcast/nudge/core"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// DefaultBucket is the bucket that holds Metadata by message id.
var DefaultBucket = "metadata"

type Storage struct {
	Debug    bool
	Logger   *zap.Logger
	Bucket   string
	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
		Bucket:   DefaultBucket,
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(s.Bucket))
		return err
	})
}

func (s *Storage) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *Storage) logf(msg string, fields ...zap.Field) {
	if s.Debug && s.Logger != nil {
		s.Logger.Debug("BoltDB Storage."+msg, fields...)
	}
}

func (s *Storage) GetAllMetadata(ctx context.Context) ([]*core.Metadata, error) {
	mds := make([]*core.Metadata, 0, 32)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(s.Bucket))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for id, bs := c.First(); id != nil; id, bs = c.Next() {
			var md core.Metadata
			if err := json.Unmarshal(bs, &md); err != nil {
				return err
			}
			md.Id = string(id)
			mds = append(mds, &md)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logf("GetAllMetadata", zap.Int("found", len(mds)))

	return mds, nil
}

// AddMetadata writes a default record unless one already exists, in
// which case the existing record is returned.
func (s *Storage) AddMetadata(ctx context.Context, id string) (*core.Metadata, error) {
	s.logf("AddMetadata", zap.String("id", id))

	var md *core.Metadata
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(s.Bucket))
		if err != nil {
			return err
		}
		key := []byte(id)
		if bs := b.Get(key); bs != nil {
			var existing core.Metadata
			if err = json.Unmarshal(bs, &existing); err != nil {
				return err
			}
			existing.Id = id
			md = &existing
			return nil
		}
		md = core.NewMetadata(id)
		js, err := json.Marshal(md)
		if err != nil {
			return err
		}
		return b.Put(key, js)
	})
	if err != nil {
		return nil, err
	}
	return md, nil
}

func (s *Storage) UpdateMetadata(ctx context.Context, md *core.Metadata) error {
	if md == nil || md.Id == "" {
		return core.MissingMetadata
	}
	s.logf("UpdateMetadata", zap.String("id", md.Id))

	js, err := json.Marshal(md)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(s.Bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(md.Id), js)
	})
}
