/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/Comcast/nudge/core"
)

// JSONStore is a primitive MetadataStore that keeps everything in
// memory and optionally writes it all as JSON to a file after every
// change.
//
// Not glamorous or efficient.
type JSONStore struct {
	sync.Mutex

	// Filename, if not empty, is where state is read from (by
	// Open) and written to.
	Filename string

	State map[string]*core.Metadata
}

// NewJSONStore makes a JSONStore.  An empty filename gives an
// in-memory store.
func NewJSONStore(filename string) *JSONStore {
	return &JSONStore{
		Filename: filename,
		State:    make(map[string]*core.Metadata),
	}
}

// Open reads s.Filename if it exists.
func (s *JSONStore) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.Filename == "" {
		return nil
	}
	js, err := os.ReadFile(s.Filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	state := make(map[string]*core.Metadata)
	if err = json.Unmarshal(js, &state); err != nil {
		return err
	}
	for id, md := range state {
		if md == nil {
			// A hand-edited null means start over.
			state[id] = core.NewMetadata(id)
			continue
		}
		md.Id = id
	}
	s.State = state
	return nil
}

// Close writes out the state.
func (s *JSONStore) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()
	return s.writeState()
}

// writeState writes the entire state as JSON.  Caller should hold
// the lock.
func (s *JSONStore) writeState() error {
	if s.Filename == "" {
		return nil
	}
	js, err := json.MarshalIndent(&s.State, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Filename, js, 0644)
}

// GetAllMetadata returns copies of all records ordered by id.
func (s *JSONStore) GetAllMetadata(ctx context.Context) ([]*core.Metadata, error) {
	s.Lock()
	defer s.Unlock()

	acc := make([]*core.Metadata, 0, len(s.State))
	for _, md := range s.State {
		acc = append(acc, md.Copy())
	}
	sort.Slice(acc, func(i, j int) bool {
		return acc[i].Id < acc[j].Id
	})
	return acc, nil
}

// AddMetadata creates a default record.  If a record already exists,
// that record is returned unchanged.
func (s *JSONStore) AddMetadata(ctx context.Context, id string) (*core.Metadata, error) {
	s.Lock()
	defer s.Unlock()

	if md, have := s.State[id]; have {
		return md.Copy(), nil
	}
	if s.State == nil {
		s.State = make(map[string]*core.Metadata)
	}
	md := core.NewMetadata(id)
	s.State[id] = md
	return md.Copy(), s.writeState()
}

func (s *JSONStore) UpdateMetadata(ctx context.Context, md *core.Metadata) error {
	if md == nil || md.Id == "" {
		return core.MissingMetadata
	}

	s.Lock()
	defer s.Unlock()

	if s.State == nil {
		s.State = make(map[string]*core.Metadata)
	}
	s.State[md.Id] = md.Copy()
	return s.writeState()
}
