package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// memStore is a MetadataStore for tests.
type memStore struct {
	mds     map[string]*Metadata
	order   []string
	added   []string
	updated []*Metadata
	err     error
}

func newMemStore(mds ...*Metadata) *memStore {
	s := &memStore{
		mds: make(map[string]*Metadata),
	}
	for _, md := range mds {
		s.mds[md.Id] = md
		s.order = append(s.order, md.Id)
	}
	return s
}

func (s *memStore) GetAllMetadata(ctx context.Context) ([]*Metadata, error) {
	if s.err != nil {
		return nil, s.err
	}
	acc := make([]*Metadata, 0, len(s.order))
	for _, id := range s.order {
		acc = append(acc, s.mds[id].Copy())
	}
	return acc, nil
}

func (s *memStore) AddMetadata(ctx context.Context, id string) (*Metadata, error) {
	if s.err != nil {
		return nil, s.err
	}
	md := NewMetadata(id)
	s.mds[id] = md
	s.order = append(s.order, id)
	s.added = append(s.added, id)
	return md.Copy(), nil
}

func (s *memStore) UpdateMetadata(ctx context.Context, md *Metadata) error {
	if s.err != nil {
		return s.err
	}
	if _, have := s.mds[md.Id]; !have {
		s.order = append(s.order, md.Id)
	}
	s.mds[md.Id] = md.Copy()
	s.updated = append(s.updated, md.Copy())
	return nil
}

// stubPlatform makes stubHelpers that look up expression values in
// a map.  An expression not in the map fails to evaluate.
type stubPlatform struct {
	values map[string]bool
	evals  map[string]int
	err    error

	// attributes is what CreateHelper last saw.
	attributes map[string]interface{}
}

func newStubPlatform(values map[string]bool) *stubPlatform {
	return &stubPlatform{
		values: values,
		evals:  make(map[string]int),
	}
}

func (p *stubPlatform) CreateHelper(ctx context.Context, attrs map[string]interface{}) (Helper, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.attributes = attrs
	return &stubHelper{p: p}, nil
}

func (p *stubPlatform) totalEvals() int {
	n := 0
	for _, c := range p.evals {
		n += c
	}
	return n
}

type stubHelper struct {
	p *stubPlatform
}

func (h *stubHelper) Evaluate(ctx context.Context, expr string) (bool, error) {
	h.p.evals[expr]++
	v, have := h.p.values[expr]
	if !have {
		return false, &EvaluationError{
			Expr: expr,
			Err:  errors.New("unknown"),
		}
	}
	return v, nil
}

func (h *stubHelper) GenerateID(template string) string {
	if strings.Contains(template, "{uuid}") {
		return "1234"
	}
	return ""
}

func (h *stubHelper) Format(template, id string) (string, error) {
	if strings.Contains(template, "{broken}") {
		return "", errors.New("broken template")
	}
	return strings.ReplaceAll(template, "{uuid}", id), nil
}

type countingExposures struct {
	ids []string
	err error
}

func (e *countingExposures) RecordExposure(ctx context.Context, m *Message) error {
	e.ids = append(e.ids, m.Id)
	return e.err
}

func mustDefs(t *testing.T, args ...interface{}) MessageDefs {
	ds, err := NewMessageDefs(args...)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func ids(ms []*Message) []string {
	acc := make([]string, 0, len(ms))
	for _, m := range ms {
		acc = append(acc, m.Id)
	}
	return acc
}
