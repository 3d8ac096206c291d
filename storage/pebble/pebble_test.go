package pebble

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Comcast/nudge/core"
	"github.com/Comcast/nudge/storage/storagetest"

	"github.com/stretchr/testify/require"
)

func TestImpl(t *testing.T) {
	var _ core.MetadataStore = &Storage{}
}

func TestBasics(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "meta")
	ctx := context.Background()

	s, err := NewStorage(dir)
	require.NoError(t, err)
	require.NoError(t, s.Open(ctx))

	storagetest.Run(t, s)
	require.NoError(t, s.Close(ctx))

	s, err = NewStorage(dir)
	require.NoError(t, err)
	require.NoError(t, s.Open(ctx))
	defer s.Close(ctx)

	mds, err := s.GetAllMetadata(ctx)
	require.NoError(t, err)
	require.Len(t, mds, 2)
	require.Equal(t, &core.Metadata{Id: "marge", DisplayCount: 3, Dismissed: true}, mds[1])
}

func TestRecordEncoding(t *testing.T) {
	md := &core.Metadata{Id: "bart", DisplayCount: 12, Pressed: true}
	bs, err := encode(md)
	require.NoError(t, err)
	got, err := decode("bart", bs)
	require.NoError(t, err)
	require.Equal(t, md, got)

	_, err = decode("bart", []byte{0xc1})
	require.Error(t, err)
}
