package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Comcast/nudge/core"
	"github.com/Comcast/nudge/storage/storagetest"

	"github.com/stretchr/testify/require"
)

func TestJSONStoreMem(t *testing.T) {
	storagetest.Run(t, NewJSONStore(""))
}

func TestJSONStoreZero(t *testing.T) {
	storagetest.Run(t, &JSONStore{})
}

func TestJSONStoreFile(t *testing.T) {
	ctx := context.Background()
	filename := filepath.Join(t.TempDir(), "state.json")

	s := NewJSONStore(filename)
	require.NoError(t, s.Open(ctx))
	storagetest.Run(t, s)
	require.NoError(t, s.Close(ctx))

	s = NewJSONStore(filename)
	require.NoError(t, s.Open(ctx))
	mds, err := s.GetAllMetadata(ctx)
	require.NoError(t, err)
	require.Equal(t, []*core.Metadata{
		{Id: "homer", DisplayCount: 1, Pressed: true},
		{Id: "marge", DisplayCount: 3, Dismissed: true},
	}, mds)
}

func TestJSONStoreNullRecord(t *testing.T) {
	ctx := context.Background()
	filename := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(filename, []byte(`{"a":{"displayCount":1},"b":null}`), 0644))

	s := NewJSONStore(filename)
	require.NoError(t, s.Open(ctx))
	mds, err := s.GetAllMetadata(ctx)
	require.NoError(t, err)
	require.Equal(t, []*core.Metadata{
		{Id: "a", DisplayCount: 1},
		core.NewMetadata("b"),
	}, mds)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, kind := range Kinds {
		s, err := Open(ctx, kind, filepath.Join(dir, kind))
		require.NoError(t, err, kind)
		storagetest.Run(t, s)
		require.NoError(t, s.Close(ctx), kind)
	}

	_, err := Open(ctx, "tape", "x")
	require.Error(t, err)

	_, err = Open(ctx, "bolt", "")
	require.Error(t, err)
}
