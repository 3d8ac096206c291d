// Package storagetest checks that a core.MetadataStore behaves.
package storagetest

import (
	"context"
	"sort"
	"testing"

	"github.com/Comcast/nudge/core"

	"github.com/stretchr/testify/require"
)

// Run exercises the given empty store.
func Run(t *testing.T, s core.MetadataStore) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mds, err := s.GetAllMetadata(ctx)
	require.NoError(t, err)
	require.Empty(t, mds)

	md, err := s.AddMetadata(ctx, "homer")
	require.NoError(t, err)
	require.Equal(t, core.NewMetadata("homer"), md)

	require.NoError(t, s.UpdateMetadata(ctx, &core.Metadata{
		Id:           "marge",
		DisplayCount: 3,
		Dismissed:    true,
	}))

	require.ErrorIs(t, s.UpdateMetadata(ctx, nil), core.MissingMetadata)
	require.ErrorIs(t, s.UpdateMetadata(ctx, &core.Metadata{DisplayCount: 1}), core.MissingMetadata)

	// Adding an existing record doesn't clobber it.
	md, err = s.AddMetadata(ctx, "marge")
	require.NoError(t, err)
	require.Equal(t, 3, md.DisplayCount)
	require.True(t, md.Dismissed)

	require.NoError(t, s.UpdateMetadata(ctx, &core.Metadata{
		Id:           "homer",
		DisplayCount: 1,
		Pressed:      true,
	}))

	mds, err = s.GetAllMetadata(ctx)
	require.NoError(t, err)
	sort.Slice(mds, func(i, j int) bool { return mds[i].Id < mds[j].Id })
	require.Equal(t, []*core.Metadata{
		{Id: "homer", DisplayCount: 1, Pressed: true},
		{Id: "marge", DisplayCount: 3, Dismissed: true},
	}, mds)
}
