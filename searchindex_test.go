package souqfeed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/souqfeed"
)

func TestPostIndex_SearchBeforeReindexYieldsNothing(t *testing.T) {
	index := souqfeed.NewPostIndex()
	defer func() {
		_ = index.Close()
	}()

	ids, err := index.Search("anything", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPostIndex_FindsByTitleAndDescription(t *testing.T) {
	index := souqfeed.NewPostIndex()
	defer func() {
		_ = index.Close()
	}()

	require.NoError(t, index.Reindex([]*souqfeed.Post{
		{ID: "a", Title: "apartment for rent", Description: "two bedrooms near downtown"},
		{ID: "b", Title: "red bicycle", Description: "barely used mountain bike"},
		{ID: "c", Title: "office desk", Description: "solid wood"},
	}))

	ids, err := index.Search("bicycle", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)

	ids, err = index.Search("bedrooms", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestPostIndex_ReindexReplacesContents(t *testing.T) {
	index := souqfeed.NewPostIndex()
	defer func() {
		_ = index.Close()
	}()

	require.NoError(t, index.Reindex([]*souqfeed.Post{
		{ID: "a", Title: "apartment for rent"},
	}))
	require.NoError(t, index.Reindex([]*souqfeed.Post{
		{ID: "b", Title: "red bicycle"},
	}))

	ids, err := index.Search("apartment", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = index.Search("bicycle", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestPostIndex_LimitCapsResults(t *testing.T) {
	index := souqfeed.NewPostIndex()
	defer func() {
		_ = index.Close()
	}()

	require.NoError(t, index.Reindex([]*souqfeed.Post{
		{ID: "a", Title: "bicycle one"},
		{ID: "b", Title: "bicycle two"},
		{ID: "c", Title: "bicycle three"},
	}))

	ids, err := index.Search("bicycle", 2)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestPostIndex_EmptyQueryYieldsNothing(t *testing.T) {
	index := souqfeed.NewPostIndex()
	defer func() {
		_ = index.Close()
	}()

	require.NoError(t, index.Reindex([]*souqfeed.Post{
		{ID: "a", Title: "apartment"},
	}))

	ids, err := index.Search("", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
