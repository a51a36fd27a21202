package shuffle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylefit/internal/catalog"
)

func items(ids ...string) []catalog.Item {
	out := make([]catalog.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, catalog.Item{ID: id})
	}
	return out
}

func newController() *Controller {
	return New(catalog.Buckets{
		catalog.Top:    items("t1", "t2"),
		catalog.Bottom: items("b1"),
	})
}

func TestShuffleIsolatesCategories(t *testing.T) {
	c := newController()

	bottom, err := c.Begin(catalog.Bottom)
	require.NoError(t, err)
	top, err := c.Begin(catalog.Top)
	require.NoError(t, err)

	require.True(t, c.Complete(top, items("t9")))

	assert.True(t, c.Loading(catalog.Bottom))
	assert.False(t, c.Loading(catalog.Top))
	assert.Equal(t, items("b1"), c.Buckets()[catalog.Bottom])

	got, err := c.Bucket(catalog.Top)
	require.NoError(t, err)
	assert.Equal(t, items("t9"), got)

	require.True(t, c.Complete(bottom, items("b7", "b8")))
	assert.Equal(t, items("b7", "b8"), c.Buckets()[catalog.Bottom])
	assert.Empty(t, c.LoadingSet())
}

func TestLoadingBucketIsNotADragSource(t *testing.T) {
	c := newController()
	_, err := c.Begin(catalog.Top)
	require.NoError(t, err)

	_, err = c.Bucket(catalog.Top)
	assert.ErrorIs(t, err, ErrLoading)
	_, err = c.Item(catalog.Top, "t1")
	assert.ErrorIs(t, err, ErrLoading)

	it, err := c.Item(catalog.Bottom, "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", it.ID)
}

func TestFailKeepsPreviousBucket(t *testing.T) {
	c := newController()
	tk, err := c.Begin(catalog.Top)
	require.NoError(t, err)
	require.True(t, c.Fail(tk))

	got, err := c.Bucket(catalog.Top)
	require.NoError(t, err)
	assert.Equal(t, items("t1", "t2"), got)
	assert.False(t, c.Complete(tk, items("late")))
}

func TestDuplicateAndUnknownBegin(t *testing.T) {
	c := newController()
	_, err := c.Begin(catalog.Top)
	require.NoError(t, err)
	_, err = c.Begin(catalog.Top)
	assert.ErrorIs(t, err, ErrLoading)

	_, err = c.Begin("hats")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	// Canonical categories are known even without items.
	_, err = c.Begin(catalog.Accessory)
	assert.NoError(t, err)
}

func TestTicketFromAnotherControllerIsStale(t *testing.T) {
	old := newController()
	tk, err := old.Begin(catalog.Top)
	require.NoError(t, err)

	fresh := newController()
	_, err = fresh.Begin(catalog.Top)
	require.NoError(t, err)
	assert.False(t, fresh.Complete(tk, items("ghost")))
	assert.True(t, fresh.Loading(catalog.Top))
}

func TestCompleteCopiesItems(t *testing.T) {
	c := newController()
	tk, _ := c.Begin(catalog.Top)
	src := items("x")
	require.True(t, c.Complete(tk, src))
	src[0].ID = "mutated"

	got, err := c.Bucket(catalog.Top)
	require.NoError(t, err)
	assert.Equal(t, "x", got[0].ID)
}

func TestItemLookup(t *testing.T) {
	c := newController()
	_, err := c.Item(catalog.Top, "nope")
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.Equal(t, []catalog.Category{catalog.Outer, catalog.Top, catalog.Bottom, catalog.Shoes, catalog.Accessory}, c.Categories())
}

func TestAbortInvalidatesTickets(t *testing.T) {
	c := newController()
	tk, err := c.Begin(catalog.Top)
	require.NoError(t, err)

	c.Abort()
	assert.False(t, c.Loading(catalog.Top))
	assert.False(t, c.Complete(tk, items("late")))

	got, err := c.Bucket(catalog.Top)
	require.NoError(t, err)
	assert.Equal(t, items("t1", "t2"), got)

	_, err = c.Begin(catalog.Top)
	assert.NoError(t, err)
}
