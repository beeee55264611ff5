package planning

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walkplan/walkplan/internal/geocoding"
	"github.com/walkplan/walkplan/internal/journey"
)

type countingSearcher struct {
	cancels atomic.Int32
}

func (c *countingSearcher) Search(context.Context, string) ([]geocoding.Place, error) {
	return []geocoding.Place{seoul}, nil
}

func (c *countingSearcher) Cancel() { c.cancels.Add(1) }

func TestStore(t *testing.T) {
	now := testNow
	cal := journey.NewCalendar(time.UTC, func() time.Time { return now })
	searcher := &countingSearcher{}

	store := NewStore(StoreConfig{
		Calendar:    cal,
		NewSearcher: func() PlaceSearcher { return searcher },
		TTL:         time.Hour,
	})

	s := store.Create()
	got, err := store.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	places, err := got.Search(context.Background(), "seo")
	require.NoError(t, err)
	assert.Equal(t, []geocoding.Place{seoul}, places)

	t.Run("unknown session", func(t *testing.T) {
		_, err := store.Get("nope")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("idle sessions expire", func(t *testing.T) {
		now = now.Add(30 * time.Minute)
		_, err := store.Get(s.ID())
		require.NoError(t, err, "use resets the idle clock")

		now = now.Add(61 * time.Minute)
		assert.Equal(t, 1, store.Cleanup())
		assert.Equal(t, 0, store.Len())
		assert.Equal(t, int32(1), searcher.cancels.Load())

		_, err = store.Get(s.ID())
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := store.Create()
		store.Delete(s.ID())
		_, err := store.Get(s.ID())
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}
