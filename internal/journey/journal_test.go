package journey

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJournalFixture(t *testing.T) (*Service, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	seed(t, repo, newTestJourney("j", 2, testNow, fixedCalendar(testNow)))
	return newTestService(t, repo, nil), repo
}

func photoIDs(e *JournalEntry) []string {
	var ids []string
	for _, p := range e.SortedPhotos() {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestService_Journal(t *testing.T) {
	ctx := context.Background()
	service, repo := newJournalFixture(t)

	t.Run("blank entry is not stored", func(t *testing.T) {
		e, err := service.Journal(ctx, "j-day-1")
		require.NoError(t, err)
		assert.Empty(t, e.ID)
		assert.Empty(t, e.Photos)

		stored, err := repo.GetJournal(ctx, "j-day-1")
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("first text save creates the entry", func(t *testing.T) {
		e, err := service.SaveJournalText(ctx, "j-day-1", "Windy along the canal.")
		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, testNow, e.CreatedAt)

		again, err := service.SaveJournalText(ctx, "j-day-1", "Windy along the canal. Sun later.")
		require.NoError(t, err)
		assert.Equal(t, e.ID, again.ID)

		stored, err := service.Journal(ctx, "j-day-1")
		require.NoError(t, err)
		assert.Equal(t, "Windy along the canal. Sun later.", stored.Text)
	})

	t.Run("unknown day", func(t *testing.T) {
		_, err := service.SaveJournalText(ctx, "nope", "x")
		assert.ErrorIs(t, err, ErrDayRouteNotFound)

		_, err = service.Journal(ctx, "nope")
		assert.ErrorIs(t, err, ErrDayRouteNotFound)
	})
}

func TestService_JournalPhotos(t *testing.T) {
	ctx := context.Background()
	service, _ := newJournalFixture(t)
	img := pngImage(t, 64, 48)

	e, err := service.AddPhotos(ctx, "j-day-2", [][]byte{img, img})
	require.NoError(t, err)
	require.Len(t, e.Photos, 2)
	assert.Equal(t, 0, e.Photos[0].SortOrder)
	assert.Equal(t, 1, e.Photos[1].SortOrder)
	assert.Equal(t, PhotoContentType, e.Photos[0].ContentType)

	first, second := e.Photos[0].ID, e.Photos[1].ID

	t.Run("new photos continue after the highest sort order", func(t *testing.T) {
		e, err := service.AddPhotos(ctx, "j-day-2", [][]byte{img})
		require.NoError(t, err)
		require.Len(t, e.Photos, 3)
		assert.Equal(t, 2, e.Photos[2].SortOrder)
	})

	t.Run("invalid image stores nothing", func(t *testing.T) {
		_, err := service.AddPhotos(ctx, "j-day-2", [][]byte{img, []byte("nope")})
		assert.ErrorIs(t, err, ErrInvalidPhoto)

		e, err := service.Journal(ctx, "j-day-2")
		require.NoError(t, err)
		assert.Len(t, e.Photos, 3)
	})

	t.Run("reorder", func(t *testing.T) {
		e, err := service.Journal(ctx, "j-day-2")
		require.NoError(t, err)
		third := photoIDs(e)[2]

		e, err = service.ReorderPhotos(ctx, "j-day-2", []string{third, first, second})
		require.NoError(t, err)
		assert.Equal(t, []string{third, first, second}, photoIDs(e))

		stored, err := service.Journal(ctx, "j-day-2")
		require.NoError(t, err)
		assert.Equal(t, []string{third, first, second}, photoIDs(stored))
	})

	t.Run("reorder must be a permutation", func(t *testing.T) {
		_, err := service.ReorderPhotos(ctx, "j-day-2", []string{first, first, second})
		assert.ErrorIs(t, err, ErrInvalidPhotoOrder)

		_, err = service.ReorderPhotos(ctx, "j-day-2", []string{first})
		assert.ErrorIs(t, err, ErrInvalidPhotoOrder)
	})

	t.Run("photo and delete", func(t *testing.T) {
		p, err := service.Photo(ctx, "j-day-2", first)
		require.NoError(t, err)
		assert.NotEmpty(t, p.Data)

		e, err := service.DeletePhoto(ctx, "j-day-2", first)
		require.NoError(t, err)
		assert.Len(t, e.Photos, 2)
		assert.Nil(t, e.Photo(first))

		_, err = service.Photo(ctx, "j-day-2", first)
		assert.ErrorIs(t, err, ErrPhotoNotFound)

		_, err = service.DeletePhoto(ctx, "j-day-2", first)
		assert.ErrorIs(t, err, ErrPhotoNotFound)
	})

	t.Run("day without a journal has no photos", func(t *testing.T) {
		_, err := service.Photo(ctx, "j-day-1", first)
		assert.ErrorIs(t, err, ErrPhotoNotFound)
	})
}

func TestJournalEntry_SortedPhotosIsStable(t *testing.T) {
	e := &JournalEntry{Photos: []*JournalPhoto{
		{ID: "a", SortOrder: 1},
		{ID: "b", SortOrder: 0},
		{ID: "c", SortOrder: 1},
		{ID: "d", SortOrder: 0},
	}}

	assert.Equal(t, []string{"b", "d", "a", "c"}, photoIDs(e))
}
