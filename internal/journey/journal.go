package journey

import (
	"context"
	"fmt"
)

// Journal returns the journal entry of a day. A day without one gets a
// blank entry that is not stored until something is written to it.
func (s *Service) Journal(ctx context.Context, dayRouteID string) (*JournalEntry, error) {
	e, err := s.repo.GetJournal(ctx, dayRouteID)
	if err != nil {
		return nil, s.storageFailure(err, "")
	}
	if e == nil {
		return &JournalEntry{DayRouteID: dayRouteID, Photos: []*JournalPhoto{}}, nil
	}
	return e, nil
}

// SaveJournalText replaces the text of a day's journal entry, creating the
// entry on first write.
func (s *Service) SaveJournalText(ctx context.Context, dayRouteID, text string) (*JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.loadOrCreateJournal(ctx, dayRouteID)
	if err != nil {
		return nil, err
	}
	e.Text = text

	if err := s.repo.SaveJournal(ctx, e); err != nil {
		return nil, s.storageFailure(err, "")
	}
	return e, nil
}

// AddPhotos normalizes and appends images to a day's journal entry. Their
// sort orders continue after the current maximum. Nothing is stored if any
// image fails to decode.
func (s *Service) AddPhotos(ctx context.Context, dayRouteID string, images [][]byte) (*JournalEntry, error) {
	normalized := make([][]byte, len(images))
	for i, img := range images {
		data, err := NormalizePhoto(img)
		if err != nil {
			return nil, fmt.Errorf("photo %d: %w", i+1, err)
		}
		normalized[i] = data
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.loadOrCreateJournal(ctx, dayRouteID)
	if err != nil {
		return nil, err
	}

	next := 0
	for _, p := range e.Photos {
		next = max(next, p.SortOrder+1)
	}

	now := s.cal.Now()
	for i, data := range normalized {
		e.Photos = append(e.Photos, &JournalPhoto{
			ID:          s.newID(),
			Data:        data,
			ContentType: PhotoContentType,
			SortOrder:   next + i,
			CreatedAt:   now,
		})
	}

	if err := s.repo.SaveJournal(ctx, e); err != nil {
		return nil, s.storageFailure(err, "")
	}

	s.logger.Debug().
		Str("day_route_id", dayRouteID).
		Int("added", len(normalized)).
		Int("photos", len(e.Photos)).
		Msg("journal photos added")

	return e, nil
}

// DeletePhoto removes one photo from a day's journal entry.
func (s *Service) DeletePhoto(ctx context.Context, dayRouteID, photoID string) (*JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.repo.GetJournal(ctx, dayRouteID)
	if err != nil {
		return nil, s.storageFailure(err, "")
	}
	if e == nil || e.Photo(photoID) == nil {
		return nil, ErrPhotoNotFound
	}

	photos := e.Photos[:0]
	for _, p := range e.Photos {
		if p.ID != photoID {
			photos = append(photos, p)
		}
	}
	e.Photos = photos

	if err := s.repo.SaveJournal(ctx, e); err != nil {
		return nil, s.storageFailure(err, "")
	}
	return e, nil
}

// ReorderPhotos assigns sort orders by position in ids, which must list
// every photo of the entry exactly once.
func (s *Service) ReorderPhotos(ctx context.Context, dayRouteID string, ids []string) (*JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.repo.GetJournal(ctx, dayRouteID)
	if err != nil {
		return nil, s.storageFailure(err, "")
	}
	if e == nil {
		e = &JournalEntry{DayRouteID: dayRouteID}
	}
	if len(ids) != len(e.Photos) {
		return nil, ErrInvalidPhotoOrder
	}

	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		p := e.Photo(id)
		if p == nil || seen[id] {
			return nil, ErrInvalidPhotoOrder
		}
		seen[id] = true
		p.SortOrder = i
	}
	if len(ids) == 0 {
		return e, nil
	}

	if err := s.repo.SaveJournal(ctx, e); err != nil {
		return nil, s.storageFailure(err, "")
	}
	e.Photos = e.SortedPhotos()
	return e, nil
}

// Photo returns one photo with its image data.
func (s *Service) Photo(ctx context.Context, dayRouteID, photoID string) (*JournalPhoto, error) {
	e, err := s.repo.GetJournal(ctx, dayRouteID)
	if err != nil {
		return nil, s.storageFailure(err, "")
	}
	if e == nil {
		return nil, ErrPhotoNotFound
	}
	p := e.Photo(photoID)
	if p == nil {
		return nil, ErrPhotoNotFound
	}
	return p, nil
}

func (s *Service) loadOrCreateJournal(ctx context.Context, dayRouteID string) (*JournalEntry, error) {
	e, err := s.repo.GetJournal(ctx, dayRouteID)
	if err != nil {
		return nil, s.storageFailure(err, "")
	}
	if e != nil {
		return e, nil
	}
	return &JournalEntry{
		ID:         s.newID(),
		DayRouteID: dayRouteID,
		CreatedAt:  s.cal.Now(),
		Photos:     []*JournalPhoto{},
	}, nil
}
