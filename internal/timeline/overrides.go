package timeline

import (
	"sync"

	"github.com/3IMAD69/LocalCut-sub000/internal/composition"
	"github.com/3IMAD69/LocalCut-sub000/pkg/models"
)

// OverrideStore holds transient transform and filter values for clips
// under an in-progress continuous gesture. The composition builder reads
// a snapshot of this store so it always composes one coherent state:
// either the committed model or the committed model plus a whole override,
// never a half-applied mutation.
type OverrideStore struct {
	mu         sync.RWMutex
	transforms map[string]models.ClipTransform
	filters    map[string]models.ClipFilters
}

// NewOverrideStore creates an empty override store.
func NewOverrideStore() *OverrideStore {
	return &OverrideStore{
		transforms: make(map[string]models.ClipTransform),
		filters:    make(map[string]models.ClipFilters),
	}
}

// SetTransform stages a transform override for a clip.
func (s *OverrideStore) SetTransform(clipID string, tr models.ClipTransform) {
	s.mu.Lock()
	s.transforms[clipID] = tr
	s.mu.Unlock()
}

// SetFilters stages a filter override for a clip.
func (s *OverrideStore) SetFilters(clipID string, f models.ClipFilters) {
	s.mu.Lock()
	s.filters[clipID] = f
	s.mu.Unlock()
}

// Clear drops any staged overrides for a clip, reverting composition to
// the committed values.
func (s *OverrideStore) Clear(clipID string) {
	s.mu.Lock()
	delete(s.transforms, clipID)
	delete(s.filters, clipID)
	s.mu.Unlock()
}

// CommitTransform writes the staged transform into the committed model and
// clears it. No-op when nothing is staged.
func (s *OverrideStore) CommitTransform(tl *Timeline, clipID string) error {
	s.mu.Lock()
	tr, ok := s.transforms[clipID]
	if ok {
		delete(s.transforms, clipID)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return tl.SetClipTransform(clipID, tr)
}

// CommitFilters writes the staged filters into the committed model and
// clears them. No-op when nothing is staged.
func (s *OverrideStore) CommitFilters(tl *Timeline, clipID string) error {
	s.mu.Lock()
	f, ok := s.filters[clipID]
	if ok {
		delete(s.filters, clipID)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return tl.SetClipFilters(clipID, f)
}

// Snapshot copies the staged overrides into the form the composition
// builder consumes. Returns nil when nothing is staged.
func (s *OverrideStore) Snapshot() *composition.Overrides {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.transforms) == 0 && len(s.filters) == 0 {
		return nil
	}

	out := &composition.Overrides{
		Transforms: make(map[string]models.ClipTransform, len(s.transforms)),
		Filters:    make(map[string]models.ClipFilters, len(s.filters)),
	}
	for k, v := range s.transforms {
		out.Transforms[k] = v
	}
	for k, v := range s.filters {
		out.Filters[k] = v
	}
	return out
}
