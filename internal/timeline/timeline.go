// Package timeline owns the declarative editing model: ordered tracks of
// non-overlapping, type-homogeneous clips. All mutators preserve the model
// invariants or leave the model untouched.
package timeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/3IMAD69/LocalCut-sub000/pkg/models"
)

// ErrIncompatibleTrackType is returned when a clip is added to or moved
// onto a track whose type differs from the clip's media type. The model is
// unchanged.
var ErrIncompatibleTrackType = errors.New("clip type does not match track type")

// ErrClipOverlap is returned when a clip would intersect another clip on
// the same track.
var ErrClipOverlap = errors.New("clip overlaps an existing clip on the track")

// ErrClipNotFound is returned for operations on unknown clip ids.
var ErrClipNotFound = errors.New("clip not found")

// ErrTrackNotFound is returned for operations on unknown track ids.
var ErrTrackNotFound = errors.New("track not found")

// DefaultMinDuration keeps an empty timeline scrubbable.
const DefaultMinDuration = 10.0

// Timeline is the committed editing model. All access goes through the
// mutex; readers get deep-copied snapshots so composition building always
// sees one coherent state.
type Timeline struct {
	mu          sync.RWMutex
	tracks      []*models.TimelineTrack
	minDuration float64
}

// New creates an empty timeline. minDuration <= 0 selects the default
// 10 second floor.
func New(minDuration float64) *Timeline {
	if minDuration <= 0 {
		minDuration = DefaultMinDuration
	}
	return &Timeline{minDuration: minDuration}
}

// SetTracks replaces the whole track list.
func (t *Timeline) SetTracks(tracks []*models.TimelineTrack) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracks = tracks
}

// AddTrack appends a new empty track of the given type.
func (t *Timeline) AddTrack(name string, kind models.MediaType) (*models.TimelineTrack, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid track type %q", kind)
	}

	track := &models.TimelineTrack{
		ID:   uuid.New().String(),
		Name: name,
		Type: kind,
	}

	t.mu.Lock()
	t.tracks = append(t.tracks, track)
	t.mu.Unlock()

	return track.Clone(), nil
}

// AddClip places a clip on a track. The clip's media type must match the
// track's type and its window must not overlap existing clips.
func (t *Timeline) AddClip(trackID string, clip *models.TimelineClip, asset *models.MediaAsset) error {
	if clip.ID == "" {
		clip.ID = uuid.New().String()
	}
	if clip.Volume == 0 {
		clip.Volume = 1
	}
	if err := clip.Validate(asset); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	track := t.trackLocked(trackID)
	if track == nil {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
	}
	if !track.Accepts(clip.Type) {
		return fmt.Errorf("%w: %s clip on %s track", ErrIncompatibleTrackType, clip.Type, track.Type)
	}
	if overlapping := t.overlapLocked(track, clip.StartTime, clip.EndTime(), clip.ID); overlapping != nil {
		return fmt.Errorf("%w: %s intersects %s", ErrClipOverlap, clip.ID, overlapping.ID)
	}

	track.Clips = append(track.Clips, clip)
	return nil
}

// MoveClip changes a clip's start time and, optionally, its track.
// Cross-track moves onto a track of a different type are rejected with
// ErrIncompatibleTrackType and the model is left exactly as it was.
func (t *Timeline) MoveClip(clipID string, newStart float64, targetTrackID string) error {
	if newStart < 0 {
		newStart = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	clip, from := t.clipLocked(clipID)
	if clip == nil {
		return fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}

	target := from
	if targetTrackID != "" && targetTrackID != from.ID {
		target = t.trackLocked(targetTrackID)
		if target == nil {
			return fmt.Errorf("%w: %s", ErrTrackNotFound, targetTrackID)
		}
	}

	if !target.Accepts(clip.Type) {
		return fmt.Errorf("%w: %s clip on %s track", ErrIncompatibleTrackType, clip.Type, target.Type)
	}
	if overlapping := t.overlapLocked(target, newStart, newStart+clip.Duration, clip.ID); overlapping != nil {
		return fmt.Errorf("%w: %s intersects %s", ErrClipOverlap, clipID, overlapping.ID)
	}

	if target != from {
		from.Clips = removeClip(from.Clips, clipID)
		target.Clips = append(target.Clips, clip)
	}
	clip.StartTime = newStart
	return nil
}

// RemoveClip deletes a clip and returns it.
func (t *Timeline) RemoveClip(clipID string) (*models.TimelineClip, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	clip, track := t.clipLocked(clipID)
	if clip == nil {
		return nil, fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}
	track.Clips = removeClip(track.Clips, clipID)
	return clip, nil
}

// SetClipTransform commits a placement transform on a clip.
func (t *Timeline) SetClipTransform(clipID string, transform models.ClipTransform) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	clip, _ := t.clipLocked(clipID)
	if clip == nil {
		return fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}
	clip.Transform = &transform
	return nil
}

// SetClipFilters commits presentation filter values on a clip.
func (t *Timeline) SetClipFilters(clipID string, filters models.ClipFilters) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	clip, _ := t.clipLocked(clipID)
	if clip == nil {
		return fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}
	clip.Filters = &filters
	return nil
}

// SetClipEditing commits a source-level editing state on a clip. Discrete
// facet toggles apply here immediately; continuous gestures go through the
// override store first.
func (t *Timeline) SetClipEditing(clipID string, state models.EditingState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	clip, _ := t.clipLocked(clipID)
	if clip == nil {
		return fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}
	clip.Editing = &state
	return nil
}

// Clip returns a copy of the clip and the id of the track holding it.
func (t *Timeline) Clip(clipID string) (*models.TimelineClip, string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	clip, track := t.clipLocked(clipID)
	if clip == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}
	c := *clip
	return &c, track.ID, nil
}

// Duration is the derived total length: the latest clip end across all
// tracks, floored at the minimum so an empty timeline stays scrubbable.
func (t *Timeline) Duration() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	max := t.minDuration
	for _, track := range t.tracks {
		for _, clip := range track.Clips {
			if end := clip.EndTime(); end > max {
				max = end
			}
		}
	}
	return max
}

// Snapshot returns a deep copy of the track list. Composition building
// reads snapshots, never live model state, so an in-flight mutation can
// never tear a frame.
func (t *Timeline) Snapshot() []*models.TimelineTrack {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*models.TimelineTrack, len(t.tracks))
	for i, track := range t.tracks {
		out[i] = track.Clone()
	}
	return out
}

func (t *Timeline) trackLocked(trackID string) *models.TimelineTrack {
	for _, track := range t.tracks {
		if track.ID == trackID {
			return track
		}
	}
	return nil
}

func (t *Timeline) clipLocked(clipID string) (*models.TimelineClip, *models.TimelineTrack) {
	for _, track := range t.tracks {
		if clip := track.Clip(clipID); clip != nil {
			return clip, track
		}
	}
	return nil, nil
}

func (t *Timeline) overlapLocked(track *models.TimelineTrack, start, end float64, excludeClipID string) *models.TimelineClip {
	for _, c := range track.Clips {
		if c.ID == excludeClipID {
			continue
		}
		if c.Overlaps(start, end) {
			return c
		}
	}
	return nil
}

func removeClip(clips []*models.TimelineClip, clipID string) []*models.TimelineClip {
	out := clips[:0]
	for _, c := range clips {
		if c.ID != clipID {
			out = append(out, c)
		}
	}
	return out
}
