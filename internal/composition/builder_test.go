package composition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3IMAD69/LocalCut-sub000/internal/assets"
	"github.com/3IMAD69/LocalCut-sub000/internal/engine"
	"github.com/3IMAD69/LocalCut-sub000/pkg/models"
)

// mapResolver is a deterministic SourceResolver for tests.
type mapResolver map[string]*assets.LoadedSource

func (m mapResolver) Resolve(assetID string) (*assets.LoadedSource, bool) {
	src, ok := m[assetID]
	return src, ok
}

func videoSource(assetID string, duration float64) *assets.LoadedSource {
	return &assets.LoadedSource{
		AssetID: assetID,
		Handle: &engine.InputInfo{
			Duration: duration,
			Width:    1920,
			Height:   1080,
			HasVideo: true,
			HasAudio: true,
		},
	}
}

func imageSource(assetID string) *assets.LoadedSource {
	return &assets.LoadedSource{
		AssetID: assetID,
		Handle:  &engine.InputInfo{Width: 800, Height: 600, HasVideo: true},
	}
}

var canvas = Size{Width: 1920, Height: 1080}

func TestBuildEmptyTimeline(t *testing.T) {
	for _, at := range []float64{0, 1.5, 100} {
		comp := Build(at, nil, mapResolver{}, canvas, nil)
		assert.Empty(t, comp.Layers)
		assert.Nil(t, comp.Audio)
	}
}

func TestBuildSourceTime(t *testing.T) {
	// Track A: one clip {start 0, duration 5, trim 2..7}. At t=3 the
	// source-local position is trimStart + (t - start) = 5.
	track := &models.TimelineTrack{
		ID:   "track-a",
		Type: models.MediaTypeVideo,
		Clips: []*models.TimelineClip{
			{ID: "clip-1", Type: models.MediaTypeVideo, AssetID: "asset-1", StartTime: 0, Duration: 5, TrimStart: 2, TrimEnd: 7, Volume: 1},
		},
	}
	resolver := mapResolver{"asset-1": videoSource("asset-1", 10)}

	comp := Build(3, []*models.TimelineTrack{track}, resolver, canvas, nil)

	require.Len(t, comp.Layers, 1)
	assert.Equal(t, 5.0, comp.Layers[0].SourceTime)
	require.Len(t, comp.Audio, 1)
	assert.Equal(t, 5.0, comp.Audio[0].SourceTime)
	assert.Equal(t, 1.0, comp.Audio[0].Volume)
}

func TestBuildOutsideClipWindows(t *testing.T) {
	track := &models.TimelineTrack{
		ID:   "track-a",
		Type: models.MediaTypeVideo,
		Clips: []*models.TimelineClip{
			{ID: "clip-1", Type: models.MediaTypeVideo, AssetID: "asset-1", StartTime: 2, Duration: 3, TrimStart: 0, TrimEnd: 3, Volume: 1},
		},
	}
	resolver := mapResolver{"asset-1": videoSource("asset-1", 10)}

	for _, at := range []float64{0, 1.999, 5, 5.001, 42} {
		comp := Build(at, []*models.TimelineTrack{track}, resolver, canvas, nil)
		assert.Empty(t, comp.Layers, "t=%v", at)
		assert.Nil(t, comp.Audio, "t=%v", at)
	}
}

func TestBuildBoundaryLaterClipWins(t *testing.T) {
	// Two back-to-back clips on [0,2) and [2,4): at exactly t=2 only the
	// second is active.
	track := &models.TimelineTrack{
		ID:   "track-a",
		Type: models.MediaTypeVideo,
		Clips: []*models.TimelineClip{
			{ID: "clip-1", Type: models.MediaTypeVideo, AssetID: "asset-1", StartTime: 0, Duration: 2, TrimStart: 0, TrimEnd: 2, Volume: 1},
			{ID: "clip-2", Type: models.MediaTypeVideo, AssetID: "asset-1", StartTime: 2, Duration: 2, TrimStart: 0, TrimEnd: 2, Volume: 1},
		},
	}
	resolver := mapResolver{"asset-1": videoSource("asset-1", 10)}

	comp := Build(2, []*models.TimelineTrack{track}, resolver, canvas, nil)

	require.Len(t, comp.Layers, 1)
	assert.Equal(t, "clip-2", comp.Layers[0].ClipID)
	assert.Equal(t, 0.0, comp.Layers[0].SourceTime)
}

func TestBuildImageClipPinsSourceTime(t *testing.T) {
	track := &models.TimelineTrack{
		ID:   "track-a",
		Type: models.MediaTypeImage,
		Clips: []*models.TimelineClip{
			{ID: "clip-img", Type: models.MediaTypeImage, AssetID: "img-1", StartTime: 0, Duration: 8, TrimStart: 0, TrimEnd: 8, Volume: 1},
		},
	}
	resolver := mapResolver{"img-1": imageSource("img-1")}

	comp := Build(6.5, []*models.TimelineTrack{track}, resolver, canvas, nil)

	require.Len(t, comp.Layers, 1)
	assert.Equal(t, 0.0, comp.Layers[0].SourceTime)
	assert.Nil(t, comp.Audio)
}

func TestBuildUnresolvedSourceIsSkipped(t *testing.T) {
	track := &models.TimelineTrack{
		ID:   "track-a",
		Type: models.MediaTypeVideo,
		Clips: []*models.TimelineClip{
			{ID: "clip-1", Type: models.MediaTypeVideo, AssetID: "missing", StartTime: 0, Duration: 5, TrimStart: 0, TrimEnd: 5, Volume: 1},
			{ID: "clip-2", Type: models.MediaTypeVideo, AssetID: "asset-1", StartTime: 0, Duration: 5, TrimStart: 0, TrimEnd: 5, Volume: 1},
		},
	}
	// The missing source degrades to a skipped clip, not a failed frame.
	resolver := mapResolver{"asset-1": videoSource("asset-1", 10)}

	tracks := []*models.TimelineTrack{
		{ID: "t1", Type: models.MediaTypeVideo, Clips: track.Clips[:1]},
		{ID: "t2", Type: models.MediaTypeVideo, Clips: track.Clips[1:]},
	}

	comp := Build(1, tracks, resolver, canvas, nil)

	require.Len(t, comp.Layers, 1)
	assert.Equal(t, "clip-2", comp.Layers[0].ClipID)
}

func TestBuildZOrderEarliestTrackOnTop(t *testing.T) {
	clip := func(id, asset string) *models.TimelineClip {
		return &models.TimelineClip{ID: id, Type: models.MediaTypeVideo, AssetID: asset, StartTime: 0, Duration: 5, TrimStart: 0, TrimEnd: 5, Volume: 1}
	}
	tracks := []*models.TimelineTrack{
		{ID: "top", Type: models.MediaTypeVideo, Clips: []*models.TimelineClip{clip("clip-top", "a1")}},
		{ID: "mid", Type: models.MediaTypeVideo, Clips: []*models.TimelineClip{clip("clip-mid", "a2")}},
		{ID: "bot", Type: models.MediaTypeVideo, Clips: []*models.TimelineClip{clip("clip-bot", "a3")}},
	}
	resolver := mapResolver{
		"a1": videoSource("a1", 10),
		"a2": videoSource("a2", 10),
		"a3": videoSource("a3", 10),
	}

	comp := Build(1, tracks, resolver, canvas, nil)

	require.Len(t, comp.Layers, 3)
	assert.Equal(t, 3, comp.Layers[0].ZIndex)
	assert.Equal(t, 2, comp.Layers[1].ZIndex)
	assert.Equal(t, 1, comp.Layers[2].ZIndex)
	assert.Greater(t, comp.Layers[0].ZIndex, comp.Layers[2].ZIndex)
}

func TestBuildHiddenAndMutedTracks(t *testing.T) {
	clips := []*models.TimelineClip{
		{ID: "clip-1", Type: models.MediaTypeVideo, AssetID: "a1", StartTime: 0, Duration: 5, TrimStart: 0, TrimEnd: 5, Volume: 1},
	}
	resolver := mapResolver{"a1": videoSource("a1", 10)}

	t.Run("HiddenTrackContributesNothing", func(t *testing.T) {
		tracks := []*models.TimelineTrack{{ID: "t", Type: models.MediaTypeVideo, Clips: clips, Hidden: true}}
		comp := Build(1, tracks, resolver, canvas, nil)
		assert.Empty(t, comp.Layers)
		assert.Nil(t, comp.Audio)
	})

	t.Run("MutedTrackStillRendersVideo", func(t *testing.T) {
		tracks := []*models.TimelineTrack{{ID: "t", Type: models.MediaTypeVideo, Clips: clips, Muted: true}}
		comp := Build(1, tracks, resolver, canvas, nil)
		assert.Len(t, comp.Layers, 1)
		assert.Nil(t, comp.Audio)
	})
}

func TestBuildClampsInvalidatedTrimWindow(t *testing.T) {
	// The asset was re-imported shorter than the clip's trim window; the
	// source time must stay inside [0, duration).
	track := &models.TimelineTrack{
		ID:   "track-a",
		Type: models.MediaTypeVideo,
		Clips: []*models.TimelineClip{
			{ID: "clip-1", Type: models.MediaTypeVideo, AssetID: "a1", StartTime: 0, Duration: 10, TrimStart: 5, TrimEnd: 15, Volume: 1},
		},
	}
	resolver := mapResolver{"a1": videoSource("a1", 6)}

	comp := Build(4, []*models.TimelineTrack{track}, resolver, canvas, nil)

	require.Len(t, comp.Layers, 1)
	assert.Less(t, comp.Layers[0].SourceTime, 6.0)
	assert.InDelta(t, 6.0, comp.Layers[0].SourceTime, 1e-9)
}

func TestBuildOverridesBeatCommittedValues(t *testing.T) {
	committed := models.ClipTransform{X: 10, ScaleX: 1, ScaleY: 1}
	track := &models.TimelineTrack{
		ID:   "track-a",
		Type: models.MediaTypeVideo,
		Clips: []*models.TimelineClip{
			{ID: "clip-1", Type: models.MediaTypeVideo, AssetID: "a1", StartTime: 0, Duration: 5, TrimStart: 0, TrimEnd: 5, Volume: 1, Transform: &committed},
		},
	}
	resolver := mapResolver{"a1": videoSource("a1", 10)}

	dragged := models.ClipTransform{X: 250, Y: -40, ScaleX: 1, ScaleY: 1}
	overrides := &Overrides{Transforms: map[string]models.ClipTransform{"clip-1": dragged}}

	comp := Build(1, []*models.TimelineTrack{track}, resolver, canvas, overrides)
	require.Len(t, comp.Layers, 1)
	assert.Equal(t, dragged, comp.Layers[0].Transform)

	// Without overrides the committed transform applies.
	comp = Build(1, []*models.TimelineTrack{track}, resolver, canvas, nil)
	require.Len(t, comp.Layers, 1)
	assert.Equal(t, committed, comp.Layers[0].Transform)
}

func TestBuildDefaultTransformAndFilters(t *testing.T) {
	track := &models.TimelineTrack{
		ID:   "track-a",
		Type: models.MediaTypeVideo,
		Clips: []*models.TimelineClip{
			{ID: "clip-1", Type: models.MediaTypeVideo, AssetID: "a1", StartTime: 0, Duration: 5, TrimStart: 0, TrimEnd: 5, Volume: 1},
		},
	}
	resolver := mapResolver{"a1": videoSource("a1", 10)}

	comp := Build(1, []*models.TimelineTrack{track}, resolver, canvas, nil)

	require.Len(t, comp.Layers, 1)
	layer := comp.Layers[0]
	assert.Equal(t, models.DefaultTransform(), layer.Transform)
	assert.True(t, layer.Filters.IsNeutral())
	assert.Equal(t, models.FitContain, layer.FitMode)
}

func TestBuildClipMuteEdit(t *testing.T) {
	track := &models.TimelineTrack{
		ID:   "track-a",
		Type: models.MediaTypeVideo,
		Clips: []*models.TimelineClip{
			{
				ID: "clip-1", Type: models.MediaTypeVideo, AssetID: "a1",
				StartTime: 0, Duration: 5, TrimStart: 0, TrimEnd: 5, Volume: 1,
				Editing: &models.EditingState{Mute: models.MuteEdit{Enabled: true}},
			},
		},
	}
	resolver := mapResolver{"a1": videoSource("a1", 10)}

	comp := Build(1, []*models.TimelineTrack{track}, resolver, canvas, nil)

	require.Len(t, comp.Audio, 1)
	assert.True(t, comp.Audio[0].Muted)
}
