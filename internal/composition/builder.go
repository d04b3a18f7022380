// Package composition converts the timeline model plus a playhead instant
// into a renderable frame description. Build is synchronous and
// side-effect free so hosts may call it speculatively on every tick.
package composition

import (
	"math"

	"github.com/3IMAD69/LocalCut-sub000/internal/assets"
	"github.com/3IMAD69/LocalCut-sub000/internal/pipeline"
	"github.com/3IMAD69/LocalCut-sub000/pkg/models"
)

// Size is the output canvas size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Layer is one active visual contribution at an instant. Z-convention:
// the earliest-declared track renders on top, so ZIndex is strictly
// decreasing down the track list and a larger ZIndex means closer to the
// viewer. This is a contract, not an iteration accident.
type Layer struct {
	ClipID     string               `json:"clip_id"`
	Source     *assets.LoadedSource `json:"source"`
	SourceTime float64              `json:"source_time"`
	Transform  models.ClipTransform `json:"transform"`
	Filters    pipeline.FilterChain `json:"filters"`
	FitMode    models.FitMode       `json:"fit_mode"`
	ZIndex     int                  `json:"z_index"`
}

// AudioInput is one active audio contribution at an instant. The engine
// decides which sources participate and at what source time; mixing is
// the external compositor's job.
type AudioInput struct {
	ClipID     string               `json:"clip_id"`
	Source     *assets.LoadedSource `json:"source"`
	SourceTime float64              `json:"source_time"`
	Volume     float64              `json:"volume"`
	Muted      bool                 `json:"muted"`
}

// Composition is the full frame description for one instant.
type Composition struct {
	Time   float64      `json:"time"`
	Canvas Size         `json:"canvas"`
	Layers []Layer      `json:"layers"`
	Audio  []AudioInput `json:"audio,omitempty"`
}

// SourceResolver looks up the loaded decoder handle for an asset id.
// Unresolvable assets degrade to skipped clips, never to errors.
type SourceResolver interface {
	Resolve(assetID string) (*assets.LoadedSource, bool)
}

// Overrides carries transient, uncommitted edits from an in-progress
// gesture. Overrides beat the clip's committed values for the duration of
// the gesture.
type Overrides struct {
	Transforms map[string]models.ClipTransform
	Filters    map[string]models.ClipFilters
}

// Build computes the active layers and audio contributions at time t.
// A clip is active on [start, start+duration): of two back-to-back clips
// the later one wins at the shared boundary. Hidden tracks contribute
// nothing; clips without a resolvable source are skipped.
func Build(t float64, tracks []*models.TimelineTrack, resolver SourceResolver, canvas Size, overrides *Overrides) Composition {
	comp := Composition{
		Time:   t,
		Canvas: canvas,
		Layers: []Layer{},
	}

	for idx, track := range tracks {
		if track.Hidden {
			continue
		}

		for _, clip := range track.Clips {
			if !clip.ActiveAt(t) {
				continue
			}

			src, ok := resolver.Resolve(clip.AssetID)
			if !ok || src == nil || src.Handle == nil {
				continue
			}

			sourceTime := clip.TrimStart + (t - clip.StartTime)
			if clip.Type == models.MediaTypeImage {
				// Images have no temporal axis.
				sourceTime = 0
			} else {
				sourceTime = clampSourceTime(sourceTime, src.Handle.Duration)
			}

			if clip.Type != models.MediaTypeAudio && src.Handle.HasVideo {
				comp.Layers = append(comp.Layers, Layer{
					ClipID:     clip.ID,
					Source:     src,
					SourceTime: sourceTime,
					Transform:  layerTransform(clip, overrides),
					Filters:    layerFilters(clip, overrides),
					FitMode:    fitMode(clip),
					ZIndex:     len(tracks) - idx,
				})
			}

			if !track.Muted && clip.Type != models.MediaTypeImage && src.Handle.HasAudio {
				comp.Audio = append(comp.Audio, AudioInput{
					ClipID:     clip.ID,
					Source:     src,
					SourceTime: sourceTime,
					Volume:     clip.Volume,
					Muted:      clip.Muted || clipMuteEdit(clip),
				})
			}
		}
	}

	return comp
}

// clampSourceTime keeps the source position inside [0, duration) so a
// shortened re-imported asset never produces out-of-range sample requests.
func clampSourceTime(t, duration float64) float64 {
	if t < 0 {
		return 0
	}
	if duration > 0 && t >= duration {
		return math.Nextafter(duration, 0)
	}
	return t
}

func layerTransform(clip *models.TimelineClip, overrides *Overrides) models.ClipTransform {
	if overrides != nil {
		if tr, ok := overrides.Transforms[clip.ID]; ok {
			return tr
		}
	}
	if clip.Transform != nil {
		return *clip.Transform
	}
	return models.DefaultTransform()
}

func layerFilters(clip *models.TimelineClip, overrides *Overrides) pipeline.FilterChain {
	filters := models.NeutralFilters()
	if clip.Filters != nil {
		filters = *clip.Filters
	}
	if overrides != nil {
		if f, ok := overrides.Filters[clip.ID]; ok {
			filters = f
		}
	}

	chain := pipeline.ChainFromFilters(filters)
	if clip.Editing != nil && clip.Editing.FineTune.Enabled {
		chain = pipeline.Combine(chain, pipeline.ChainFromFineTune(clip.Editing.FineTune))
	}
	return chain
}

func fitMode(clip *models.TimelineClip) models.FitMode {
	if clip.FitMode == "" {
		return models.FitContain
	}
	return clip.FitMode
}

func clipMuteEdit(clip *models.TimelineClip) bool {
	return clip.Editing != nil && clip.Editing.Mute.Enabled
}
