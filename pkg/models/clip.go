package models

import "fmt"

// FitMode controls how a clip's frame is fitted into the output canvas.
type FitMode string

const (
	FitContain FitMode = "contain"
	FitCover   FitMode = "cover"
	FitFill    FitMode = "fill"
)

// TimelineClip is a placed, time-bounded reference to exactly one media
// asset. StartTime and Duration are timeline-seconds; TrimStart and TrimEnd
// are source-seconds into the asset. Transform, Filters, Editing and
// FitMode are optional non-destructive overrides; nil means the defaults.
// Clips never hold decoder handles, only the asset id.
type TimelineClip struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      MediaType `json:"type"`
	AssetID   string    `json:"asset_id"`
	StartTime float64   `json:"start_time"`
	Duration  float64   `json:"duration"`
	TrimStart float64   `json:"trim_start"`
	TrimEnd   float64   `json:"trim_end"`
	Volume    float64   `json:"volume"`
	Muted     bool      `json:"muted"`

	Transform *ClipTransform `json:"transform,omitempty"`
	Filters   *ClipFilters   `json:"filters,omitempty"`
	Editing   *EditingState  `json:"editing,omitempty"`
	FitMode   FitMode        `json:"fit_mode,omitempty"`
}

// EndTime returns the exclusive end instant of the clip on the timeline.
func (c *TimelineClip) EndTime() float64 {
	return c.StartTime + c.Duration
}

// ActiveAt reports whether the clip covers t. The window is left-closed,
// right-open, so of two back-to-back clips the later one wins at the
// shared boundary instant.
func (c *TimelineClip) ActiveAt(t float64) bool {
	return t >= c.StartTime && t < c.EndTime()
}

// Validate checks the clip invariants against the asset it references.
func (c *TimelineClip) Validate(asset *MediaAsset) error {
	if c.AssetID == "" {
		return fmt.Errorf("clip %s references no asset", c.ID)
	}
	if c.StartTime < 0 {
		return fmt.Errorf("clip %s start time %.3f is negative", c.ID, c.StartTime)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("clip %s duration %.3f is not positive", c.ID, c.Duration)
	}
	if c.TrimStart < 0 {
		return fmt.Errorf("clip %s trim start %.3f is negative", c.ID, c.TrimStart)
	}
	if c.TrimEnd < c.TrimStart {
		return fmt.Errorf("clip %s trim end %.3f before trim start %.3f", c.ID, c.TrimEnd, c.TrimStart)
	}
	// Images have no temporal axis, so the trim window is unconstrained by
	// asset duration.
	if asset != nil && asset.Type != MediaTypeImage {
		if c.TrimEnd > asset.Duration {
			return fmt.Errorf("clip %s trim end %.3f exceeds asset duration %.3f", c.ID, c.TrimEnd, asset.Duration)
		}
		if c.Duration > c.TrimEnd-c.TrimStart {
			return fmt.Errorf("clip %s duration %.3f exceeds trimmed span %.3f", c.ID, c.Duration, c.TrimEnd-c.TrimStart)
		}
	}
	return nil
}

// Overlaps reports whether the clip's timeline window intersects [start, end).
func (c *TimelineClip) Overlaps(start, end float64) bool {
	return c.StartTime < end && start < c.EndTime()
}
