package models

import "fmt"

// CropRect is a normalized crop rectangle in the 0..1 range, authored
// against the post-rotation frame.
type CropRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Validate checks that all components are within [0,1] and that the rect
// stays inside the frame.
func (r CropRect) Validate() error {
	for name, v := range map[string]float64{
		"left": r.Left, "top": r.Top, "width": r.Width, "height": r.Height,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("crop %s %.4f out of range [0,1]", name, v)
		}
	}
	if r.Left+r.Width > 1 {
		return fmt.Errorf("crop left+width %.4f exceeds 1", r.Left+r.Width)
	}
	if r.Top+r.Height > 1 {
		return fmt.Errorf("crop top+height %.4f exceeds 1", r.Top+r.Height)
	}
	return nil
}

// CropEdit is the crop facet of an editing state.
type CropEdit struct {
	Enabled bool     `json:"enabled"`
	Rect    CropRect `json:"rect"`
}

// TrimEdit is the trim facet, in source-seconds.
type TrimEdit struct {
	Enabled bool    `json:"enabled"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// RotateEdit is the quarter-turn rotation facet.
type RotateEdit struct {
	Enabled bool `json:"enabled"`
	Degrees int  `json:"degrees"`
}

// MuteEdit is the audio mute facet.
type MuteEdit struct {
	Enabled bool `json:"enabled"`
}

// FineTuneEdit holds the six fine-tune filter values, each in -100..100.
type FineTuneEdit struct {
	Enabled     bool    `json:"enabled"`
	Brightness  float64 `json:"brightness"`
	Contrast    float64 `json:"contrast"`
	Saturation  float64 `json:"saturation"`
	Exposure    float64 `json:"exposure"`
	Gamma       float64 `json:"gamma"`
	Temperature float64 `json:"temperature"`
}

// EditingState is the set of non-destructive source-level edits applied to
// a clip's media before placement. Each facet toggles independently.
type EditingState struct {
	Crop     CropEdit     `json:"crop"`
	Trim     TrimEdit     `json:"trim"`
	Rotate   RotateEdit   `json:"rotate"`
	Mute     MuteEdit     `json:"mute"`
	FineTune FineTuneEdit `json:"fine_tune"`
}

// Validate enforces the editing-state invariants: trim end strictly after
// start, crop rect inside the unit square, rotation a quarter turn and
// fine-tune values inside -100..100.
func (s EditingState) Validate() error {
	if s.Crop.Enabled {
		if err := s.Crop.Rect.Validate(); err != nil {
			return err
		}
	}
	if s.Trim.Enabled {
		if s.Trim.Start < 0 {
			return fmt.Errorf("trim start %.3f is negative", s.Trim.Start)
		}
		if s.Trim.End <= s.Trim.Start {
			return fmt.Errorf("trim end %.3f not after start %.3f", s.Trim.End, s.Trim.Start)
		}
	}
	if s.Rotate.Enabled {
		switch s.Rotate.Degrees {
		case 0, 90, 180, 270:
		default:
			return fmt.Errorf("rotation %d is not a quarter turn", s.Rotate.Degrees)
		}
	}
	if s.FineTune.Enabled {
		for name, v := range map[string]float64{
			"brightness":  s.FineTune.Brightness,
			"contrast":    s.FineTune.Contrast,
			"saturation":  s.FineTune.Saturation,
			"exposure":    s.FineTune.Exposure,
			"gamma":       s.FineTune.Gamma,
			"temperature": s.FineTune.Temperature,
		} {
			if v < -100 || v > 100 {
				return fmt.Errorf("fine-tune %s %.2f out of range [-100,100]", name, v)
			}
		}
	}
	return nil
}

// RotationDegrees returns the effective rotation, 0 when the facet is off.
func (s EditingState) RotationDegrees() int {
	if !s.Rotate.Enabled {
		return 0
	}
	return s.Rotate.Degrees
}
