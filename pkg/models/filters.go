package models

// ClipFilters holds the presentation filter values for a clip. Opacity is
// 0-100, brightness/contrast/saturation are -100..+100, hue rotation is
// -180..+180 degrees and blur is 0-100. The mapping from these values to
// concrete filter operations lives in the pipeline package.
type ClipFilters struct {
	Opacity    float64 `json:"opacity"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
	HueRotate  float64 `json:"hue_rotate"`
	Blur       float64 `json:"blur"`
}

// NeutralFilters returns the filter values that leave the clip untouched.
func NeutralFilters() ClipFilters {
	return ClipFilters{Opacity: 100}
}

// IsNeutral reports whether the filters have no visible effect.
func (f ClipFilters) IsNeutral() bool {
	return f == NeutralFilters()
}
