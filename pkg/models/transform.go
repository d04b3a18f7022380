package models

// ClipTransform is a non-destructive placement of a clip within the output
// canvas: a pixel offset from the centered default position, independent
// scale factors and a rotation in degrees. It is distinct from the source
// rotate edit in EditingState, which happens before placement.
type ClipTransform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ScaleX   float64 `json:"scale_x"`
	ScaleY   float64 `json:"scale_y"`
	Rotation float64 `json:"rotation"`
}

// DefaultTransform returns the identity placement: centered, unit scale,
// no rotation.
func DefaultTransform() ClipTransform {
	return ClipTransform{ScaleX: 1, ScaleY: 1}
}

// IsDefault reports whether the transform is the identity placement.
func (t ClipTransform) IsDefault() bool {
	return t == DefaultTransform()
}
