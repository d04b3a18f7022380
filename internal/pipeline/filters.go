package pipeline

import "github.com/3IMAD69/LocalCut-sub000/pkg/models"

// FilterOp is one deterministic filter operation. Values are multiplicative
// factors for brightness/contrast/saturate, degrees for hue-rotate,
// 0..0.4 intensity for sepia and 0..20 radius units for blur.
type FilterOp struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// FilterChain is the resolved filter-and-opacity pair for one layer.
// A chain built from neutral inputs has no ops and opacity exactly 1.
type FilterChain struct {
	Ops     []FilterOp `json:"ops,omitempty"`
	Opacity float64    `json:"opacity"`
}

// IsNeutral reports whether the chain changes nothing.
func (c FilterChain) IsNeutral() bool {
	return len(c.Ops) == 0 && c.Opacity == 1
}

// appendFactor emits a 1+value/divisor multiplicative op, omitting exact
// zeros so the no-edits case round-trips to an empty chain.
func appendFactor(ops []FilterOp, name string, value, divisor float64) []FilterOp {
	if value == 0 {
		return ops
	}
	return append(ops, FilterOp{Name: name, Value: 1 + value/divisor})
}

// ChainFromFilters maps clip presentation filter values to a filter chain.
func ChainFromFilters(f models.ClipFilters) FilterChain {
	var ops []FilterOp
	ops = appendFactor(ops, "brightness", f.Brightness, 100)
	ops = appendFactor(ops, "contrast", f.Contrast, 100)
	ops = appendFactor(ops, "saturate", f.Saturation, 100)
	if f.HueRotate != 0 {
		ops = append(ops, FilterOp{Name: "hue-rotate", Value: f.HueRotate})
	}
	if f.Blur > 0 {
		ops = append(ops, FilterOp{Name: "blur", Value: f.Blur / 100 * 20})
	}
	return FilterChain{Ops: ops, Opacity: f.Opacity / 100}
}

// ChainFromFineTune maps the six fine-tune edit values to a filter chain.
// Exposure maps through brightness at half strength, gamma is approximated
// through contrast at half strength, and temperature warms via sepia or
// cools via a hue shift.
func ChainFromFineTune(ft models.FineTuneEdit) FilterChain {
	if !ft.Enabled {
		return FilterChain{Opacity: 1}
	}

	var ops []FilterOp
	ops = appendFactor(ops, "brightness", ft.Brightness, 100)
	ops = appendFactor(ops, "contrast", ft.Contrast, 100)
	ops = appendFactor(ops, "saturate", ft.Saturation, 100)
	ops = appendFactor(ops, "brightness", ft.Exposure, 200)
	ops = appendFactor(ops, "contrast", ft.Gamma, 200)
	if ft.Temperature > 0 {
		ops = append(ops, FilterOp{Name: "sepia", Value: ft.Temperature / 100 * 0.4})
	} else if ft.Temperature < 0 {
		ops = append(ops, FilterOp{Name: "hue-rotate", Value: ft.Temperature / 100 * 30})
	}
	return FilterChain{Ops: ops, Opacity: 1}
}

// Combine appends the ops of b after a and multiplies the opacities.
// Used when a clip carries both presentation filters and a fine-tune edit.
func Combine(a, b FilterChain) FilterChain {
	if len(b.Ops) == 0 && b.Opacity == 1 {
		return a
	}
	ops := make([]FilterOp, 0, len(a.Ops)+len(b.Ops))
	ops = append(ops, a.Ops...)
	ops = append(ops, b.Ops...)
	return FilterChain{Ops: ops, Opacity: a.Opacity * b.Opacity}
}
