// Package pipeline holds the pure coordinate and edit conversion functions
// shared by the live preview path and the final export path. Both paths
// must go through these functions with the same inputs so that what the
// user previews matches the rendered file.
//
// The operation order is fixed: rotate, then crop, then filter/opacity.
// A 90 or 270 degree rotation swaps width and height, so crop rectangles
// authored against what the user sees are interpreted in the post-rotation
// coordinate space.
package pipeline

import (
	"math"

	"github.com/3IMAD69/LocalCut-sub000/internal/engine"
	"github.com/3IMAD69/LocalCut-sub000/pkg/models"
)

// EffectiveDimensions returns the frame dimensions after a quarter-turn
// rotation: swapped for 90 and 270, unchanged otherwise.
func EffectiveDimensions(width, height, rotation int) (int, int) {
	if rotation == 90 || rotation == 270 {
		return height, width
	}
	return width, height
}

// CropToPixels converts a normalized crop rect to pixel values against the
// post-rotation dimensions of a width x height frame.
func CropToPixels(rect models.CropRect, width, height, rotation int) engine.PixelCrop {
	ew, eh := EffectiveDimensions(width, height, rotation)
	return engine.PixelCrop{
		Left:   int(math.Round(rect.Left * float64(ew))),
		Top:    int(math.Round(rect.Top * float64(eh))),
		Width:  int(math.Round(rect.Width * float64(ew))),
		Height: int(math.Round(rect.Height * float64(eh))),
	}
}

// BuildConvertSpec produces the decode-engine conversion options for a
// clip's committed editing state. Transient drag overrides never reach
// this function.
func BuildConvertSpec(state models.EditingState, asset *models.MediaAsset, inputPath, outputPath, videoCodec, audioCodec string) engine.ConvertSpec {
	spec := engine.ConvertSpec{
		InputPath:  inputPath,
		OutputPath: outputPath,
	}

	video := &engine.VideoOptions{
		Codec:   videoCodec,
		Rotate:  state.RotationDegrees(),
		Discard: asset.Type == models.MediaTypeAudio,
	}
	if state.Crop.Enabled {
		crop := CropToPixels(state.Crop.Rect, asset.Width, asset.Height, video.Rotate)
		video.Crop = &crop
	}
	spec.Video = video

	spec.Audio = &engine.AudioOptions{
		Codec:   audioCodec,
		Discard: state.Mute.Enabled || asset.Type == models.MediaTypeImage,
	}

	if state.Trim.Enabled {
		spec.Trim = &engine.TrimRange{Start: state.Trim.Start, End: state.Trim.End}
	}

	return spec
}
