package engine

import (
	"context"
	"fmt"
	"strings"
)

// InputInfo is the decode engine's handle for a loaded input: the format
// and track metadata the rest of the system keys off. It doubles as the
// "source handle" the asset registry caches per asset.
type InputInfo struct {
	Path       string  `json:"path"`
	Container  string  `json:"container"`
	Duration   float64 `json:"duration"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FrameRate  float64 `json:"frame_rate"`
	VideoCodec string  `json:"video_codec,omitempty"`
	AudioCodec string  `json:"audio_codec,omitempty"`
	HDR        bool    `json:"hdr"`
	HasVideo   bool    `json:"has_video"`
	HasAudio   bool    `json:"has_audio"`
}

// PixelCrop is a crop window in pixel space, already converted against the
// post-rotation frame dimensions by the coordinate pipeline.
type PixelCrop struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// VideoOptions selects the video-side treatment for a conversion.
type VideoOptions struct {
	Crop    *PixelCrop
	Rotate  int // quarter turns only: 0, 90, 180, 270
	Codec   string
	Discard bool
}

// AudioOptions selects the audio-side treatment for a conversion.
type AudioOptions struct {
	Codec   string
	Discard bool
}

// TrimRange bounds a conversion to a window of the input, in source-seconds.
type TrimRange struct {
	Start float64
	End   float64
}

// ConvertSpec describes one conversion job end to end.
type ConvertSpec struct {
	InputPath  string
	OutputPath string
	Video      *VideoOptions
	Audio      *AudioOptions
	Trim       *TrimRange
}

// ProgressFunc receives conversion progress in percent (0-100).
type ProgressFunc func(percent float64)

// Decoder is the narrow contract the engine core consumes from the media
// decode/encode collaborator. Implementations must be safe for concurrent
// use.
type Decoder interface {
	// LoadInput probes a file and returns its metadata handle.
	LoadInput(ctx context.Context, path string) (*InputInfo, error)
	// Convert runs one conversion job, reporting progress until it
	// completes, fails or the context is cancelled.
	Convert(ctx context.Context, spec ConvertSpec, progress ProgressFunc) error
}

// DiscardedTrack records a track a conversion would drop and why.
type DiscardedTrack struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// ConversionInvalidError reports that no usable tracks would survive the
// requested conversion options. It is fatal to that conversion attempt
// only.
type ConversionInvalidError struct {
	Discarded []DiscardedTrack
}

func (e *ConversionInvalidError) Error() string {
	parts := make([]string, len(e.Discarded))
	for i, d := range e.Discarded {
		parts[i] = fmt.Sprintf("%s (%s)", d.Kind, d.Reason)
	}
	return "conversion discards every track: " + strings.Join(parts, ", ")
}
