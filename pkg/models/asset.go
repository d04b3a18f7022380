package models

import "time"

// MediaType identifies the kind of media an asset, clip or track carries.
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
	MediaTypeImage MediaType = "image"
)

// Valid reports whether the media type is one of the supported kinds.
func (t MediaType) Valid() bool {
	switch t {
	case MediaTypeVideo, MediaTypeAudio, MediaTypeImage:
		return true
	}
	return false
}

// MediaAsset is an imported media file and its probed metadata.
// Assets are immutable after registration; the decodable source handle is
// attached lazily by the asset registry and never stored on the asset itself.
type MediaAsset struct {
	ID        string    `json:"id"`
	FilePath  string    `json:"file_path"`
	Type      MediaType `json:"type"`
	Duration  float64   `json:"duration"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	FrameRate float64   `json:"frame_rate,omitempty"`
	Codec     string    `json:"codec,omitempty"`
	HDR       bool      `json:"hdr,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
