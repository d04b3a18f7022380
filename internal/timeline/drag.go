package timeline

import (
	"fmt"
	"math"
)

// DragCandidate is the transient target of an in-progress clip drag. It is
// never part of the committed model; it is applied on drop, and only if
// the destination track accepts the clip's type.
type DragCandidate struct {
	ClipID    string  `json:"clip_id"`
	StartTime float64 `json:"start_time"`
	TrackID   string  `json:"track_id"`
}

// Drag tracks one clip-move gesture from grab to drop. The committed model
// is not touched until Commit.
type Drag struct {
	tl              *Timeline
	clipID          string
	grabOffsetX     float64
	pixelsPerSecond float64
	candidate       DragCandidate
}

// NewDrag starts a drag for a clip. grabOffsetX is the pointer offset
// within the clip at grab time, pixelsPerSecond the current zoom.
func NewDrag(tl *Timeline, clipID string, grabOffsetX, pixelsPerSecond float64) (*Drag, error) {
	if pixelsPerSecond <= 0 {
		return nil, fmt.Errorf("pixels per second %.3f must be positive", pixelsPerSecond)
	}

	clip, trackID, err := tl.Clip(clipID)
	if err != nil {
		return nil, err
	}

	return &Drag{
		tl:              tl,
		clipID:          clipID,
		grabOffsetX:     grabOffsetX,
		pixelsPerSecond: pixelsPerSecond,
		candidate: DragCandidate{
			ClipID:    clipID,
			StartTime: clip.StartTime,
			TrackID:   trackID,
		},
	}, nil
}

// Update recomputes the candidate from the pointer position. An empty
// targetTrackID keeps the current candidate track.
func (d *Drag) Update(pointerX float64, targetTrackID string) DragCandidate {
	d.candidate.StartTime = math.Max(0, (pointerX-d.grabOffsetX)/d.pixelsPerSecond)
	if targetTrackID != "" {
		d.candidate.TrackID = targetTrackID
	}
	return d.candidate
}

// Candidate returns the current drop target.
func (d *Drag) Candidate() DragCandidate {
	return d.candidate
}

// Commit applies the candidate to the model. A type-incompatible drop
// returns the error and leaves the clip at its original position; the
// error is feedback for the host UI, never a model change.
func (d *Drag) Commit() error {
	return d.tl.MoveClip(d.candidate.ClipID, d.candidate.StartTime, d.candidate.TrackID)
}
