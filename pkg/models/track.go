package models

// TimelineTrack is a type-homogeneous lane of non-overlapping clips.
// Slice order is arrangement order; the position of the track within the
// timeline's track list defines its z-order (earlier tracks render above
// later ones).
type TimelineTrack struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Type   MediaType       `json:"type"`
	Clips  []*TimelineClip `json:"clips"`
	Hidden bool            `json:"hidden"`
	Muted  bool            `json:"muted"`
}

// Clip returns the clip with the given id, or nil.
func (tr *TimelineTrack) Clip(id string) *TimelineClip {
	for _, c := range tr.Clips {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Accepts reports whether a clip of the given media type may live on this
// track.
func (tr *TimelineTrack) Accepts(t MediaType) bool {
	return tr.Type == t
}

// Clone returns a deep copy of the track and its clips.
func (tr *TimelineTrack) Clone() *TimelineTrack {
	out := *tr
	out.Clips = make([]*TimelineClip, len(tr.Clips))
	for i, c := range tr.Clips {
		cc := *c
		if c.Transform != nil {
			t := *c.Transform
			cc.Transform = &t
		}
		if c.Filters != nil {
			f := *c.Filters
			cc.Filters = &f
		}
		if c.Editing != nil {
			e := *c.Editing
			cc.Editing = &e
		}
		out.Clips[i] = &cc
	}
	return &out
}
