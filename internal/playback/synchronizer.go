package playback

import (
	"context"
	"sync"

	"github.com/3IMAD69/LocalCut-sub000/internal/logging"
	"github.com/3IMAD69/LocalCut-sub000/internal/metrics"
)

// State is the synchronizer lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StatePlaying State = "playing"
	StateSeeking State = "seeking"
	StateError   State = "error"
)

// DefaultSyncTolerance is the decoder divergence, in seconds, above which
// the secondary decoder is re-seeked. Smaller divergences are left alone
// to avoid stutter from constant re-seeking.
const DefaultSyncTolerance = 0.1

// TrimRange is the playable window enforced while a trim edit is being
// authored, in timeline-seconds.
type TrimRange struct {
	Start float64
	End   float64
}

// Synchronizer owns the authoritative playhead clock. It drives the
// external player engines, reconciles their independent decoder clocks
// and enforces trim-range playback boundaries. When both a video and an
// audio player are present, video is the authoritative timing source and
// audio is resynchronized to it.
type Synchronizer struct {
	mu        sync.Mutex
	log       *logging.Logger
	video     Player // preferred clock; may be nil
	audio     Player
	duration  func() float64
	tolerance float64

	state   State
	current float64
	trim    *TrimRange
}

// NewSynchronizer wires a synchronizer to its players. Either player may
// be nil; duration provides the timeline length for seek clamping.
// tolerance <= 0 selects the default 100ms.
func NewSynchronizer(video, audio Player, duration func() float64, tolerance float64, log *logging.Logger) *Synchronizer {
	if tolerance <= 0 {
		tolerance = DefaultSyncTolerance
	}

	s := &Synchronizer{
		log:       log,
		video:     video,
		audio:     audio,
		duration:  duration,
		tolerance: tolerance,
		state:     StateIdle,
	}

	if video != nil {
		video.OnTimeUpdate(s.handleTimeUpdate)
	} else if audio != nil {
		audio.OnTimeUpdate(s.handleTimeUpdate)
	}

	return s
}

// Load prepares all players. idle -> loading -> ready.
func (s *Synchronizer) Load(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	for _, p := range s.players() {
		if err := p.Load(ctx); err != nil {
			s.mu.Lock()
			s.state = StateError
			s.mu.Unlock()
			return err
		}
	}

	s.mu.Lock()
	s.state = StateReady
	s.mu.Unlock()
	return nil
}

// Play starts playback. It is a silent no-op without loaded media or on an
// empty timeline.
func (s *Synchronizer) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return nil
	}
	if s.video == nil && s.audio == nil {
		return nil
	}
	if s.duration != nil && s.duration() <= 0 {
		return nil
	}

	for _, p := range s.playersLocked() {
		if err := p.Play(); err != nil {
			return err
		}
	}
	s.state = StatePlaying
	return nil
}

// Pause halts playback. playing -> ready.
func (s *Synchronizer) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pauseLocked()
}

func (s *Synchronizer) pauseLocked() error {
	if s.state != StatePlaying {
		return nil
	}
	for _, p := range s.playersLocked() {
		if err := p.Pause(); err != nil {
			return err
		}
	}
	s.state = StateReady
	return nil
}

// Seek moves the authoritative playhead, clamping t to [0, duration].
// Any state -> seeking -> ready.
func (s *Synchronizer) Seek(t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seekLocked(t)
}

func (s *Synchronizer) seekLocked(t float64) error {
	if t < 0 {
		t = 0
	}
	if s.duration != nil {
		if d := s.duration(); t > d {
			t = d
		}
	}

	s.state = StateSeeking
	for _, p := range s.playersLocked() {
		if err := p.Seek(t); err != nil {
			s.state = StateError
			return err
		}
	}
	s.current = t
	s.state = StateReady
	metrics.SeeksTotal.Inc()
	return nil
}

// SetTrimRange installs (or clears, with nil) the playable window enforced
// while a trim edit is being authored.
func (s *Synchronizer) SetTrimRange(trim *TrimRange) {
	s.mu.Lock()
	s.trim = trim
	s.mu.Unlock()
}

// SetVolume forwards the output volume to the audio-capable players.
func (s *Synchronizer) SetVolume(v float64) error {
	for _, p := range s.players() {
		if err := p.SetVolume(v); err != nil {
			return err
		}
	}
	return nil
}

// SetMuted forwards the mute flag to the audio-capable players.
func (s *Synchronizer) SetMuted(muted bool) error {
	for _, p := range s.players() {
		if err := p.SetMuted(muted); err != nil {
			return err
		}
	}
	return nil
}

// CurrentTime returns the authoritative playhead position.
func (s *Synchronizer) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// State returns the current lifecycle state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// handleTimeUpdate is the playback clock: it advances the authoritative
// time from the primary player's timeupdate events, enforces the trim
// boundary and reconciles the secondary decoder clock.
func (s *Synchronizer) handleTimeUpdate(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = t

	// The trim end is a hard boundary while a trim is being authored:
	// pause and snap back to the trim start so the playable range is the
	// trimmed window, not the whole source.
	if s.state == StatePlaying && s.trim != nil && t >= s.trim.End {
		if err := s.pauseLocked(); err != nil {
			s.log.ErrorWithErr("failed to pause at trim boundary", err)
			return
		}
		if err := s.seekLocked(s.trim.Start); err != nil {
			s.log.ErrorWithErr("failed to snap back to trim start", err)
			return
		}
		metrics.TrimBoundaryStopsTotal.Inc()
		return
	}

	// Resynchronize the secondary decoder when it drifts past tolerance.
	// Video is authoritative when present, so only audio is corrected.
	if s.video != nil && s.audio != nil {
		at := s.audio.CurrentTime()
		drift := at - t
		if drift < 0 {
			drift = -drift
		}
		if drift > s.tolerance {
			if err := s.audio.Seek(t); err != nil {
				s.log.ErrorWithErr("failed to resync audio decoder", err)
				return
			}
			metrics.DecoderResyncsTotal.Inc()
			s.log.LogDecoderResync(t, at)
		}
	}
}

func (s *Synchronizer) players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playersLocked()
}

func (s *Synchronizer) playersLocked() []Player {
	var out []Player
	if s.video != nil {
		out = append(out, s.video)
	}
	if s.audio != nil {
		out = append(out, s.audio)
	}
	return out
}
