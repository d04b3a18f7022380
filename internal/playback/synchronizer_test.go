package playback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3IMAD69/LocalCut-sub000/internal/logging"
)

// fakePlayer records calls and exposes its clock. Callbacks are never fired
// from inside Seek or Pause; tests tick the clock explicitly.
type fakePlayer struct {
	current  float64
	loadErr  error
	playErr  error
	playing  bool
	volume   float64
	muted    bool
	seeks    []float64
	onUpdate func(float64)
}

func (p *fakePlayer) Load(ctx context.Context) error { return p.loadErr }

func (p *fakePlayer) Play() error {
	if p.playErr != nil {
		return p.playErr
	}
	p.playing = true
	return nil
}

func (p *fakePlayer) Pause() error {
	p.playing = false
	return nil
}

func (p *fakePlayer) Seek(t float64) error {
	p.current = t
	p.seeks = append(p.seeks, t)
	return nil
}

func (p *fakePlayer) SetVolume(v float64) error { return nil }
func (p *fakePlayer) SetMuted(m bool) error     { p.muted = m; return nil }
func (p *fakePlayer) CurrentTime() float64      { return p.current }
func (p *fakePlayer) OnTimeUpdate(fn func(float64)) {
	p.onUpdate = fn
}

// tick simulates a decoder timeupdate event.
func (p *fakePlayer) tick(t float64) {
	p.current = t
	if p.onUpdate != nil {
		p.onUpdate(t)
	}
}

func duration(d float64) func() float64 { return func() float64 { return d } }

func newTestSync(t *testing.T, video, audio Player, d float64) *Synchronizer {
	t.Helper()
	return NewSynchronizer(video, audio, duration(d), 0, logging.Nop())
}

func TestLoadTransitions(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := newTestSync(t, &fakePlayer{}, &fakePlayer{}, 30)
		assert.Equal(t, StateIdle, s.State())
		require.NoError(t, s.Load(context.Background()))
		assert.Equal(t, StateReady, s.State())
	})

	t.Run("FailureEntersErrorState", func(t *testing.T) {
		video := &fakePlayer{loadErr: errors.New("decoder init failed")}
		s := newTestSync(t, video, nil, 30)
		assert.Error(t, s.Load(context.Background()))
		assert.Equal(t, StateError, s.State())
	})
}

func TestPlay(t *testing.T) {
	t.Run("StartsBothPlayers", func(t *testing.T) {
		video, audio := &fakePlayer{}, &fakePlayer{}
		s := newTestSync(t, video, audio, 30)
		require.NoError(t, s.Load(context.Background()))

		require.NoError(t, s.Play())
		assert.Equal(t, StatePlaying, s.State())
		assert.True(t, video.playing)
		assert.True(t, audio.playing)
	})

	t.Run("NoOpBeforeLoad", func(t *testing.T) {
		video := &fakePlayer{}
		s := newTestSync(t, video, nil, 30)
		require.NoError(t, s.Play())
		assert.Equal(t, StateIdle, s.State())
		assert.False(t, video.playing)
	})

	t.Run("NoOpOnEmptyTimeline", func(t *testing.T) {
		video := &fakePlayer{}
		s := newTestSync(t, video, nil, 0)
		require.NoError(t, s.Load(context.Background()))
		require.NoError(t, s.Play())
		assert.Equal(t, StateReady, s.State())
		assert.False(t, video.playing)
	})
}

func TestSeekClamping(t *testing.T) {
	video := &fakePlayer{}
	s := newTestSync(t, video, nil, 30)
	require.NoError(t, s.Load(context.Background()))

	t.Run("Negative", func(t *testing.T) {
		require.NoError(t, s.Seek(-5))
		assert.Equal(t, 0.0, s.CurrentTime())
	})

	t.Run("BeyondDuration", func(t *testing.T) {
		require.NoError(t, s.Seek(99))
		assert.Equal(t, 30.0, s.CurrentTime())
	})

	t.Run("InRange", func(t *testing.T) {
		require.NoError(t, s.Seek(12.5))
		assert.Equal(t, 12.5, s.CurrentTime())
		assert.Equal(t, StateReady, s.State())
	})
}

func TestAudioResync(t *testing.T) {
	t.Run("DriftBeyondToleranceReseeksAudio", func(t *testing.T) {
		video, audio := &fakePlayer{}, &fakePlayer{}
		s := newTestSync(t, video, audio, 30)
		require.NoError(t, s.Load(context.Background()))
		require.NoError(t, s.Play())

		audio.current = 5.25
		video.tick(5.0)

		require.Len(t, audio.seeks, 1)
		assert.Equal(t, 5.0, audio.seeks[0])
		assert.Equal(t, 5.0, audio.CurrentTime())
	})

	t.Run("DriftWithinToleranceLeftAlone", func(t *testing.T) {
		video, audio := &fakePlayer{}, &fakePlayer{}
		s := newTestSync(t, video, audio, 30)
		require.NoError(t, s.Load(context.Background()))
		require.NoError(t, s.Play())

		audio.current = 5.05
		video.tick(5.0)

		assert.Empty(t, audio.seeks)
	})

	t.Run("VideoIsAuthoritative", func(t *testing.T) {
		// The video clock is never corrected; only audio chases it.
		video, audio := &fakePlayer{}, &fakePlayer{}
		s := newTestSync(t, video, audio, 30)
		require.NoError(t, s.Load(context.Background()))
		require.NoError(t, s.Play())

		audio.current = 8.0
		video.tick(7.0)

		assert.Empty(t, video.seeks)
		assert.Equal(t, 7.0, s.CurrentTime())
	})

	t.Run("CustomTolerance", func(t *testing.T) {
		video, audio := &fakePlayer{}, &fakePlayer{}
		s := NewSynchronizer(video, audio, duration(30), 0.5, logging.Nop())
		require.NoError(t, s.Load(context.Background()))
		require.NoError(t, s.Play())

		audio.current = 5.3
		video.tick(5.0)
		assert.Empty(t, audio.seeks)

		audio.current = 5.6
		video.tick(5.0)
		assert.Len(t, audio.seeks, 1)
	})
}

func TestTrimBoundary(t *testing.T) {
	t.Run("PausesAndSnapsToTrimStart", func(t *testing.T) {
		video := &fakePlayer{}
		s := newTestSync(t, video, nil, 30)
		require.NoError(t, s.Load(context.Background()))
		s.SetTrimRange(&TrimRange{Start: 1, End: 4})
		require.NoError(t, s.Play())

		video.tick(4.0)

		assert.Equal(t, StateReady, s.State())
		assert.False(t, video.playing)
		assert.Equal(t, 1.0, s.CurrentTime())
		require.Len(t, video.seeks, 1)
		assert.Equal(t, 1.0, video.seeks[0])
	})

	t.Run("InsideWindowPlaysThrough", func(t *testing.T) {
		video := &fakePlayer{}
		s := newTestSync(t, video, nil, 30)
		require.NoError(t, s.Load(context.Background()))
		s.SetTrimRange(&TrimRange{Start: 1, End: 4})
		require.NoError(t, s.Play())

		video.tick(3.9)

		assert.Equal(t, StatePlaying, s.State())
		assert.Equal(t, 3.9, s.CurrentTime())
		assert.Empty(t, video.seeks)
	})

	t.Run("NoBoundaryWhilePaused", func(t *testing.T) {
		video := &fakePlayer{}
		s := newTestSync(t, video, nil, 30)
		require.NoError(t, s.Load(context.Background()))
		s.SetTrimRange(&TrimRange{Start: 1, End: 4})

		video.tick(5.0)

		assert.Equal(t, 5.0, s.CurrentTime())
		assert.Empty(t, video.seeks)
	})

	t.Run("ClearedTrimRemovesBoundary", func(t *testing.T) {
		video := &fakePlayer{}
		s := newTestSync(t, video, nil, 30)
		require.NoError(t, s.Load(context.Background()))
		s.SetTrimRange(&TrimRange{Start: 1, End: 4})
		s.SetTrimRange(nil)
		require.NoError(t, s.Play())

		video.tick(6.0)

		assert.Equal(t, StatePlaying, s.State())
		assert.Equal(t, 6.0, s.CurrentTime())
	})
}

func TestAudioOnlyTimeline(t *testing.T) {
	audio := &fakePlayer{}
	s := newTestSync(t, nil, audio, 30)
	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, s.Play())

	// With no video player, audio drives the clock directly.
	audio.tick(2.5)
	assert.Equal(t, 2.5, s.CurrentTime())
	assert.Empty(t, audio.seeks)
}
