package playback

import "context"

// Player is the narrow capability contract the synchronizer consumes from
// a canvas compositor/player engine. Keeping it this small lets the
// synchronization logic run against a deterministic fake in tests instead
// of real decoders.
type Player interface {
	// Load prepares the player's media for playback.
	Load(ctx context.Context) error
	Play() error
	Pause() error
	Seek(t float64) error
	SetVolume(v float64) error
	SetMuted(muted bool) error
	// CurrentTime reports the player's own decoder clock.
	CurrentTime() float64
	// OnTimeUpdate registers the playback clock callback. At most one
	// callback is active per player.
	OnTimeUpdate(fn func(t float64))
}
