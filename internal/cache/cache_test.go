package cache

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3IMAD69/LocalCut-sub000/internal/engine"
)

func setupTestCache(t *testing.T) *ProbeCache {
	t.Helper()

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	c, err := NewProbeCache(mr.Host(), port, "", 0, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

// writeMediaFile creates a real file so probe keys can stat it.
func writeMediaFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.mp4")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testInfo(path string) *engine.InputInfo {
	return &engine.InputInfo{
		Path:       path,
		Container:  "mov,mp4,m4a,3gp,3g2,mj2",
		Duration:   30,
		Width:      1920,
		Height:     1080,
		FrameRate:  29.97,
		VideoCodec: "h264",
		AudioCodec: "aac",
		HasVideo:   true,
		HasAudio:   true,
	}
}

func TestProbeCacheRoundTrip(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()
	path := writeMediaFile(t, "fake media bytes")

	got, err := c.Get(ctx, path)
	require.NoError(t, err)
	assert.Nil(t, got, "expected a miss before Set")

	info := testInfo(path)
	require.NoError(t, c.Set(ctx, path, info))

	got, err = c.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestProbeCacheMissOnFileChange(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()
	path := writeMediaFile(t, "original")

	require.NoError(t, c.Set(ctx, path, testInfo(path)))

	// Rewriting with a different size changes the key, so the stale probe
	// result is never served.
	require.NoError(t, os.WriteFile(path, []byte("rewritten with more bytes"), 0o644))

	got, err := c.Get(ctx, path)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProbeCacheVanishedFileIsAMiss(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()
	path := writeMediaFile(t, "soon gone")

	require.NoError(t, c.Set(ctx, path, testInfo(path)))
	require.NoError(t, os.Remove(path))

	got, err := c.Get(ctx, path)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestProbeCacheInvalidate(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()
	path := writeMediaFile(t, "fake media bytes")

	require.NoError(t, c.Set(ctx, path, testInfo(path)))
	require.NoError(t, c.Invalidate(ctx, path))

	got, err := c.Get(ctx, path)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProbeCachePing(t *testing.T) {
	c := setupTestCache(t)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestNewProbeCacheConnectionFailure(t *testing.T) {
	_, err := NewProbeCache("localhost", 1, "", 0, time.Hour)
	assert.Error(t, err)
}
