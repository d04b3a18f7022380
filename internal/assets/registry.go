package assets

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/3IMAD69/LocalCut-sub000/internal/cache"
	"github.com/3IMAD69/LocalCut-sub000/internal/engine"
	"github.com/3IMAD69/LocalCut-sub000/internal/logging"
	"github.com/3IMAD69/LocalCut-sub000/internal/metrics"
	"github.com/3IMAD69/LocalCut-sub000/pkg/models"
)

// ErrUnsupportedType is returned by Register for files whose extension
// does not match the declared media type. The asset is not registered.
var ErrUnsupportedType = errors.New("unsupported file type")

// ErrAssetNotFound is returned for lookups of unknown asset ids.
var ErrAssetNotFound = errors.New("asset not found")

// SourceLoadError reports that the decode engine rejected an asset's file.
// Clips referencing the asset stay on the timeline; composition building
// silently skips them until a reload succeeds.
type SourceLoadError struct {
	AssetID string
	Err     error
}

func (e *SourceLoadError) Error() string {
	return fmt.Sprintf("failed to load source for asset %s: %v", e.AssetID, e.Err)
}

func (e *SourceLoadError) Unwrap() error { return e.Err }

// LoadedSource is the runtime binding between an asset id and a decode
// engine handle. It is never persisted and is owned by the registry; clips
// reference assets by id only.
type LoadedSource struct {
	AssetID string            `json:"asset_id"`
	Handle  *engine.InputInfo `json:"handle"`
}

var supportedExtensions = map[models.MediaType]map[string]bool{
	models.MediaTypeVideo: {".mp4": true, ".mov": true, ".mkv": true, ".webm": true, ".avi": true},
	models.MediaTypeAudio: {".mp3": true, ".wav": true, ".aac": true, ".flac": true, ".ogg": true, ".m4a": true},
	models.MediaTypeImage: {".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".bmp": true},
}

// Registry maps imported media files to immutable metadata and to
// lazily-loaded decode engine handles. Source handles are reference
// counted by clip usage: an asset with zero referencing clips has its
// handle dropped.
type Registry struct {
	mu      sync.RWMutex
	decoder engine.Decoder
	cache   *cache.ProbeCache // optional, nil disables probe caching
	log     *logging.Logger
	assets  map[string]*models.MediaAsset
	sources map[string]*LoadedSource
	refs    map[string]int
}

// NewRegistry creates an asset registry. The probe cache may be nil.
func NewRegistry(decoder engine.Decoder, probeCache *cache.ProbeCache, log *logging.Logger) *Registry {
	return &Registry{
		decoder: decoder,
		cache:   probeCache,
		log:     log,
		assets:  make(map[string]*models.MediaAsset),
		sources: make(map[string]*LoadedSource),
		refs:    make(map[string]int),
	}
}

// Register imports a media file: validates its type, probes its metadata
// and returns the immutable asset record. The decodable source handle is
// not loaded here; it is attached lazily by LoadSource.
func (r *Registry) Register(ctx context.Context, filePath string, mediaType models.MediaType) (*models.MediaAsset, error) {
	if !mediaType.Valid() {
		return nil, fmt.Errorf("%w: media type %q", ErrUnsupportedType, mediaType)
	}
	ext := strings.ToLower(filepath.Ext(filePath))
	if !supportedExtensions[mediaType][ext] {
		return nil, fmt.Errorf("%w: %s is not a %s file", ErrUnsupportedType, ext, mediaType)
	}

	info, err := r.probe(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", filePath, err)
	}

	asset := &models.MediaAsset{
		ID:        uuid.New().String(),
		FilePath:  filePath,
		Type:      mediaType,
		Duration:  info.Duration,
		Width:     info.Width,
		Height:    info.Height,
		FrameRate: info.FrameRate,
		Codec:     info.VideoCodec,
		HDR:       info.HDR,
		CreatedAt: time.Now(),
	}
	if mediaType == models.MediaTypeAudio {
		asset.Codec = info.AudioCodec
	}
	if mediaType == models.MediaTypeImage {
		asset.Duration = 0
	}

	r.mu.Lock()
	r.assets[asset.ID] = asset
	r.mu.Unlock()

	metrics.AssetsRegisteredTotal.WithLabelValues(string(mediaType)).Inc()
	r.log.WithAssetID(asset.ID).Infof("registered %s asset %s", mediaType, filepath.Base(filePath))

	return asset, nil
}

func (r *Registry) probe(ctx context.Context, filePath string) (*engine.InputInfo, error) {
	if r.cache != nil {
		if info, err := r.cache.Get(ctx, filePath); err == nil && info != nil {
			return info, nil
		}
	}

	info, err := r.decoder.LoadInput(ctx, filePath)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, filePath, info); err != nil {
			r.log.WithError(err).Warn("failed to cache probe result")
		}
	}

	return info, nil
}

// Asset returns the registered asset for an id.
func (r *Registry) Asset(assetID string) (*models.MediaAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.assets[assetID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, assetID)
	}
	return asset, nil
}

// LoadSource resolves the decode engine handle for an asset. It is
// idempotent: a cached handle is returned without touching the engine.
// On failure it returns a SourceLoadError and caches nothing, so the
// caller can leave clips referencing the asset and retry later.
func (r *Registry) LoadSource(ctx context.Context, asset *models.MediaAsset) (*LoadedSource, error) {
	r.mu.RLock()
	src, ok := r.sources[asset.ID]
	r.mu.RUnlock()
	if ok {
		return src, nil
	}

	handle, err := r.decoder.LoadInput(ctx, asset.FilePath)
	if err != nil {
		metrics.SourceLoadsTotal.WithLabelValues("error").Inc()
		return nil, &SourceLoadError{AssetID: asset.ID, Err: err}
	}

	src = &LoadedSource{AssetID: asset.ID, Handle: handle}

	// A concurrent load of the same asset may have won the race; keep the
	// stored handle so callers always observe one binding per asset.
	r.mu.Lock()
	if existing, ok := r.sources[asset.ID]; ok {
		src = existing
	} else {
		r.sources[asset.ID] = src
		metrics.LoadedSources.Set(float64(len(r.sources)))
	}
	r.mu.Unlock()

	metrics.SourceLoadsTotal.WithLabelValues("ok").Inc()
	return src, nil
}

// UnloadSource drops the cached handle for an asset. Safe to call
// redundantly.
func (r *Registry) UnloadSource(assetID string) {
	r.mu.Lock()
	delete(r.sources, assetID)
	metrics.LoadedSources.Set(float64(len(r.sources)))
	r.mu.Unlock()
}

// Resolve looks up the loaded source for an asset id. It implements the
// resolver interface the composition builder consumes.
func (r *Registry) Resolve(assetID string) (*LoadedSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.sources[assetID]
	return src, ok
}

// Retain records one clip reference to an asset.
func (r *Registry) Retain(assetID string) {
	r.mu.Lock()
	r.refs[assetID]++
	r.mu.Unlock()
}

// Release drops one clip reference. When the count reaches zero the
// source handle is unloaded; the asset record itself stays registered.
func (r *Registry) Release(assetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refs[assetID] > 0 {
		r.refs[assetID]--
	}
	if r.refs[assetID] == 0 {
		delete(r.refs, assetID)
		delete(r.sources, assetID)
		metrics.LoadedSources.Set(float64(len(r.sources)))
	}
}

// RefCount returns the number of clip references to an asset.
func (r *Registry) RefCount(assetID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refs[assetID]
}
