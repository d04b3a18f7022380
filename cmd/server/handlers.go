package main

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/3IMAD69/LocalCut-sub000/internal/assets"
	"github.com/3IMAD69/LocalCut-sub000/internal/cache"
	"github.com/3IMAD69/LocalCut-sub000/internal/composition"
	"github.com/3IMAD69/LocalCut-sub000/internal/config"
	"github.com/3IMAD69/LocalCut-sub000/internal/engine"
	"github.com/3IMAD69/LocalCut-sub000/internal/export"
	"github.com/3IMAD69/LocalCut-sub000/internal/logging"
	"github.com/3IMAD69/LocalCut-sub000/internal/metrics"
	"github.com/3IMAD69/LocalCut-sub000/internal/timeline"
	"github.com/3IMAD69/LocalCut-sub000/pkg/models"
)

// Session is one independent editing context: a timeline, its asset
// registry and its transient gesture overrides.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Timeline  *timeline.Timeline      `json:"-"`
	Overrides *timeline.OverrideStore `json:"-"`
	Registry  *assets.Registry        `json:"-"`
}

// Server holds the shared engine services and the live sessions.
type Server struct {
	cfg      *config.Config
	log      *logging.Logger
	decoder  engine.Decoder
	cache    *cache.ProbeCache
	exporter *export.Service

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewServer creates the API server.
func NewServer(cfg *config.Config, log *logging.Logger, decoder engine.Decoder, probeCache *cache.ProbeCache, exporter *export.Service) *Server {
	return &Server{
		cfg:      cfg,
		log:      log,
		decoder:  decoder,
		cache:    probeCache,
		exporter: exporter,
		sessions: make(map[string]*Session),
	}
}

func (s *Server) session(c *gin.Context) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[c.Param("id")]
	s.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil
	}
	return sess
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) createSession(c *gin.Context) {
	sess := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Timeline:  timeline.New(s.cfg.Playback.MinTimelineDuration),
		Overrides: timeline.NewOverrideStore(),
		Registry:  assets.NewRegistry(s.decoder, s.cache, s.log),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.log.WithSessionID(sess.ID).Info("session created")
	c.JSON(http.StatusCreated, sess)
}

func (s *Server) getSession(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         sess.ID,
		"created_at": sess.CreatedAt,
		"tracks":     sess.Timeline.Snapshot(),
		"duration":   sess.Timeline.Duration(),
	})
}

func (s *Server) deleteSession(c *gin.Context) {
	s.mu.Lock()
	delete(s.sessions, c.Param("id"))
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

type registerAssetRequest struct {
	FilePath string           `json:"file_path" binding:"required"`
	Type     models.MediaType `json:"type" binding:"required"`
}

func (s *Server) registerAsset(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}

	var req registerAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset, err := sess.Registry.Register(c.Request.Context(), req.FilePath, req.Type)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, assets.ErrUnsupportedType) {
			status = http.StatusUnsupportedMediaType
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, asset)
}

func (s *Server) loadSource(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}

	asset, err := sess.Registry.Asset(c.Param("assetId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	src, err := sess.Registry.LoadSource(c.Request.Context(), asset)
	if err != nil {
		// The asset stays registered; composition skips its clips until
		// a reload succeeds.
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, src)
}

func (s *Server) unloadSource(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}
	sess.Registry.UnloadSource(c.Param("assetId"))
	c.Status(http.StatusNoContent)
}

type addTrackRequest struct {
	Name string           `json:"name"`
	Type models.MediaType `json:"type" binding:"required"`
}

func (s *Server) addTrack(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}

	var req addTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	track, err := sess.Timeline.AddTrack(req.Name, req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, track)
}

type addClipRequest struct {
	Name      string  `json:"name"`
	AssetID   string  `json:"asset_id" binding:"required"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration" binding:"required"`
	TrimStart float64 `json:"trim_start"`
	TrimEnd   float64 `json:"trim_end"`
}

func (s *Server) addClip(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}

	var req addClipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset, err := sess.Registry.Asset(req.AssetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	trimEnd := req.TrimEnd
	if trimEnd == 0 && asset.Type != models.MediaTypeImage {
		trimEnd = asset.Duration
	}
	if asset.Type == models.MediaTypeImage && trimEnd == 0 {
		trimEnd = req.TrimStart + req.Duration
	}

	clip := &models.TimelineClip{
		Name:      req.Name,
		Type:      asset.Type,
		AssetID:   asset.ID,
		StartTime: req.StartTime,
		Duration:  req.Duration,
		TrimStart: req.TrimStart,
		TrimEnd:   trimEnd,
	}

	if err := sess.Timeline.AddClip(c.Param("trackId"), clip, asset); err != nil {
		c.JSON(timelineErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	sess.Registry.Retain(asset.ID)

	// Load the source eagerly so the first composition after a drop does
	// not skip the clip; a failure here degrades to skipped frames, it is
	// not an error for the add itself.
	if _, err := sess.Registry.LoadSource(c.Request.Context(), asset); err != nil {
		s.log.WithClipID(clip.ID).ErrorWithErr("source load failed, clip will be skipped", err)
	}

	c.JSON(http.StatusCreated, clip)
}

type moveClipRequest struct {
	StartTime float64 `json:"start_time"`
	TrackID   string  `json:"track_id"`
}

func (s *Server) moveClip(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}

	var req moveClipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := sess.Timeline.MoveClip(c.Param("clipId"), req.StartTime, req.TrackID); err != nil {
		c.JSON(timelineErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	clip, trackID, _ := sess.Timeline.Clip(c.Param("clipId"))
	c.JSON(http.StatusOK, gin.H{"clip": clip, "track_id": trackID})
}

func (s *Server) removeClip(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}

	clip, err := sess.Timeline.RemoveClip(c.Param("clipId"))
	if err != nil {
		c.JSON(timelineErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	sess.Registry.Release(clip.AssetID)
	sess.Overrides.Clear(clip.ID)
	c.Status(http.StatusNoContent)
}

func (s *Server) setClipTransform(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}

	var tr models.ClipTransform
	if err := c.ShouldBindJSON(&tr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := sess.Timeline.SetClipTransform(c.Param("clipId"), tr); err != nil {
		c.JSON(timelineErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) setClipFilters(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}

	var f models.ClipFilters
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := sess.Timeline.SetClipFilters(c.Param("clipId"), f); err != nil {
		c.JSON(timelineErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) setClipEditing(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}

	var state models.EditingState
	if err := c.ShouldBindJSON(&state); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := sess.Timeline.SetClipEditing(c.Param("clipId"), state); err != nil {
		c.JSON(timelineErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) stageTransformOverride(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}

	var tr models.ClipTransform
	if err := c.ShouldBindJSON(&tr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess.Overrides.SetTransform(c.Param("clipId"), tr)
	c.Status(http.StatusNoContent)
}

func (s *Server) stageFiltersOverride(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}

	var f models.ClipFilters
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess.Overrides.SetFilters(c.Param("clipId"), f)
	c.Status(http.StatusNoContent)
}

func (s *Server) commitOverrides(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}

	clipID := c.Param("clipId")
	if err := sess.Overrides.CommitTransform(sess.Timeline, clipID); err != nil {
		c.JSON(timelineErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if err := sess.Overrides.CommitFilters(sess.Timeline, clipID); err != nil {
		c.JSON(timelineErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) clearOverrides(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}
	sess.Overrides.Clear(c.Param("clipId"))
	c.Status(http.StatusNoContent)
}

func (s *Server) getComposition(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}

	t, err := strconv.ParseFloat(c.DefaultQuery("t", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time"})
		return
	}
	width, _ := strconv.Atoi(c.DefaultQuery("width", "1920"))
	height, _ := strconv.Atoi(c.DefaultQuery("height", "1080"))

	start := time.Now()
	comp := composition.Build(
		t,
		sess.Timeline.Snapshot(),
		sess.Registry,
		composition.Size{Width: width, Height: height},
		sess.Overrides.Snapshot(),
	)
	metrics.CompositionsBuiltTotal.Inc()
	metrics.CompositionBuildDuration.Observe(time.Since(start).Seconds())
	metrics.CompositionLayers.Observe(float64(len(comp.Layers)))

	c.JSON(http.StatusOK, comp)
}

type exportClipRequest struct {
	OutputPath string `json:"output_path" binding:"required"`
	VideoCodec string `json:"video_codec"`
	AudioCodec string `json:"audio_codec"`
	Priority   int    `json:"priority"`
}

func (s *Server) exportClip(c *gin.Context) {
	sess := s.session(c)
	if sess == nil {
		return
	}

	var req exportClipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	clip, _, err := sess.Timeline.Clip(c.Param("clipId"))
	if err != nil {
		c.JSON(timelineErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	asset, err := sess.Registry.Asset(clip.AssetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	// Exports always read the committed editing state, never transient
	// gesture overrides.
	var editing models.EditingState
	if clip.Editing != nil {
		editing = *clip.Editing
	}

	videoCodec := req.VideoCodec
	if videoCodec == "" {
		videoCodec = s.cfg.Export.DefaultVideoCodec
	}
	audioCodec := req.AudioCodec
	if audioCodec == "" {
		audioCodec = s.cfg.Export.DefaultAudioCodec
	}

	job, err := s.exporter.Submit(export.Request{
		Clip:       clip,
		Asset:      asset,
		Editing:    editing,
		OutputPath: req.OutputPath,
		VideoCodec: videoCodec,
		AudioCodec: audioCodec,
		Priority:   req.Priority,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": export.StatusQueued})
}

func (s *Server) getExportJob(c *gin.Context) {
	job, err := s.exporter.Job(c.Param("jobId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	status, progress, errMsg, discarded := job.SnapshotStatus()
	c.JSON(http.StatusOK, gin.H{
		"id":        job.ID,
		"status":    status,
		"progress":  progress,
		"error":     errMsg,
		"discarded": discarded,
	})
}

func (s *Server) cancelExportJob(c *gin.Context) {
	if err := s.exporter.Cancel(c.Param("jobId")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func timelineErrorStatus(err error) int {
	switch {
	case errors.Is(err, timeline.ErrClipNotFound), errors.Is(err, timeline.ErrTrackNotFound):
		return http.StatusNotFound
	case errors.Is(err, timeline.ErrIncompatibleTrackType), errors.Is(err, timeline.ErrClipOverlap):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
