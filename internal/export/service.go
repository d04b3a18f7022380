// Package export renders committed timeline clips to output files through
// the decode/encode engine. Jobs are scheduled on an in-process priority
// queue with a concurrency gate; a failed job is terminal for that attempt
// only and leaves the timeline model untouched.
package export

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/3IMAD69/LocalCut-sub000/internal/engine"
	"github.com/3IMAD69/LocalCut-sub000/internal/logging"
	"github.com/3IMAD69/LocalCut-sub000/internal/metrics"
	"github.com/3IMAD69/LocalCut-sub000/internal/pipeline"
)

// ErrJobNotFound is returned for lookups of unknown job ids.
var ErrJobNotFound = errors.New("export job not found")

// Service schedules and runs export jobs.
type Service struct {
	mu            sync.Mutex
	queue         priorityQueue
	jobs          map[string]*Job
	active        int
	maxConcurrent int

	decoder engine.Decoder
	log     *logging.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewService creates an export service running at most maxConcurrent
// conversions at once.
func NewService(decoder engine.Decoder, maxConcurrent int, log *logging.Logger) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		jobs:          make(map[string]*Job),
		maxConcurrent: maxConcurrent,
		decoder:       decoder,
		log:           log,
		ctx:           ctx,
		cancel:        cancel,
	}
	heap.Init(&s.queue)
	return s
}

// Stop cancels all running conversions and stops scheduling.
func (s *Service) Stop() {
	s.cancel()
}

// Submit queues an export job and returns it immediately.
func (s *Service) Submit(req Request) (*Job, error) {
	if req.Clip == nil || req.Asset == nil {
		return nil, fmt.Errorf("export request needs a clip and its asset")
	}
	if req.OutputPath == "" {
		return nil, fmt.Errorf("export request needs an output path")
	}
	if err := req.Editing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid editing state: %w", err)
	}

	job := &Job{
		ID:        uuid.New().String(),
		Request:   req,
		CreatedAt: time.Now(),
		Status:    StatusPending,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	heap.Push(&s.queue, &queueItem{job: job, priority: req.Priority, timestamp: job.CreatedAt})
	job.Status = StatusQueued
	metrics.ExportQueueDepth.Set(float64(s.queue.Len()))
	s.mu.Unlock()

	s.log.WithJobID(job.ID).WithClipID(req.Clip.ID).Infof("export queued (priority %d)", req.Priority)
	s.pump()
	return job, nil
}

// Job returns the job for an id.
func (s *Service) Job(jobID string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return job, nil
}

// Cancel aborts a job. Queued jobs are marked cancelled and skipped when
// popped; processing jobs get their conversion context cancelled.
func (s *Service) Cancel(jobID string) error {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	var cancel func()
	if ok {
		cancel = job.cancel
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	job.mu.Lock()
	switch job.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		job.mu.Unlock()
		return nil
	case StatusProcessing:
		job.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return nil
	default:
		job.Status = StatusCancelled
		job.mu.Unlock()
		metrics.ExportJobsTotal.WithLabelValues(StatusCancelled).Inc()
		return nil
	}
}

// QueueDepth returns the number of jobs waiting for a worker slot.
func (s *Service) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// pump starts queued jobs while worker slots are free.
func (s *Service) pump() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.active < s.maxConcurrent && s.queue.Len() > 0 {
		item := heap.Pop(&s.queue).(*queueItem)
		metrics.ExportQueueDepth.Set(float64(s.queue.Len()))

		status, _, _, _ := item.job.SnapshotStatus()
		if status == StatusCancelled {
			continue
		}

		s.active++
		metrics.ExportJobsInProgress.Set(float64(s.active))
		go s.run(item.job)
	}
}

func (s *Service) run(job *Job) {
	defer func() {
		s.mu.Lock()
		s.active--
		metrics.ExportJobsInProgress.Set(float64(s.active))
		s.mu.Unlock()
		s.pump()
	}()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	job.mu.Lock()
	job.Status = StatusProcessing
	now := time.Now()
	job.StartedAt = &now
	job.cancel = cancel
	job.mu.Unlock()

	log := s.log.WithJobID(job.ID)
	req := job.Request

	spec := pipeline.BuildConvertSpec(req.Editing, req.Asset, req.Asset.FilePath, req.OutputPath, req.VideoCodec, req.AudioCodec)

	err := s.decoder.Convert(ctx, spec, func(pct float64) {
		job.setProgress(pct)
		log.LogExportProgress(job.ID, pct)
	})

	done := time.Now()
	job.mu.Lock()
	job.CompletedAt = &done
	job.cancel = nil

	switch {
	case err == nil:
		job.Status = StatusCompleted
		job.Progress = 100
	case ctx.Err() != nil:
		job.Status = StatusCancelled
	default:
		job.Status = StatusFailed
		job.ErrorMsg = (&JobError{JobID: job.ID, Err: err}).Error()
		var invalid *engine.ConversionInvalidError
		if errors.As(err, &invalid) {
			job.Discarded = invalid.Discarded
		}
	}
	status := job.Status
	job.mu.Unlock()

	metrics.ExportJobsTotal.WithLabelValues(status).Inc()
	metrics.ExportDuration.Observe(done.Sub(now).Seconds())

	switch status {
	case StatusCompleted:
		log.Infof("export completed in %.1fs", done.Sub(now).Seconds())
	case StatusCancelled:
		log.Warn("export cancelled")
	default:
		log.ErrorWithErr("export failed", err)
	}
}
