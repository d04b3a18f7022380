package export

import (
	"container/heap"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3IMAD69/LocalCut-sub000/internal/engine"
	"github.com/3IMAD69/LocalCut-sub000/internal/logging"
	"github.com/3IMAD69/LocalCut-sub000/pkg/models"
)

// stubDecoder lets tests script conversion outcomes. When block is set the
// conversion waits for release (or context cancellation) before returning.
type stubDecoder struct {
	err     error
	block   bool
	release chan struct{}
	started chan string
}

func newStubDecoder() *stubDecoder {
	return &stubDecoder{release: make(chan struct{}), started: make(chan string, 16)}
}

func (d *stubDecoder) LoadInput(ctx context.Context, path string) (*engine.InputInfo, error) {
	return &engine.InputInfo{Path: path, HasVideo: true, HasAudio: true}, nil
}

func (d *stubDecoder) Convert(ctx context.Context, spec engine.ConvertSpec, progress engine.ProgressFunc) error {
	d.started <- spec.InputPath
	if d.block {
		select {
		case <-d.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if d.err != nil {
		return d.err
	}
	if progress != nil {
		progress(50)
		progress(100)
	}
	return nil
}

func exportRequest(input string, priority int) Request {
	return Request{
		Clip:  &models.TimelineClip{ID: "clip-" + input, Type: models.MediaTypeVideo, AssetID: "asset-1", Duration: 5, TrimEnd: 5},
		Asset: &models.MediaAsset{ID: "asset-1", FilePath: input, Type: models.MediaTypeVideo, Duration: 30},
		Editing: models.EditingState{
			Trim: models.TrimEdit{Enabled: true, Start: 1, End: 4},
		},
		OutputPath: "/out/" + input + ".mp4",
		Priority:   priority,
	}
}

func waitForStatus(t *testing.T, s *Service, jobID, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		job, err := s.Job(jobID)
		if err != nil {
			return false
		}
		status, _, _, _ := job.SnapshotStatus()
		return status == want
	}, 2*time.Second, 5*time.Millisecond, "job %s never reached %s", jobID, want)
}

func TestPriorityQueueOrdering(t *testing.T) {
	base := time.Now()
	pq := priorityQueue{}
	heap.Init(&pq)

	push := func(id string, priority int, offset time.Duration) {
		heap.Push(&pq, &queueItem{
			job:       &Job{ID: id},
			priority:  priority,
			timestamp: base.Add(offset),
		})
	}

	push("low", PriorityLow, 0)
	push("high", PriorityHigh, time.Second)
	push("normal-first", PriorityNormal, 2*time.Second)
	push("normal-second", PriorityNormal, 3*time.Second)

	var order []string
	for pq.Len() > 0 {
		order = append(order, heap.Pop(&pq).(*queueItem).job.ID)
	}
	assert.Equal(t, []string{"high", "normal-first", "normal-second", "low"}, order)
}

func TestSubmitValidation(t *testing.T) {
	s := NewService(newStubDecoder(), 1, logging.Nop())
	defer s.Stop()

	t.Run("MissingClip", func(t *testing.T) {
		req := exportRequest("in.mp4", PriorityNormal)
		req.Clip = nil
		_, err := s.Submit(req)
		assert.Error(t, err)
	})

	t.Run("MissingOutputPath", func(t *testing.T) {
		req := exportRequest("in.mp4", PriorityNormal)
		req.OutputPath = ""
		_, err := s.Submit(req)
		assert.Error(t, err)
	})

	t.Run("InvalidEditingState", func(t *testing.T) {
		req := exportRequest("in.mp4", PriorityNormal)
		req.Editing.Trim = models.TrimEdit{Enabled: true, Start: 4, End: 4}
		_, err := s.Submit(req)
		assert.Error(t, err)
	})
}

func TestJobCompletes(t *testing.T) {
	decoder := newStubDecoder()
	s := NewService(decoder, 1, logging.Nop())
	defer s.Stop()

	job, err := s.Submit(exportRequest("in.mp4", PriorityNormal))
	require.NoError(t, err)

	waitForStatus(t, s, job.ID, StatusCompleted)

	_, progress, errMsg, _ := job.SnapshotStatus()
	assert.Equal(t, 100.0, progress)
	assert.Empty(t, errMsg)
}

func TestJobFailure(t *testing.T) {
	t.Run("DecoderError", func(t *testing.T) {
		decoder := newStubDecoder()
		decoder.err = errors.New("encoder crashed")
		s := NewService(decoder, 1, logging.Nop())
		defer s.Stop()

		job, err := s.Submit(exportRequest("in.mp4", PriorityNormal))
		require.NoError(t, err)

		waitForStatus(t, s, job.ID, StatusFailed)

		_, _, errMsg, _ := job.SnapshotStatus()
		assert.Contains(t, errMsg, job.ID)
		assert.Contains(t, errMsg, "encoder crashed")
	})

	t.Run("ConversionInvalidCarriesDiscardedTracks", func(t *testing.T) {
		decoder := newStubDecoder()
		decoder.err = &engine.ConversionInvalidError{Discarded: []engine.DiscardedTrack{
			{Kind: "video", Reason: "discarded by options"},
			{Kind: "audio", Reason: "muted"},
		}}
		s := NewService(decoder, 1, logging.Nop())
		defer s.Stop()

		job, err := s.Submit(exportRequest("in.mp4", PriorityNormal))
		require.NoError(t, err)

		waitForStatus(t, s, job.ID, StatusFailed)

		_, _, _, discarded := job.SnapshotStatus()
		require.Len(t, discarded, 2)
		assert.Equal(t, "video", discarded[0].Kind)
	})
}

func TestHighPriorityRunsFirst(t *testing.T) {
	decoder := newStubDecoder()
	decoder.block = true
	s := NewService(decoder, 1, logging.Nop())
	defer s.Stop()

	// Occupy the single worker slot so the next submissions queue up.
	_, err := s.Submit(exportRequest("busy.mp4", PriorityNormal))
	require.NoError(t, err)
	require.Equal(t, "busy.mp4", <-decoder.started)

	_, err = s.Submit(exportRequest("low.mp4", PriorityLow))
	require.NoError(t, err)
	_, err = s.Submit(exportRequest("high.mp4", PriorityHigh))
	require.NoError(t, err)
	assert.Equal(t, 2, s.QueueDepth())

	// A closed release channel unblocks current and future conversions.
	close(decoder.release)

	assert.Equal(t, "high.mp4", <-decoder.started)
	assert.Equal(t, "low.mp4", <-decoder.started)
}

func TestCancel(t *testing.T) {
	t.Run("QueuedJobIsSkipped", func(t *testing.T) {
		decoder := newStubDecoder()
		decoder.block = true
		s := NewService(decoder, 1, logging.Nop())
		defer s.Stop()

		_, err := s.Submit(exportRequest("busy.mp4", PriorityNormal))
		require.NoError(t, err)
		require.Equal(t, "busy.mp4", <-decoder.started)

		queued, err := s.Submit(exportRequest("queued.mp4", PriorityNormal))
		require.NoError(t, err)

		require.NoError(t, s.Cancel(queued.ID))
		status, _, _, _ := queued.SnapshotStatus()
		assert.Equal(t, StatusCancelled, status)

		close(decoder.release)

		// The cancelled job must never start.
		waitForStatus(t, s, queued.ID, StatusCancelled)
		select {
		case path := <-decoder.started:
			t.Fatalf("cancelled job started: %s", path)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("ProcessingJobGetsContextCancelled", func(t *testing.T) {
		decoder := newStubDecoder()
		decoder.block = true
		s := NewService(decoder, 1, logging.Nop())
		defer s.Stop()

		job, err := s.Submit(exportRequest("busy.mp4", PriorityNormal))
		require.NoError(t, err)
		require.Equal(t, "busy.mp4", <-decoder.started)

		require.NoError(t, s.Cancel(job.ID))
		waitForStatus(t, s, job.ID, StatusCancelled)
	})

	t.Run("UnknownJob", func(t *testing.T) {
		s := NewService(newStubDecoder(), 1, logging.Nop())
		defer s.Stop()
		assert.ErrorIs(t, s.Cancel("nope"), ErrJobNotFound)
	})
}

func TestJobLookup(t *testing.T) {
	s := NewService(newStubDecoder(), 1, logging.Nop())
	defer s.Stop()

	job, err := s.Submit(exportRequest("in.mp4", PriorityNormal))
	require.NoError(t, err)

	got, err := s.Job(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)

	_, err = s.Job("nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
