package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
	"github.com/dhamosankaran/aivideogenstudio/internal/queue"
)

// taskStore is the slice of the database the worker touches.
type taskStore interface {
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
	GetScript(ctx context.Context, id uuid.UUID) (*models.Script, error)
	UpdateVideoStatus(ctx context.Context, id uuid.UUID, status models.VideoStatus) error
	MarkVideoCompleted(ctx context.Context, id uuid.UUID, outputPath string, durationSec float64, fileSize int64, processingSec float64) error
	MarkVideoFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
}

// jobSource is the slice of the queue the worker touches.
type jobSource interface {
	Dequeue(ctx context.Context, queueName string, timeout time.Duration) (*queue.Job, error)
}

// Worker pulls render jobs and drives each task through its lifecycle:
// pending -> rendering -> completed or failed. A task is never retried
// automatically; a failed record keeps the error verbatim for operators.
type Worker struct {
	store       taskStore
	jobs        jobSource
	composer    Composer
	taskTimeout time.Duration
}

func New(store taskStore, jobs jobSource, composer Composer, taskTimeout time.Duration) *Worker {
	if taskTimeout <= 0 {
		taskTimeout = 30 * time.Minute
	}
	return &Worker{
		store:       store,
		jobs:        jobs,
		composer:    composer,
		taskTimeout: taskTimeout,
	}
}

// Start begins processing render jobs with the given concurrency and
// blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}
	log.Printf("Worker started with concurrency: %d", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.processQueue(ctx)
	}

	<-ctx.Done()
	log.Println("Worker shutting down...")
}

func (w *Worker) processQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := w.jobs.Dequeue(ctx, queue.QueueRenderVideo, 5*time.Second)
			if err != nil {
				log.Printf("Error dequeuing render job: %v", err)
				continue
			}
			if job == nil {
				continue
			}

			log.Printf("Processing job %s (video: %s)", job.ID, job.VideoID)
			w.handleRenderVideo(ctx, job)
		}
	}
}

// handleRenderVideo runs one task end to end. Terminal tasks are skipped
// so a re-enqueued job id cannot clobber a finished record.
func (w *Worker) handleRenderVideo(ctx context.Context, job *queue.Job) {
	video, err := w.store.GetVideo(ctx, job.VideoID)
	if err != nil {
		log.Printf("Job %s: failed to load video: %v", job.ID, err)
		return
	}
	if video.Status == models.VideoStatusCompleted || video.Status == models.VideoStatusFailed {
		log.Printf("Job %s: video %s already %s, skipping", job.ID, video.ID, video.Status)
		return
	}

	script, err := w.store.GetScript(ctx, video.ScriptID)
	if err != nil {
		w.fail(ctx, video.ID, fmt.Sprintf("failed to load script: %v", err))
		return
	}

	if err := w.store.UpdateVideoStatus(ctx, video.ID, models.VideoStatusRendering); err != nil {
		log.Printf("Job %s: failed to mark rendering: %v", job.ID, err)
		return
	}

	// Task-level deadline so one stuck render cannot hold the worker
	// slot forever.
	taskCtx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	defer cancel()

	started := time.Now()
	result, err := w.composer.Compose(taskCtx, video, script)
	if err != nil {
		w.fail(ctx, video.ID, err.Error())
		return
	}

	processingSec := time.Since(started).Seconds()
	if err := w.store.MarkVideoCompleted(ctx, video.ID, result.OutputPath, result.DurationSec, result.FileSizeBytes, processingSec); err != nil {
		log.Printf("Job %s: failed to mark completed: %v", job.ID, err)
		return
	}
	log.Printf("Job %s: video %s completed in %.1fs", job.ID, video.ID, processingSec)
}

// fail records the error verbatim on the task. Marking failed uses the
// parent context so a timed-out task context cannot block the write.
func (w *Worker) fail(ctx context.Context, videoID uuid.UUID, message string) {
	log.Printf("Video %s failed: %s", videoID, message)
	if err := w.store.MarkVideoFailed(ctx, videoID, message); err != nil {
		log.Printf("Failed to record failure for %s: %v", videoID, err)
	}
}
