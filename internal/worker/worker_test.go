package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
	"github.com/dhamosankaran/aivideogenstudio/internal/queue"
)

// fakeStore is an in-memory taskStore recording every transition.
type fakeStore struct {
	mu          sync.Mutex
	video       *models.Video
	script      *models.Script
	transitions []models.VideoStatus
	failMessage string
}

func newFakeStore() *fakeStore {
	scriptID := uuid.New()
	return &fakeStore{
		video: &models.Video{
			ID:            uuid.New(),
			ScriptID:      scriptID,
			Status:        models.VideoStatusPending,
			NarrationPath: "/audio/narration.mp3",
		},
		script: &models.Script{
			ID:          scriptID,
			Title:       "test script",
			ContentType: models.ContentDailyUpdate,
			Scenes:      []models.Scene{{Index: 0, Text: "hello"}},
		},
	}
}

func (s *fakeStore) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.video.ID {
		return nil, errors.New("not found")
	}
	copied := *s.video
	return &copied, nil
}

func (s *fakeStore) GetScript(ctx context.Context, id uuid.UUID) (*models.Script, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.script.ID {
		return nil, errors.New("not found")
	}
	return s.script, nil
}

func (s *fakeStore) UpdateVideoStatus(ctx context.Context, id uuid.UUID, status models.VideoStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.video.Status = status
	s.transitions = append(s.transitions, status)
	return nil
}

func (s *fakeStore) MarkVideoCompleted(ctx context.Context, id uuid.UUID, outputPath string, durationSec float64, fileSize int64, processingSec float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.video.Status = models.VideoStatusCompleted
	s.video.OutputPath = &outputPath
	s.video.DurationSec = &durationSec
	s.video.FileSizeBytes = &fileSize
	s.video.ProcessingSec = &processingSec
	s.transitions = append(s.transitions, models.VideoStatusCompleted)
	return nil
}

func (s *fakeStore) MarkVideoFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.video.Status = models.VideoStatusFailed
	s.failMessage = errorMessage
	s.transitions = append(s.transitions, models.VideoStatusFailed)
	return nil
}

// fakeComposer scripts the composition outcome.
type fakeComposer struct {
	result *ComposeResult
	err    error
	waitForCtx bool
	calls  int
}

func (c *fakeComposer) Compose(ctx context.Context, video *models.Video, script *models.Script) (*ComposeResult, error) {
	c.calls++
	if c.waitForCtx {
		<-ctx.Done()
		return nil, fmt.Errorf("composition cancelled: %w", ctx.Err())
	}
	return c.result, c.err
}

func renderJob(videoID uuid.UUID) *queue.Job {
	return &queue.Job{ID: uuid.New(), VideoID: videoID, CreatedAt: time.Now()}
}

func TestHandleRenderVideoHappyPath(t *testing.T) {
	store := newFakeStore()
	composer := &fakeComposer{result: &ComposeResult{
		OutputPath:    "/videos/out.mp4",
		DurationSec:   42.5,
		FileSizeBytes: 1 << 20,
	}}
	w := New(store, nil, composer, time.Minute)

	w.handleRenderVideo(context.Background(), renderJob(store.video.ID))

	if store.video.Status != models.VideoStatusCompleted {
		t.Fatalf("status = %s, want completed", store.video.Status)
	}
	want := []models.VideoStatus{models.VideoStatusRendering, models.VideoStatusCompleted}
	if len(store.transitions) != 2 || store.transitions[0] != want[0] || store.transitions[1] != want[1] {
		t.Errorf("transitions = %v, want %v", store.transitions, want)
	}
	if store.video.OutputPath == nil || *store.video.OutputPath != "/videos/out.mp4" {
		t.Error("output path not recorded")
	}
	if store.video.DurationSec == nil || *store.video.DurationSec != 42.5 {
		t.Error("duration not recorded")
	}
	if store.video.ProcessingSec == nil {
		t.Error("processing time not recorded")
	}
}

func TestHandleRenderVideoFailureKeepsErrorVerbatim(t *testing.T) {
	store := newFakeStore()
	composer := &fakeComposer{err: errors.New("narration audio /audio/narration.mp3: no such file")}
	w := New(store, nil, composer, time.Minute)

	w.handleRenderVideo(context.Background(), renderJob(store.video.ID))

	if store.video.Status != models.VideoStatusFailed {
		t.Fatalf("status = %s, want failed", store.video.Status)
	}
	if store.failMessage != "narration audio /audio/narration.mp3: no such file" {
		t.Errorf("error message altered: %q", store.failMessage)
	}
}

func TestHandleRenderVideoSkipsTerminalTasks(t *testing.T) {
	for _, terminal := range []models.VideoStatus{models.VideoStatusCompleted, models.VideoStatusFailed} {
		t.Run(string(terminal), func(t *testing.T) {
			store := newFakeStore()
			store.video.Status = terminal
			composer := &fakeComposer{result: &ComposeResult{}}
			w := New(store, nil, composer, time.Minute)

			w.handleRenderVideo(context.Background(), renderJob(store.video.ID))

			if composer.calls != 0 {
				t.Error("terminal tasks must not be re-composed")
			}
			if len(store.transitions) != 0 {
				t.Errorf("terminal task mutated: %v", store.transitions)
			}
		})
	}
}

func TestHandleRenderVideoTimesOut(t *testing.T) {
	store := newFakeStore()
	composer := &fakeComposer{waitForCtx: true}
	w := New(store, nil, composer, 50*time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.handleRenderVideo(context.Background(), renderJob(store.video.ID))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not honor the task timeout")
	}

	if store.video.Status != models.VideoStatusFailed {
		t.Fatalf("status = %s, want failed after timeout", store.video.Status)
	}
	if store.failMessage == "" {
		t.Error("timeout should be recorded on the task")
	}
}

func TestHandleRenderVideoUnknownVideo(t *testing.T) {
	store := newFakeStore()
	composer := &fakeComposer{result: &ComposeResult{}}
	w := New(store, nil, composer, time.Minute)

	w.handleRenderVideo(context.Background(), renderJob(uuid.New()))

	if composer.calls != 0 || len(store.transitions) != 0 {
		t.Error("unknown video id must be a no-op")
	}
}
