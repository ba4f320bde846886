package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
	"github.com/dhamosankaran/aivideogenstudio/internal/services"
)

// endCardDuration is how long the closing card holds after the last scene.
const endCardDuration = 4.0

// mediaPrefetchConcurrency bounds parallel provider lookups per task.
const mediaPrefetchConcurrency = 4

// MediaFetcher resolves one background per scene. Satisfied by
// services.MediaOrchestrator; faked in tests.
type MediaFetcher interface {
	FetchSceneMedia(ctx context.Context, q services.MediaQuery, entityName string, groundEntity bool) (*models.MediaAsset, error)
}

// ComposeResult describes a finished artifact.
type ComposeResult struct {
	OutputPath    string
	DurationSec   float64
	FileSizeBytes int64
}

// Composer turns one task into a finished video. Faked in worker tests.
type Composer interface {
	Compose(ctx context.Context, video *models.Video, script *models.Script) (*ComposeResult, error)
}

// Compositor drives the full composition pipeline for one task:
// transcribe narration, map scenes onto word timestamps, resolve and
// render a background clip per scene, concatenate, burn subtitles, add
// the end card, and mix audio. The finished file is written to a temp
// path and renamed into the output directory only on success, so a
// partial artifact is never visible at the final location.
type Compositor struct {
	transcriber services.Transcriber
	media       MediaFetcher
	profiles    *services.ProfileResolver
	music       *services.MusicLibrary

	tempDir   string
	outputDir string
	assetsDir string
	defaults  models.RenderSettings
}

func NewCompositor(
	transcriber services.Transcriber,
	media MediaFetcher,
	profiles *services.ProfileResolver,
	music *services.MusicLibrary,
	tempDir, outputDir, assetsDir string,
	defaults models.RenderSettings,
) *Compositor {
	return &Compositor{
		transcriber: transcriber,
		media:       media,
		profiles:    profiles,
		music:       music,
		tempDir:     tempDir,
		outputDir:   outputDir,
		assetsDir:   assetsDir,
		defaults:    defaults,
	}
}

func (c *Compositor) Compose(ctx context.Context, video *models.Video, script *models.Script) (*ComposeResult, error) {
	if len(script.Scenes) == 0 {
		return nil, fmt.Errorf("%w: script has no scenes", services.ErrInputMissing)
	}
	if _, err := os.Stat(video.NarrationPath); err != nil {
		return nil, fmt.Errorf("%w: narration audio %s: %v", services.ErrInputMissing, video.NarrationPath, err)
	}

	settings := c.settingsFor(video)
	profile := c.profiles.Resolve(script.ContentType)

	// Per-task scratch space, removed wholesale at the end.
	taskTemp := filepath.Join(c.tempDir, video.ID.String())
	ffmpeg, err := services.NewFFmpegService(taskTemp, settings)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(taskTemp)

	narrationDuration := video.NarrationDuration
	if narrationDuration <= 0 {
		narrationDuration, err = ffmpeg.GetAudioDuration(ctx, video.NarrationPath)
		if err != nil {
			return nil, fmt.Errorf("%w: could not probe narration: %v", services.ErrInputMissing, err)
		}
	}

	// Transcription drives scene timing and subtitles. An empty
	// transcript degrades to even time slices with no captions instead
	// of failing the task.
	var words []models.WordTiming
	transcript, err := c.transcriber.Transcribe(ctx, video.NarrationPath)
	switch {
	case err == nil:
		words = transcript.Words
	case errors.Is(err, services.ErrTranscriptionEmpty):
		log.Printf("[Compositor] Empty transcript for %s, using even scene timing without subtitles", video.ID)
	default:
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	timedScenes := renderableScenes(services.MapScenesToWords(script.Scenes, words, narrationDuration))
	if len(timedScenes) < len(script.Scenes) {
		log.Printf("[Compositor] Skipping %d scene(s) with no assigned time", len(script.Scenes)-len(timedScenes))
	}

	assets, err := c.prefetchMedia(ctx, timedScenes, script, settings, profile)
	if err != nil {
		return nil, err
	}

	sceneRenderer := services.NewSceneRenderer(ffmpeg, settings)

	clipPaths := make([]string, 0, len(timedScenes)+1)
	for i, scene := range timedScenes {
		// Cancellation checkpoint between scenes so an expired task
		// stops without waiting out the whole render.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("composition cancelled at scene %d: %w", i, err)
		}

		asset := assets[i]
		clipPath := ffmpeg.CreateTempFile(fmt.Sprintf("scene_%03d.mp4", i))
		if err := sceneRenderer.Render(ctx, scene, asset, script.ContentType, profile.FadeDuration, clipPath); err != nil {
			return nil, fmt.Errorf("%w: scene %d: %v", services.ErrEncodeFailure, i, err)
		}
		clipPaths = append(clipPaths, clipPath)
	}

	// End card after the last narration scene.
	endCards := services.NewEndCardService(c.assetsDir, settings, profile)
	if cardPath, err := endCards.CardFor(script.ContentType); err == nil {
		endClip := ffmpeg.CreateTempFile("end_card.mp4")
		if err := ffmpeg.RenderEndCard(ctx, cardPath, endClip, endCardDuration); err == nil {
			clipPaths = append(clipPaths, endClip)
		} else {
			log.Printf("[Compositor] End card render failed, skipping: %v", err)
		}
	} else {
		log.Printf("[Compositor] End card unavailable, skipping: %v", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("composition cancelled before assembly: %w", err)
	}

	silentPath := ffmpeg.CreateTempFile("timeline_silent.mp4")
	if err := ffmpeg.ConcatenateClips(ctx, clipPaths, silentPath); err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrEncodeFailure, err)
	}

	// Subtitles are burned over the concatenated timeline so all
	// timestamps live in one coordinate space.
	timelinePath := silentPath
	if len(words) > 0 {
		subtitlePath := ffmpeg.CreateTempFile("subtitles.ass")
		subRenderer := services.NewSubtitleRenderer(settings)
		if err := subRenderer.Generate(words, profile, subtitlePath); err != nil {
			return nil, fmt.Errorf("subtitle generation failed: %w", err)
		}

		subtitledPath := ffmpeg.CreateTempFile("timeline_subtitled.mp4")
		if err := ffmpeg.BurnSubtitles(ctx, timelinePath, subtitlePath, subtitledPath); err != nil {
			return nil, fmt.Errorf("%w: %v", services.ErrEncodeFailure, err)
		}
		timelinePath = subtitledPath
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("composition cancelled before audio mix: %w", err)
	}

	musicPath := c.music.PickTrack(script.ContentType)
	mixedPath := ffmpeg.CreateTempFile("final_mixed.mp4")
	if err := ffmpeg.MixAudio(ctx, timelinePath, video.NarrationPath, musicPath, profile.MusicGain, mixedPath); err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrEncodeFailure, err)
	}

	durationSec, err := ffmpeg.GetVideoDuration(ctx, mixedPath)
	if err != nil {
		return nil, fmt.Errorf("%w: could not probe output: %v", services.ErrEncodeFailure, err)
	}

	info, err := os.Stat(mixedPath)
	if err != nil {
		return nil, fmt.Errorf("%w: output missing after mix: %v", services.ErrEncodeFailure, err)
	}

	if err := os.MkdirAll(c.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	finalPath := filepath.Join(c.outputDir, fmt.Sprintf("video_%s.mp4", video.ID))
	if err := os.Rename(mixedPath, finalPath); err != nil {
		return nil, fmt.Errorf("failed to place output: %w", err)
	}

	log.Printf("[Compositor] Video %s complete: %.1fs, %d bytes", video.ID, durationSec, info.Size())

	return &ComposeResult{
		OutputPath:    finalPath,
		DurationSec:   durationSec,
		FileSizeBytes: info.Size(),
	}, nil
}

// renderableScenes drops scenes that got no time on the narration
// timeline. When a script has more scenes than transcribed words the tail
// scenes are assigned zero words and zero duration; rendering those would
// hand ffmpeg zero-length encodes.
func renderableScenes(scenes []models.TimedScene) []models.TimedScene {
	kept := make([]models.TimedScene, 0, len(scenes))
	for _, scene := range scenes {
		if scene.Duration <= 0 {
			continue
		}
		kept = append(kept, scene)
	}
	return kept
}

// prefetchMedia resolves every scene's background asset up front with a
// bounded worker pool, so provider lookups overlap instead of serializing
// ahead of each render.
func (c *Compositor) prefetchMedia(ctx context.Context, scenes []models.TimedScene, script *models.Script, settings models.RenderSettings, profile services.RenderProfile) ([]*models.MediaAsset, error) {
	assets := make([]*models.MediaAsset, len(scenes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mediaPrefetchConcurrency)

	for i, scene := range scenes {
		i, scene := i, scene
		g.Go(func() error {
			asset, err := c.media.FetchSceneMedia(gctx, services.MediaQuery{
				Keywords:      scene.ImageKeywords,
				TopicContext:  script.Title,
				Orientation:   orientationFor(settings),
				ContentType:   script.ContentType,
				ProjectFolder: settings.ProjectFolder,
				PreferVideo:   profile.PreferStockVideo,
			}, script.EntityName, profile.EntityGrounding)
			if err != nil {
				return fmt.Errorf("media resolution failed for scene %d: %w", i, err)
			}
			assets[i] = asset
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

// settingsFor merges per-task render settings over the configured
// defaults. JSON numbers arrive as float64.
func (c *Compositor) settingsFor(video *models.Video) models.RenderSettings {
	settings := c.defaults
	if video.RenderSettings == nil {
		return settings
	}
	if w, ok := video.RenderSettings["width"].(float64); ok && w > 0 {
		settings.Width = int(w)
	}
	if h, ok := video.RenderSettings["height"].(float64); ok && h > 0 {
		settings.Height = int(h)
	}
	if f, ok := video.RenderSettings["fps"].(float64); ok && f > 0 {
		settings.FPS = int(f)
	}
	if pf, ok := video.RenderSettings["project_folder"].(string); ok {
		settings.ProjectFolder = pf
	}
	return settings
}

func orientationFor(settings models.RenderSettings) string {
	if settings.Width > settings.Height {
		return "landscape"
	}
	return "portrait"
}
