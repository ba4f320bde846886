package services

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"math"
	"os"

	_ "golang.org/x/image/webp"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
)

// aspectDeltaThreshold decides between Fill and Fit & Blur: images whose
// aspect ratio is within this distance of the target frame get cropped to
// fill, anything further away is letterboxed over a blurred backdrop.
const aspectDeltaThreshold = 0.15

// SceneMode is the rendering strategy chosen for one background.
type SceneMode string

const (
	SceneModeFill     SceneMode = "fill"
	SceneModeFitBlur  SceneMode = "fit_blur"
	SceneModeVideo    SceneMode = "video"
	SceneModeGradient SceneMode = "gradient"
)

// SceneRenderer turns one timed scene plus a resolved background into a
// silent clip of exactly the scene's duration.
type SceneRenderer struct {
	ffmpeg   *FFmpegService
	settings models.RenderSettings
}

func NewSceneRenderer(ffmpeg *FFmpegService, settings models.RenderSettings) *SceneRenderer {
	return &SceneRenderer{ffmpeg: ffmpeg, settings: settings}
}

// SelectMode picks the strategy for an asset. Pure so it can be tested
// without any media on disk.
func SelectMode(kind models.MediaKind, imageAspect, targetAspect float64) SceneMode {
	switch kind {
	case models.MediaKindVideo:
		return SceneModeVideo
	case models.MediaKindGradient:
		return SceneModeGradient
	}
	if math.Abs(imageAspect-targetAspect) <= aspectDeltaThreshold {
		return SceneModeFill
	}
	return SceneModeFitBlur
}

// Render produces the clip for one scene at outputPath.
func (r *SceneRenderer) Render(ctx context.Context, scene models.TimedScene, asset *models.MediaAsset, contentType models.ContentType, fadeSec float64, outputPath string) error {
	targetAspect := float64(r.settings.Width) / float64(r.settings.Height)

	imageAspect := targetAspect
	if asset.Kind == models.MediaKindImage {
		a, err := probeImageAspect(asset.Path)
		if err != nil {
			// Undecodable image: treat as mismatched so the blur path hides
			// whatever ffmpeg makes of it.
			log.Printf("[Scenes] Could not probe %s: %v", asset.Path, err)
			imageAspect = 0
		} else {
			imageAspect = a
		}
	}

	mode := SelectMode(asset.Kind, imageAspect, targetAspect)
	log.Printf("[Scenes] Scene %d: %s via %s (%.2fs)", scene.Index, asset.Provider, mode, scene.Duration)

	switch mode {
	case SceneModeVideo:
		return r.ffmpeg.RenderVideoScene(ctx, asset.Path, outputPath, scene.Duration, fadeSec)
	case SceneModeGradient:
		return r.ffmpeg.RenderGradientScene(ctx, contentType, outputPath, scene.Duration, fadeSec)
	case SceneModeFitBlur:
		return r.ffmpeg.RenderImageSceneFitBlur(ctx, asset.Path, outputPath, scene.Duration, fadeSec)
	default:
		return r.ffmpeg.RenderImageSceneFill(ctx, asset.Path, outputPath, scene.Duration, fadeSec)
	}
}

// probeImageAspect reads only the image header to get width/height.
// jpeg, png, and webp decoders are registered.
func probeImageAspect(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, fmt.Errorf("failed to decode image header: %w", err)
	}
	if cfg.Height == 0 {
		return 0, fmt.Errorf("image has zero height")
	}
	return float64(cfg.Width) / float64(cfg.Height), nil
}
