package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
)

// Ken Burns zoom cap for filled stills. A slow push from 1.0 to ~1.12 over
// the scene keeps the motion subtle; anything stronger starts to crawl on
// long scenes.
const kenBurnsZoomRange = 0.12

// Fit & Blur layout: the source image is scaled to this fraction of the
// frame and centered over a blurred, darkened stretch of itself.
const (
	fitBlurForegroundPct = 0.85
	fitBlurSigma         = 20
	fitBlurDarken        = 0.6
)

// ---------------------------------------------------------------------------
// FFmpegService
// ---------------------------------------------------------------------------

// FFmpegService shells out to ffmpeg/ffprobe for all rendering work. Every
// method takes a context so a cancelled task kills the child process.
type FFmpegService struct {
	tempDir  string
	settings models.RenderSettings
}

func NewFFmpegService(tempDir string, settings models.RenderSettings) (*FFmpegService, error) {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return &FFmpegService{tempDir: tempDir, settings: settings}, nil
}

func (s *FFmpegService) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// fadeFilter builds fade-in and fade-out segments bracketing a clip.
func fadeFilter(durationSec, fadeSec float64) string {
	if fadeSec <= 0 {
		return ""
	}
	out := durationSec - fadeSec
	if out < 0 {
		out = 0
	}
	return fmt.Sprintf(",fade=t=in:st=0:d=%.2f,fade=t=out:st=%.2f:d=%.2f", fadeSec, out, fadeSec)
}

// RenderImageSceneFill produces a silent clip from a still image that
// roughly matches the target aspect. The image is cropped to fill the
// frame and animated with a slow centered zoom.
func (s *FFmpegService) RenderImageSceneFill(ctx context.Context, imagePath, outputPath string, durationSec, fadeSec float64) error {
	w, h, fps := s.settings.Width, s.settings.Height, s.settings.FPS
	totalFrames := int(durationSec*float64(fps)) + 1
	if totalFrames < fps {
		totalFrames = fps
	}

	// Scale up before zoompan so the zoom has pixel headroom, then crop to
	// the exact frame.
	zoom := fmt.Sprintf("min(1.0+%.3f*on/%d,%.3f)", kenBurnsZoomRange, totalFrames, 1.0+kenBurnsZoomRange)
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,"+
			"zoompan=z='%s':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d%s",
		w*2, h*2, w*2, h*2,
		zoom, totalFrames, w, h, fps,
		fadeFilter(durationSec, fadeSec),
	)

	log.Printf("[FFmpeg] Fill scene from %s (%.2fs)", filepath.Base(imagePath), durationSec)

	args := []string{
		"-loop", "1",
		"-i", imagePath,
		"-vf", vf,
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		outputPath,
	}
	if err := s.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg fill scene failed: %w", err)
	}
	return nil
}

// RenderImageSceneFitBlur handles images whose aspect is far from the
// target frame. The source is shown whole at 85% of the frame, centered
// over a blurred and darkened stretched copy of itself so no hard bars
// appear.
func (s *FFmpegService) RenderImageSceneFitBlur(ctx context.Context, imagePath, outputPath string, durationSec, fadeSec float64) error {
	w, h := s.settings.Width, s.settings.Height
	fgW := int(float64(w) * fitBlurForegroundPct)
	fgH := int(float64(h) * fitBlurForegroundPct)

	filter := fmt.Sprintf(
		"[0:v]split=2[bg][fg];"+
			"[bg]scale=%d:%d,boxblur=%d:%d,eq=brightness=-%.2f[blurred];"+
			"[fg]scale=%d:%d:force_original_aspect_ratio=decrease[scaled];"+
			"[blurred][scaled]overlay=(W-w)/2:(H-h)/2,fps=%d%s[v]",
		w, h, fitBlurSigma, fitBlurSigma, 1.0-fitBlurDarken,
		fgW, fgH,
		s.settings.FPS,
		fadeFilter(durationSec, fadeSec),
	)

	log.Printf("[FFmpeg] Fit&Blur scene from %s (%.2fs)", filepath.Base(imagePath), durationSec)

	args := []string{
		"-loop", "1",
		"-i", imagePath,
		"-filter_complex", filter,
		"-map", "[v]",
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		outputPath,
	}
	if err := s.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg fit-blur scene failed: %w", err)
	}
	return nil
}

// RenderVideoScene adapts a stock clip to the scene slot. The clip is
// scaled and center-cropped to the frame; clips shorter than the scene
// are looped, longer ones trimmed.
func (s *FFmpegService) RenderVideoScene(ctx context.Context, videoPath, outputPath string, durationSec, fadeSec float64) error {
	w, h := s.settings.Width, s.settings.Height

	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,fps=%d%s",
		w, h, w, h, s.settings.FPS,
		fadeFilter(durationSec, fadeSec),
	)

	log.Printf("[FFmpeg] Video scene from %s (%.2fs)", filepath.Base(videoPath), durationSec)

	args := []string{
		"-stream_loop", "-1", // loop short clips; -t trims the output
		"-i", videoPath,
		"-vf", vf,
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		outputPath,
	}
	if err := s.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg video scene failed: %w", err)
	}
	return nil
}

// Gradient palettes keyed by content type. The lavfi gradients source
// interpolates between the two stops top to bottom.
var gradientPalettes = map[models.ContentType][2]string{
	models.ContentDailyUpdate: {"0x0f2027", "0x2c5364"},
	models.ContentBigTech:     {"0x232526", "0x414345"},
	models.ContentLeaderQuote: {"0x41295a", "0x2f0743"},
	models.ContentArxivPaper:  {"0x000428", "0x004e92"},
	models.ContentBookReview:  {"0x3e2723", "0x795548"},
}

// RenderGradientScene synthesizes the terminal fallback background with a
// lavfi source, so it needs no input file and cannot miss.
func (s *FFmpegService) RenderGradientScene(ctx context.Context, contentType models.ContentType, outputPath string, durationSec, fadeSec float64) error {
	palette, ok := gradientPalettes[contentType]
	if !ok {
		palette = gradientPalettes[models.ContentDailyUpdate]
	}

	src := fmt.Sprintf(
		"gradients=size=%dx%d:c0=%s:c1=%s:x0=%d:y0=0:x1=%d:y1=%d:duration=%.3f:rate=%d",
		s.settings.Width, s.settings.Height,
		palette[0], palette[1],
		s.settings.Width/2, s.settings.Width/2, s.settings.Height,
		durationSec, s.settings.FPS,
	)

	log.Printf("[FFmpeg] Gradient scene for %s (%.2fs)", contentType, durationSec)

	args := []string{
		"-f", "lavfi",
		"-i", src,
		"-vf", "format=yuv420p" + fadeFilter(durationSec, fadeSec),
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-c:v", "libx264",
		"-an",
		"-y",
		outputPath,
	}
	if err := s.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg gradient scene failed: %w", err)
	}
	return nil
}

// RenderEndCard turns the generated end card image into a short silent
// clip with a fade-in, appended after the last narration scene.
func (s *FFmpegService) RenderEndCard(ctx context.Context, imagePath, outputPath string, durationSec float64) error {
	vf := fmt.Sprintf(
		"scale=%d:%d,fps=%d,fade=t=in:st=0:d=0.4",
		s.settings.Width, s.settings.Height, s.settings.FPS,
	)

	args := []string{
		"-loop", "1",
		"-i", imagePath,
		"-vf", vf,
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		outputPath,
	}
	if err := s.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg end card failed: %w", err)
	}
	return nil
}

// ConcatenateClips joins scene clips in order with the concat demuxer.
// All clips share one encode profile so stream copy is safe.
func (s *FFmpegService) ConcatenateClips(ctx context.Context, clipPaths []string, outputPath string) error {
	if len(clipPaths) == 0 {
		return fmt.Errorf("no clips to concatenate")
	}

	listPath := filepath.Join(s.tempDir, fmt.Sprintf("concat_%s.txt", filepath.Base(outputPath)))
	f, err := os.Create(listPath)
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	for _, path := range clipPaths {
		fmt.Fprintf(f, "file '%s'\n", path)
	}
	f.Close()
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath,
	}
	if err := s.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg concatenate failed: %w", err)
	}
	return nil
}

// BurnSubtitles renders an ASS track over the full concatenated timeline.
// Burning after concatenation keeps subtitle timing in one coordinate
// space instead of per-clip offsets.
func (s *FFmpegService) BurnSubtitles(ctx context.Context, videoPath, subtitlePath, outputPath string) error {
	escapedPath := escapeFFmpegFilterPath(subtitlePath)
	log.Printf("[FFmpeg] Burning in subtitles from %s", subtitlePath)

	args := []string{
		"-i", videoPath,
		"-vf", fmt.Sprintf("ass='%s'", escapedPath),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "copy",
		"-y",
		outputPath,
	}
	if err := s.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg burn subtitles failed: %w", err)
	}
	return nil
}

// MixAudio lays the narration over the silent video and mixes looping
// background music underneath at the profile's gain. The narration is
// shorter than the video — the timeline carries the end card after the
// last scene — so it is padded with silence to the video's full length;
// a -shortest mux would trim the output to the voice track and drop the
// trailing frames. An empty musicPath attaches narration alone.
func (s *FFmpegService) MixAudio(ctx context.Context, videoPath, narrationPath, musicPath string, musicGain float64, outputPath string) error {
	videoDur, err := s.GetVideoDuration(ctx, videoPath)
	if err != nil {
		return fmt.Errorf("ffprobe video duration failed: %w", err)
	}

	if musicPath == "" {
		log.Printf("[FFmpeg] No background music, attaching narration only")
		args := attachNarrationArgs(videoPath, narrationPath, videoDur, outputPath)
		if err := s.run(ctx, args); err != nil {
			return fmt.Errorf("ffmpeg attach narration failed: %w", err)
		}
		return nil
	}

	log.Printf("[FFmpeg] Mixing narration with music at gain %.2f", musicGain)
	args := mixAudioArgs(videoPath, narrationPath, musicPath, musicGain, videoDur, outputPath)
	if err := s.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg mix audio failed: %w", err)
	}
	return nil
}

func attachNarrationArgs(videoPath, narrationPath string, videoDur float64, outputPath string) []string {
	filter := fmt.Sprintf("[1:a]apad=whole_dur=%.3f[aout]", videoDur)
	return []string{
		"-i", videoPath,
		"-i", narrationPath,
		"-filter_complex", filter,
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", fmt.Sprintf("%.3f", videoDur),
		"-y",
		outputPath,
	}
}

func mixAudioArgs(videoPath, narrationPath, musicPath string, musicGain, videoDur float64, outputPath string) []string {
	// Narration stays at full volume, padded to the video length so the
	// amix output (duration=first follows the narration chain) covers the
	// whole timeline; music is ducked to the profile gain and fades out
	// over the last 3 seconds as it drops out.
	filterComplex := fmt.Sprintf(
		"[1:a]volume=1.0,apad=whole_dur=%.3f[narration];[2:a]volume=%.2f[music];"+
			"[narration][music]amix=inputs=2:duration=first:dropout_transition=3[aout]",
		videoDur, musicGain,
	)
	return []string{
		"-i", videoPath,
		"-i", narrationPath,
		"-stream_loop", "-1",
		"-i", musicPath,
		"-filter_complex", filterComplex,
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", fmt.Sprintf("%.3f", videoDur),
		"-y",
		outputPath,
	}
}

// escapeFFmpegFilterPath escapes special characters in file paths for
// FFmpeg filter syntax. Filter strings treat colons, backslashes, and
// single quotes specially.
func escapeFFmpegFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "\\\\")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "'\\''")
	return path
}

// GetAudioDuration returns the duration of an audio file in seconds.
func (s *FFmpegService) GetAudioDuration(ctx context.Context, audioPath string) (float64, error) {
	return s.probeDuration(ctx, audioPath)
}

// GetVideoDuration returns the duration of a video file in seconds.
func (s *FFmpegService) GetVideoDuration(ctx context.Context, videoPath string) (float64, error) {
	return s.probeDuration(ctx, videoPath)
}

func (s *FFmpegService) probeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var durationSec float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &durationSec); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	return durationSec, nil
}

// CreateTempFile returns a path inside the service's temp directory.
func (s *FFmpegService) CreateTempFile(filename string) string {
	return filepath.Join(s.tempDir, filename)
}

// Cleanup removes temporary files.
func (s *FFmpegService) Cleanup(paths ...string) {
	for _, path := range paths {
		os.Remove(path)
	}
}
