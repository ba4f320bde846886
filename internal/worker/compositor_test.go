package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
	"github.com/dhamosankaran/aivideogenstudio/internal/services"
)

func testCompositor(t *testing.T) *Compositor {
	t.Helper()
	profiles, err := services.NewProfileResolver("")
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	return NewCompositor(
		nil, nil, profiles,
		services.NewMusicLibrary(filepath.Join(root, "assets")),
		filepath.Join(root, "tmp"),
		filepath.Join(root, "out"),
		filepath.Join(root, "assets"),
		models.RenderSettings{Width: 1080, Height: 1920, FPS: 30},
	)
}

func TestComposeFailsFastOnMissingNarration(t *testing.T) {
	c := testCompositor(t)

	video := &models.Video{ID: uuid.New(), NarrationPath: "/nonexistent/narration.mp3"}
	script := &models.Script{Scenes: []models.Scene{{Index: 0, Text: "hello"}}}

	_, err := c.Compose(context.Background(), video, script)
	if !errors.Is(err, services.ErrInputMissing) {
		t.Errorf("expected ErrInputMissing, got %v", err)
	}
}

func TestComposeFailsFastOnEmptySceneList(t *testing.T) {
	c := testCompositor(t)

	video := &models.Video{ID: uuid.New(), NarrationPath: "/nonexistent/narration.mp3"}
	script := &models.Script{}

	_, err := c.Compose(context.Background(), video, script)
	if !errors.Is(err, services.ErrInputMissing) {
		t.Errorf("expected ErrInputMissing, got %v", err)
	}
}

func TestSettingsForMergesTaskOverrides(t *testing.T) {
	c := testCompositor(t)

	tests := []struct {
		name     string
		settings models.JSONB
		want     models.RenderSettings
	}{
		{
			"nil settings keep defaults",
			nil,
			models.RenderSettings{Width: 1080, Height: 1920, FPS: 30},
		},
		{
			"full override",
			models.JSONB{"width": float64(720), "height": float64(1280), "fps": float64(24), "project_folder": "book_club"},
			models.RenderSettings{Width: 720, Height: 1280, FPS: 24, ProjectFolder: "book_club"},
		},
		{
			"zero values ignored",
			models.JSONB{"width": float64(0), "fps": float64(-1)},
			models.RenderSettings{Width: 1080, Height: 1920, FPS: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.settingsFor(&models.Video{RenderSettings: tt.settings})
			if got != tt.want {
				t.Errorf("settingsFor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOrientationFor(t *testing.T) {
	if got := orientationFor(models.RenderSettings{Width: 1080, Height: 1920}); got != "portrait" {
		t.Errorf("tall frame should be portrait, got %s", got)
	}
	if got := orientationFor(models.RenderSettings{Width: 1920, Height: 1080}); got != "landscape" {
		t.Errorf("wide frame should be landscape, got %s", got)
	}
}

func TestRenderableScenesDropZeroDurationScenes(t *testing.T) {
	// More scenes than transcribed words: the even index split leaves the
	// leading scenes with zero words, so only the worded scene may reach
	// the renderer.
	scenes := make([]models.Scene, 5)
	for i := range scenes {
		scenes[i] = models.Scene{Index: i, Text: "line", ImageKeywords: []string{"city"}}
	}
	words := []models.WordTiming{
		{Word: "three", Start: 0.0, End: 0.5},
		{Word: "short", Start: 0.6, End: 1.1},
		{Word: "words", Start: 1.2, End: 1.7},
	}

	timed := services.MapScenesToWords(scenes, words, 9.0)
	kept := renderableScenes(timed)

	if len(kept) != 1 {
		t.Fatalf("expected 1 renderable scene, got %d", len(kept))
	}
	if len(kept[0].Words) != 3 {
		t.Errorf("kept scene should carry all words, got %d", len(kept[0].Words))
	}
	if kept[0].Duration != 9.0 {
		t.Errorf("kept scene should span the narration, got %.1f", kept[0].Duration)
	}

	// All scenes worded: nothing is dropped.
	evenTimed := services.MapScenesToWords(scenes[:2], nil, 6.0)
	if got := renderableScenes(evenTimed); len(got) != 2 {
		t.Errorf("even-slice fallback scenes should all render, got %d", len(got))
	}
}
