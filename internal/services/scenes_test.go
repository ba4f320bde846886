package services

import (
	"testing"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
)

func TestSelectMode(t *testing.T) {
	portrait := 1080.0 / 1920.0 // 0.5625

	tests := []struct {
		name        string
		kind        models.MediaKind
		imageAspect float64
		want        SceneMode
	}{
		{"video always video mode", models.MediaKindVideo, 1.0, SceneModeVideo},
		{"gradient always gradient mode", models.MediaKindGradient, 0, SceneModeGradient},
		{"matching portrait image fills", models.MediaKindImage, portrait, SceneModeFill},
		{"slightly off image still fills", models.MediaKindImage, portrait + 0.14, SceneModeFill},
		{"exactly at threshold fills", models.MediaKindImage, portrait + 0.15, SceneModeFill},
		{"square image gets blur backdrop", models.MediaKindImage, 1.0, SceneModeFitBlur},
		{"landscape image gets blur backdrop", models.MediaKindImage, 16.0 / 9.0, SceneModeFitBlur},
		{"unprobeable image gets blur backdrop", models.MediaKindImage, 0, SceneModeFitBlur},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectMode(tt.kind, tt.imageAspect, portrait); got != tt.want {
				t.Errorf("SelectMode(%s, %.4f) = %s, want %s", tt.kind, tt.imageAspect, got, tt.want)
			}
		})
	}
}
