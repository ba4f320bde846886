package services

import (
	"os"
	"testing"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
)

func TestSafeBandCenter(t *testing.T) {
	tests := []struct {
		name      string
		height    int
		topPct    float64
		bottomPct float64
		want      int
	}{
		{"standard portrait zones", 1920, 0.15, 0.20, 912},
		{"book review bottom zone", 1920, 0.15, 0.22, 892},
		{"no reserved zones", 1000, 0, 0, 500},
		{"degenerate zones fall back to frame center", 100, 0.6, 0.6, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := safeBandCenter(tt.height, tt.topPct, tt.bottomPct); got != tt.want {
				t.Errorf("safeBandCenter(%d, %.2f, %.2f) = %d, want %d",
					tt.height, tt.topPct, tt.bottomPct, got, tt.want)
			}
		})
	}
}

func TestCardForGeneratesAndCachesCard(t *testing.T) {
	assetsDir := t.TempDir()
	svc := NewEndCardService(assetsDir, models.RenderSettings{Width: 108, Height: 192, FPS: 30}, testProfile(SubtitleWordLevel))

	// No fonts installed: the card is a plain gradient, still usable.
	path, err := svc.CardFor(models.ContentLeaderQuote)
	if err != nil {
		t.Fatalf("CardFor() error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("card not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("card file is empty")
	}

	again, err := svc.CardFor(models.ContentLeaderQuote)
	if err != nil {
		t.Fatalf("CardFor() second call error: %v", err)
	}
	if again != path {
		t.Errorf("cached card path changed: %s vs %s", again, path)
	}
}
