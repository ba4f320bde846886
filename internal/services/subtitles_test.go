package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
)

func testSettings() models.RenderSettings {
	return models.RenderSettings{Width: 1080, Height: 1920, FPS: 30}
}

func testProfile(style SubtitleStyle) RenderProfile {
	return RenderProfile{
		SubtitleStyle:  style,
		WordsPerPhrase: 3,
		MinPhraseSec:   0.4,
		FontName:       "Noto Sans",
		TopSafePct:     0.15,
		BottomSafePct:  0.20,
	}
}

func generateToString(t *testing.T, words []models.WordTiming, profile RenderProfile) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subs.ass")
	r := NewSubtitleRenderer(testSettings())
	if err := r.Generate(words, profile, path); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return string(data)
}

func TestGenerateWordStyleShowsOneWordAtATime(t *testing.T) {
	words := []models.WordTiming{
		{Word: "hello", Start: 0.0, End: 0.4},
		{Word: "wide", Start: 0.5, End: 0.9},
		{Word: "world", Start: 1.0, End: 1.4},
	}

	content := generateToString(t, words, testProfile(SubtitleWordLevel))

	// One dialogue line per word, each displaying only that word.
	var texts []string
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "Dialogue:") {
			continue
		}
		text := line[strings.LastIndex(line, ",,")+2:]
		if strings.Count(line, "\\bord") != 1 {
			t.Errorf("expected one pill border per line, got: %s", line)
		}
		if strings.Contains(stripOverrides(text), " ") {
			t.Errorf("word style must display a single word, got: %s", text)
		}
		texts = append(texts, text)
	}
	if len(texts) != 3 {
		t.Fatalf("expected 3 dialogue lines, got %d", len(texts))
	}
	for i, want := range []string{"HELLO", "WIDE", "WORLD"} {
		if !strings.Contains(texts[i], want) {
			t.Errorf("line %d should show %s, got: %s", i, want, texts[i])
		}
		for j, other := range []string{"HELLO", "WIDE", "WORLD"} {
			if j != i && strings.Contains(texts[i], other) {
				t.Errorf("line %d should not also show %s: %s", i, other, texts[i])
			}
		}
	}
}

// stripOverrides removes {\...} override blocks so only display text remains.
func stripOverrides(text string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range text {
		switch {
		case r == '{':
			depth++
		case r == '}':
			depth--
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

func TestGeneratePhraseStyleGroupsWords(t *testing.T) {
	words := []models.WordTiming{
		{Word: "the", Start: 0.0, End: 0.2},
		{Word: "quiet", Start: 0.3, End: 0.6},
		{Word: "library", Start: 0.7, End: 1.1},
		{Word: "opens", Start: 1.2, End: 1.5},
	}

	content := generateToString(t, words, testProfile(SubtitlePhraseLevel))

	var dialogues []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "Dialogue:") {
			dialogues = append(dialogues, line)
		}
	}
	if len(dialogues) != 2 {
		t.Fatalf("expected 2 phrase lines (3 + 1 words), got %d", len(dialogues))
	}
	if !strings.Contains(dialogues[0], "the quiet library") {
		t.Errorf("first phrase should group three words: %s", dialogues[0])
	}
	if strings.Contains(content, "\\bord") {
		t.Error("phrase style should not use the highlight border")
	}
}

func TestGeneratePhraseStyleEnforcesMinimumDuration(t *testing.T) {
	// A single trailing word spanning 0.1s must be held on screen for at
	// least MinPhraseSec.
	words := []models.WordTiming{
		{Word: "one", Start: 0.0, End: 0.3},
		{Word: "two", Start: 0.4, End: 0.7},
		{Word: "three", Start: 0.8, End: 1.1},
		{Word: "go", Start: 5.0, End: 5.1},
	}

	content := generateToString(t, words, testProfile(SubtitlePhraseLevel))

	// 5.0 + 0.4 floor = 5.40
	if !strings.Contains(content, "0:00:05.40") {
		t.Errorf("short phrase should be stretched to the minimum duration:\n%s", content)
	}
}

func TestGenerateBreaksChunksAtSentenceEnd(t *testing.T) {
	words := []models.WordTiming{
		{Word: "all", Start: 0.0, End: 0.3},
		{Word: "done.", Start: 0.4, End: 0.7},
		{Word: "next", Start: 0.8, End: 1.1},
		{Word: "part", Start: 1.2, End: 1.5},
	}

	chunks := chunkWords(words, 4)
	if len(chunks) != 2 {
		t.Fatalf("expected sentence end to close the chunk, got %d chunks", len(chunks))
	}
	if len(chunks[0]) != 2 || chunks[0][1].Word != "done." {
		t.Errorf("first chunk should end at the sentence boundary, got %v", chunks[0])
	}
}

func TestGenerateRejectsEmptyWordList(t *testing.T) {
	r := NewSubtitleRenderer(testSettings())
	if err := r.Generate(nil, testProfile(SubtitleWordLevel), filepath.Join(t.TempDir(), "subs.ass")); err == nil {
		t.Error("expected error for empty word list")
	}
}

func TestFormatASSTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00:00.00"},
		{1.5, "0:00:01.50"},
		{61.25, "0:01:01.25"},
		{3600, "1:00:00.00"},
		{-2, "0:00:00.00"},
	}

	for _, tt := range tests {
		if got := formatASSTime(tt.seconds); got != tt.want {
			t.Errorf("formatASSTime(%.2f) = %s, want %s", tt.seconds, got, tt.want)
		}
	}
}

func TestSubtitleMarginRespectsBottomSafeZone(t *testing.T) {
	words := []models.WordTiming{{Word: "hi", Start: 0, End: 0.5}}
	content := generateToString(t, words, testProfile(SubtitleWordLevel))

	// 20% of a 1920-high canvas.
	if !strings.Contains(content, ",384,1\n") {
		t.Errorf("style line should set MarginV from the bottom safe zone:\n%s", content)
	}
}
