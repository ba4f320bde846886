package services

import (
	"math"
	"testing"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
)

func makeScenes(n int) []models.Scene {
	scenes := make([]models.Scene, n)
	for i := range scenes {
		scenes[i] = models.Scene{Index: i, Text: "scene text"}
	}
	return scenes
}

// evenly spaced words: word i spans [i*step, i*step+0.3]
func makeWords(n int, step float64) []models.WordTiming {
	words := make([]models.WordTiming, n)
	for i := range words {
		start := float64(i) * step
		words[i] = models.WordTiming{Word: "word", Start: start, End: start + 0.3}
	}
	return words
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestMapScenesToWordsEvenSplit(t *testing.T) {
	// 30 words over 3 scenes: indexes [0,10), [10,20), [20,30)
	scenes := makeScenes(3)
	words := makeWords(30, 1.0)
	narration := 29.3 + 0.7 // last word ends at 29.3; track runs to 30

	timed := MapScenesToWords(scenes, words, narration)
	if len(timed) != 3 {
		t.Fatalf("expected 3 timed scenes, got %d", len(timed))
	}

	for i, ts := range timed {
		if len(ts.Words) != 10 {
			t.Errorf("scene %d: expected 10 words, got %d", i, len(ts.Words))
		}
	}

	if timed[0].Words[0].Word != "word" || !approxEqual(timed[1].Words[0].Start, 10.0) {
		t.Errorf("scene 1 should start its words at t=10, got %.2f", timed[1].Words[0].Start)
	}
	if !approxEqual(timed[2].Words[0].Start, 20.0) {
		t.Errorf("scene 2 should start its words at t=20, got %.2f", timed[2].Words[0].Start)
	}
}

func TestMapScenesToWordsLastSceneAbsorbsRemainder(t *testing.T) {
	// 32 words over 3 scenes: 10/10/12
	scenes := makeScenes(3)
	words := makeWords(32, 1.0)

	timed := MapScenesToWords(scenes, words, 32)

	if len(timed[0].Words) != 10 || len(timed[1].Words) != 10 {
		t.Errorf("expected 10 words in first two scenes, got %d and %d", len(timed[0].Words), len(timed[1].Words))
	}
	if len(timed[2].Words) != 12 {
		t.Errorf("last scene should absorb remainder (12 words), got %d", len(timed[2].Words))
	}
}

func TestMapScenesToWordsDurationsSumToNarration(t *testing.T) {
	tests := []struct {
		name      string
		scenes    int
		words     int
		narration float64
	}{
		{"even split", 3, 30, 30.0},
		{"uneven split", 4, 30, 31.5},
		{"single scene", 1, 12, 10.0},
		{"more scenes than words", 5, 3, 9.0},
		{"no words", 3, 0, 12.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timed := MapScenesToWords(makeScenes(tt.scenes), makeWords(tt.words, 0.5), tt.narration)

			var sum float64
			for _, ts := range timed {
				if ts.Duration < 0 {
					t.Errorf("scene %d has negative duration %.3f", ts.Index, ts.Duration)
				}
				sum += ts.Duration
			}
			if !approxEqual(sum, tt.narration) {
				t.Errorf("durations sum to %.3f, want %.3f", sum, tt.narration)
			}
		})
	}
}

func TestMapScenesToWordsTilesBoundaries(t *testing.T) {
	scenes := makeScenes(3)
	words := makeWords(30, 1.0)

	timed := MapScenesToWords(scenes, words, 30)

	if !approxEqual(timed[0].StartTime, 0) {
		t.Errorf("first scene should start at 0, got %.3f", timed[0].StartTime)
	}
	for i := 0; i < len(timed)-1; i++ {
		if !approxEqual(timed[i].EndTime, timed[i+1].StartTime) {
			t.Errorf("scene %d ends at %.3f but scene %d starts at %.3f", i, timed[i].EndTime, i+1, timed[i+1].StartTime)
		}
	}
	last := timed[len(timed)-1]
	if !approxEqual(last.EndTime, 30) {
		t.Errorf("last scene should end at narration duration, got %.3f", last.EndTime)
	}
}

func TestMapScenesToWordsEmptyTranscriptFallback(t *testing.T) {
	timed := MapScenesToWords(makeScenes(4), nil, 20)
	if len(timed) != 4 {
		t.Fatalf("expected 4 timed scenes, got %d", len(timed))
	}
	for i, ts := range timed {
		if !approxEqual(ts.Duration, 5) {
			t.Errorf("scene %d: expected 5s slice, got %.3f", i, ts.Duration)
		}
		if len(ts.Words) != 0 {
			t.Errorf("scene %d should carry no words", i)
		}
	}
}

func TestMapScenesToWordsNoScenes(t *testing.T) {
	if timed := MapScenesToWords(nil, makeWords(5, 1.0), 5); timed != nil {
		t.Errorf("expected nil for empty scene list, got %v", timed)
	}
}

func TestValidateWordTimings(t *testing.T) {
	tests := []struct {
		name  string
		words []models.WordTiming
		want  bool
	}{
		{"empty", nil, true},
		{"ordered", makeWords(5, 1.0), true},
		{"inverted word", []models.WordTiming{{Word: "a", Start: 2, End: 1}}, false},
		{"overlapping", []models.WordTiming{
			{Word: "a", Start: 0, End: 1.5},
			{Word: "b", Start: 1.0, End: 2.0},
		}, false},
		{"touching is fine", []models.WordTiming{
			{Word: "a", Start: 0, End: 1},
			{Word: "b", Start: 1, End: 2},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateWordTimings(tt.words); got != tt.want {
				t.Errorf("ValidateWordTimings() = %v, want %v", got, tt.want)
			}
		})
	}
}
