package services

import (
	"strings"
	"testing"
)

// The mixed output must run for the full video length, not the narration
// length: the timeline ends with an end card that has no matching voice
// audio, and a -shortest mux would cut it off.

func TestMixAudioArgsCoverFullVideoLength(t *testing.T) {
	args := mixAudioArgs("timeline.mp4", "voice.mp3", "music.mp3", 0.12, 64.0, "out.mp4")
	joined := strings.Join(args, " ")

	if strings.Contains(joined, "-shortest") {
		t.Error("mix args must not use -shortest, it trims the end card")
	}
	if !strings.Contains(joined, "apad=whole_dur=64.000") {
		t.Errorf("narration should be padded to the video length, got: %s", joined)
	}
	if !containsPair(args, "-t", "64.000") {
		t.Errorf("output should be capped at the video length, got: %s", joined)
	}
	if !strings.Contains(joined, "amix=inputs=2:duration=first") {
		t.Errorf("expected two-input amix following the padded narration, got: %s", joined)
	}
}

func TestAttachNarrationArgsCoverFullVideoLength(t *testing.T) {
	args := attachNarrationArgs("timeline.mp4", "voice.mp3", 38.5, "out.mp4")
	joined := strings.Join(args, " ")

	if strings.Contains(joined, "-shortest") {
		t.Error("attach args must not use -shortest, it trims the end card")
	}
	if !strings.Contains(joined, "apad=whole_dur=38.500") {
		t.Errorf("narration should be padded to the video length, got: %s", joined)
	}
	if !containsPair(args, "-t", "38.500") {
		t.Errorf("output should be capped at the video length, got: %s", joined)
	}
}

func containsPair(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}
