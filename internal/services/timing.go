package services

import (
	"log"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
)

// MapScenesToWords distributes transcribed words across scenes and anchors
// each scene to the narration timeline.
//
// The split is index-based: the word range is divided evenly by scene count
// (words_per_scene = total / scenes) and the final scene absorbs the
// remainder. It does NOT match scene narration text against the spoken
// words, so TTS pronunciation drift can shift a scene's visuals relative
// to the audio actually describing it. That trade-off is accepted: it is
// deterministic, never fails, and is close enough for evenly paced
// narration.
//
// When the word list is empty (silent or unrecognizable audio) the
// narration duration is sliced evenly across scenes instead, so every
// scene still gets a non-negative window and the durations sum to the
// track duration.
func MapScenesToWords(scenes []models.Scene, words []models.WordTiming, narrationDuration float64) []models.TimedScene {
	if len(scenes) == 0 {
		return nil
	}

	if len(words) == 0 {
		log.Printf("[Timing] No word timestamps available, slicing %.1fs evenly across %d scenes", narrationDuration, len(scenes))
		return evenTimeSlice(scenes, narrationDuration)
	}

	totalWords := len(words)
	wordsPerScene := totalWords / len(scenes)

	timed := make([]models.TimedScene, 0, len(scenes))
	wordIndex := 0

	for i, scene := range scenes {
		startIdx := wordIndex
		endIdx := startIdx + wordsPerScene
		if i == len(scenes)-1 {
			// Last scene gets the remaining words
			endIdx = totalWords
		}
		if endIdx > totalWords {
			endIdx = totalWords
		}

		sceneWords := words[startIdx:endIdx]

		ts := models.TimedScene{Scene: scene, Words: sceneWords}
		if len(sceneWords) > 0 {
			ts.StartTime = sceneWords[0].Start
			ts.EndTime = sceneWords[len(sceneWords)-1].End
			ts.Duration = ts.EndTime - ts.StartTime
		}
		// A scene with zero assigned words keeps zero duration; the
		// renderer skips it rather than dividing by it.

		timed = append(timed, ts)
		wordIndex = endIdx
	}

	// Stretch boundaries so consecutive scenes tile the timeline with no
	// gaps: each scene ends where the next begins, and the last scene runs
	// to the end of the narration. Word timestamps have inter-word silence
	// between them; without this the durations would undershoot the track.
	first := true
	for i := range timed {
		if len(timed[i].Words) == 0 {
			continue
		}
		if first {
			timed[i].StartTime = 0
			first = false
		}
		if i == len(timed)-1 {
			if narrationDuration > timed[i].EndTime {
				timed[i].EndTime = narrationDuration
			}
		} else if next := nextTimedScene(timed, i); next >= 0 {
			timed[i].EndTime = timed[next].StartTime
		}
		timed[i].Duration = timed[i].EndTime - timed[i].StartTime
	}

	return timed
}

// nextTimedScene finds the next scene after i that has assigned words.
func nextTimedScene(timed []models.TimedScene, i int) int {
	for j := i + 1; j < len(timed); j++ {
		if len(timed[j].Words) > 0 {
			return j
		}
	}
	return -1
}

// evenTimeSlice gives each scene an equal share of the narration duration.
// Used when transcription yields nothing — a documented heuristic, not
// semantic alignment.
func evenTimeSlice(scenes []models.Scene, narrationDuration float64) []models.TimedScene {
	if narrationDuration < 0 {
		narrationDuration = 0
	}
	per := narrationDuration / float64(len(scenes))

	timed := make([]models.TimedScene, 0, len(scenes))
	for i, scene := range scenes {
		start := float64(i) * per
		end := start + per
		if i == len(scenes)-1 {
			end = narrationDuration // absorb float drift
		}
		timed = append(timed, models.TimedScene{
			Scene:     scene,
			StartTime: start,
			EndTime:   end,
			Duration:  end - start,
		})
	}
	return timed
}

// ValidateWordTimings reports whether a word sequence is ordered and
// non-overlapping: start[i] <= end[i] <= start[i+1].
func ValidateWordTimings(words []models.WordTiming) bool {
	for i, w := range words {
		if w.Start > w.End {
			return false
		}
		if i > 0 && words[i-1].End > w.Start {
			return false
		}
	}
	return true
}
