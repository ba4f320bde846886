package services

import (
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
)

// Music moods per content type. Each maps to a subdirectory of the music
// library; missing directories fall back to "ambient" and then to no
// music at all.
var musicMoods = map[models.ContentType]string{
	models.ContentDailyUpdate: "upbeat",
	models.ContentBigTech:     "upbeat",
	models.ContentLeaderQuote: "inspirational",
	models.ContentArxivPaper:  "ambient",
	models.ContentBookReview:  "warm",
}

var musicExts = map[string]bool{".mp3": true, ".wav": true, ".m4a": true, ".ogg": true}

// MusicLibrary picks background tracks from an on-disk library laid out as
// <assetsDir>/music/<mood>/*.mp3. Music is always optional: a missing
// library simply yields silence under the narration.
type MusicLibrary struct {
	musicDir string
}

func NewMusicLibrary(assetsDir string) *MusicLibrary {
	return &MusicLibrary{musicDir: filepath.Join(assetsDir, "music")}
}

// PickTrack returns a track path for the content type, or "" when the
// library has nothing usable.
func (m *MusicLibrary) PickTrack(contentType models.ContentType) string {
	mood, ok := musicMoods[contentType]
	if !ok {
		mood = "ambient"
	}

	if track := m.randomTrack(filepath.Join(m.musicDir, mood)); track != "" {
		return track
	}
	if mood != "ambient" {
		if track := m.randomTrack(filepath.Join(m.musicDir, "ambient")); track != "" {
			return track
		}
	}

	log.Printf("[Music] No tracks for %s (mood %s), rendering without music", contentType, mood)
	return ""
}

func (m *MusicLibrary) randomTrack(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var tracks []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if musicExts[strings.ToLower(filepath.Ext(e.Name()))] {
			tracks = append(tracks, filepath.Join(dir, e.Name()))
		}
	}
	if len(tracks) == 0 {
		return ""
	}

	sort.Strings(tracks)
	return tracks[rand.Intn(len(tracks))]
}
