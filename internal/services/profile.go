package services

import (
	"fmt"
	"os"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
	"gopkg.in/yaml.v3"
)

// SubtitleStyle selects how word timestamps become on-screen text.
type SubtitleStyle string

const (
	SubtitleWordLevel   SubtitleStyle = "word"   // one word at a time
	SubtitlePhraseLevel SubtitleStyle = "phrase" // groups of N words
)

// RenderProfile bundles every content-type-dependent style decision,
// resolved once per task and threaded through the pipeline. Components
// never branch on the content type directly.
type RenderProfile struct {
	ContentType models.ContentType `yaml:"-"`

	// Scene transitions
	FadeDuration float64 `yaml:"fade_duration"` // seconds of crossfade at scene boundaries

	// Subtitles
	SubtitleStyle   SubtitleStyle `yaml:"subtitle_style"`
	WordsPerPhrase  int           `yaml:"words_per_phrase"`
	MinPhraseSec    float64       `yaml:"min_phrase_sec"`   // on-screen floor to prevent flicker
	FontName        string        `yaml:"font_name"`
	TopSafePct      float64       `yaml:"top_safe_pct"`     // fraction of frame height reserved at top
	BottomSafePct   float64       `yaml:"bottom_safe_pct"`  // fraction reserved at bottom for platform UI

	// Audio
	MusicGain float64 `yaml:"music_gain"` // background music volume, 0.0–1.0

	// Media search
	EntityGrounding bool `yaml:"entity_grounding"` // prepend canonical entity name to queries
	PreferStockVideo bool `yaml:"prefer_stock_video"` // try stock video tier before images
}

// builtinProfiles are the defaults per content type. Quote/reflective
// content runs slower fades and quieter music; news-style content is
// punchier and louder.
var builtinProfiles = map[models.ContentType]RenderProfile{
	models.ContentDailyUpdate: {
		FadeDuration:     0.5,
		SubtitleStyle:    SubtitleWordLevel,
		WordsPerPhrase:   3,
		MinPhraseSec:     0.3,
		FontName:         "Noto Sans",
		TopSafePct:       0.15,
		BottomSafePct:    0.20,
		MusicGain:        0.12,
		EntityGrounding:  false,
		PreferStockVideo: true,
	},
	models.ContentBigTech: {
		FadeDuration:     0.5,
		SubtitleStyle:    SubtitleWordLevel,
		WordsPerPhrase:   3,
		MinPhraseSec:     0.3,
		FontName:         "Noto Sans",
		TopSafePct:       0.15,
		BottomSafePct:    0.20,
		MusicGain:        0.12,
		EntityGrounding:  false,
		PreferStockVideo: true,
	},
	models.ContentLeaderQuote: {
		FadeDuration:     0.8,
		SubtitleStyle:    SubtitlePhraseLevel,
		WordsPerPhrase:   4,
		MinPhraseSec:     0.4,
		FontName:         "Noto Serif",
		TopSafePct:       0.15,
		BottomSafePct:    0.20,
		MusicGain:        0.08,
		EntityGrounding:  false,
		PreferStockVideo: false,
	},
	models.ContentArxivPaper: {
		FadeDuration:     0.6,
		SubtitleStyle:    SubtitlePhraseLevel,
		WordsPerPhrase:   3,
		MinPhraseSec:     0.35,
		FontName:         "Noto Sans",
		TopSafePct:       0.15,
		BottomSafePct:    0.20,
		MusicGain:        0.10,
		EntityGrounding:  false,
		PreferStockVideo: true,
	},
	models.ContentBookReview: {
		FadeDuration:     0.8,
		SubtitleStyle:    SubtitlePhraseLevel,
		WordsPerPhrase:   3,
		MinPhraseSec:     0.3,
		FontName:         "Noto Sans",
		TopSafePct:       0.15,
		BottomSafePct:    0.22,
		MusicGain:        0.10,
		EntityGrounding:  true,
		PreferStockVideo: false, // covers and author portraits read better as stills
	},
}

// ProfileResolver resolves the render profile for a content type, with
// optional per-deployment overrides loaded from a YAML file.
type ProfileResolver struct {
	overrides map[models.ContentType]RenderProfile
}

func NewProfileResolver(overrideFile string) (*ProfileResolver, error) {
	r := &ProfileResolver{}

	if overrideFile == "" {
		return r, nil
	}

	data, err := os.ReadFile(overrideFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile override file: %w", err)
	}

	raw := map[string]RenderProfile{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse profile override file: %w", err)
	}

	r.overrides = make(map[models.ContentType]RenderProfile, len(raw))
	for ct, profile := range raw {
		r.overrides[models.ContentType(ct)] = profile
	}

	return r, nil
}

// Resolve returns the profile for a content type. Unknown content types
// get the daily_update defaults.
func (r *ProfileResolver) Resolve(contentType models.ContentType) RenderProfile {
	if r.overrides != nil {
		if p, ok := r.overrides[contentType]; ok {
			p.ContentType = contentType
			return fillProfileDefaults(p)
		}
	}

	p, ok := builtinProfiles[contentType]
	if !ok {
		p = builtinProfiles[models.ContentDailyUpdate]
	}
	p.ContentType = contentType
	return p
}

// fillProfileDefaults backfills zero values in an override so a partial
// YAML entry cannot produce a degenerate profile.
func fillProfileDefaults(p RenderProfile) RenderProfile {
	base := builtinProfiles[models.ContentDailyUpdate]
	if p.FadeDuration <= 0 {
		p.FadeDuration = base.FadeDuration
	}
	if p.SubtitleStyle == "" {
		p.SubtitleStyle = base.SubtitleStyle
	}
	if p.WordsPerPhrase <= 0 {
		p.WordsPerPhrase = base.WordsPerPhrase
	}
	if p.MinPhraseSec <= 0 {
		p.MinPhraseSec = base.MinPhraseSec
	}
	if p.FontName == "" {
		p.FontName = base.FontName
	}
	if p.TopSafePct <= 0 {
		p.TopSafePct = base.TopSafePct
	}
	if p.BottomSafePct <= 0 {
		p.BottomSafePct = base.BottomSafePct
	}
	if p.MusicGain <= 0 {
		p.MusicGain = base.MusicGain
	}
	return p
}
