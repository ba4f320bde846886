package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
)

// ---------------------------------------------------------------------------
// ASS subtitle generation
//
// Word timestamps from transcription become burned-in captions in ASS
// (Advanced SubStation Alpha) format. Two styles, selected per content
// type by the render profile:
//
//   word   — one word on screen at a time, in a colored pill, swapping
//            as each word is spoken (news formats)
//   phrase — calm groups of N words shown together, with a minimum
//            on-screen duration so short words never flicker (quotes,
//            book reviews)
//
// Timestamps are in the final timeline's coordinate space; subtitles are
// burned over the concatenated video, never per clip.
// ---------------------------------------------------------------------------

// ASS colors are &HAABBGGRR (BGR, not RGB).
const (
	assColorWhite     = "&H00FFFFFF"
	assColorBlack     = "&H00000000"
	assColorHighlight = "&H00CC3299" // #9932CC purple
	assColorSemiBlack = "&H80000000"

	outlineNormal    = 3
	outlineHighlight = 8
)

// SubtitleRenderer writes .ass files sized to the output canvas.
type SubtitleRenderer struct {
	settings models.RenderSettings
}

func NewSubtitleRenderer(settings models.RenderSettings) *SubtitleRenderer {
	return &SubtitleRenderer{settings: settings}
}

// Generate writes the subtitle track for the full narration to outputPath.
func (s *SubtitleRenderer) Generate(words []models.WordTiming, profile RenderProfile, outputPath string) error {
	if len(words) == 0 {
		return fmt.Errorf("no words to generate subtitles from")
	}

	var sb strings.Builder
	s.writeHeader(&sb, profile)

	switch profile.SubtitleStyle {
	case SubtitlePhraseLevel:
		s.writePhraseEvents(&sb, words, profile)
	default:
		s.writeWordEvents(&sb, words)
	}

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write ASS subtitle file: %w", err)
	}
	return nil
}

func (s *SubtitleRenderer) writeHeader(sb *strings.Builder, profile RenderProfile) {
	sb.WriteString("[Script Info]\n")
	sb.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(sb, "PlayResX: %d\n", s.settings.Width)
	fmt.Fprintf(sb, "PlayResY: %d\n", s.settings.Height)
	sb.WriteString("WrapStyle: 0\n")
	sb.WriteString("ScaledBorderAndShadow: yes\n")
	sb.WriteString("\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")

	fontSize := s.settings.Height / 28 // ~68pt on a 1920-height canvas

	// MarginV places text just above the bottom safe zone, clear of
	// platform UI chrome.
	marginV := int(float64(s.settings.Height) * profile.BottomSafePct)

	fmt.Fprintf(sb,
		"Style: Default,%s,%d,%s,%s,%s,%s,-1,0,0,0,100,100,1,0,1,%d,0,2,40,40,%d,1\n",
		profile.FontName, fontSize,
		assColorWhite,
		assColorWhite,
		assColorBlack,
		assColorSemiBlack,
		outlineNormal,
		marginV,
	)

	sb.WriteString("\n")
	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
}

// writeWordEvents emits one dialogue line per word, each held until the
// next word starts so the caption never goes dark between words. Only the
// spoken word is on screen, in the thick pill border.
func (s *SubtitleRenderer) writeWordEvents(sb *strings.Builder, words []models.WordTiming) {
	for i, word := range words {
		clean := strings.ToUpper(strings.TrimSpace(word.Word))
		if clean == "" {
			continue
		}

		endTime := word.End
		if i < len(words)-1 && words[i+1].Start > endTime {
			endTime = words[i+1].Start
		}

		fmt.Fprintf(sb,
			"Dialogue: 0,%s,%s,Default,,0,0,0,,{\\3c%s\\bord%d}%s{\\r}\n",
			formatASSTime(word.Start),
			formatASSTime(endTime),
			assColorHighlight, outlineHighlight, clean,
		)
	}
}

// writePhraseEvents emits one dialogue line per phrase group. The on-screen
// floor of MinPhraseSec stretches brief phrases, clamped to the next
// phrase's start so lines never overlap.
func (s *SubtitleRenderer) writePhraseEvents(sb *strings.Builder, words []models.WordTiming, profile RenderProfile) {
	size := profile.WordsPerPhrase
	if size <= 0 {
		size = 4
	}
	chunks := chunkWords(words, size)

	for i, chunk := range chunks {
		startTime := chunk[0].Start
		endTime := chunk[len(chunk)-1].End

		if endTime-startTime < profile.MinPhraseSec {
			endTime = startTime + profile.MinPhraseSec
		}
		if i < len(chunks)-1 && endTime > chunks[i+1][0].Start {
			endTime = chunks[i+1][0].Start
		}

		var parts []string
		for _, word := range chunk {
			clean := strings.TrimSpace(word.Word)
			if clean != "" {
				parts = append(parts, clean)
			}
		}
		if len(parts) == 0 {
			continue
		}

		fmt.Fprintf(sb,
			"Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(startTime),
			formatASSTime(endTime),
			strings.Join(parts, " "),
		)
	}
}

// chunkWords groups words for display, breaking early at sentence-ending
// punctuation so groups read naturally.
func chunkWords(words []models.WordTiming, chunkSize int) [][]models.WordTiming {
	var chunks [][]models.WordTiming
	var current []models.WordTiming

	for _, word := range words {
		current = append(current, word)

		isSentenceEnd := strings.ContainsAny(word.Word, ".!?")
		if len(current) >= chunkSize || (isSentenceEnd && len(current) >= 2) {
			chunks = append(chunks, current)
			current = nil
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// formatASSTime converts seconds to the ASS timestamp format H:MM:SS.CC.
func formatASSTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}

	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60
	centiseconds := int((seconds - float64(int(seconds))) * 100)

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centiseconds)
}
