package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// Transcript is the full word-level transcription of one narration track.
type Transcript struct {
	Text     string              `json:"text"`
	Words    []models.WordTiming `json:"words"`
	Duration float64             `json:"duration"` // seconds, end of last word
}

// Transcriber produces word-level timestamps from a narration audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Transcript, error)
	ModelID() string
}

// ---------------------------------------------------------------------------
// OpenAI Whisper implementation
// ---------------------------------------------------------------------------

type OpenAITranscriber struct {
	client *openai.Client
	model  string
}

func NewOpenAITranscriber(apiKey, model string) *OpenAITranscriber {
	if model == "" {
		model = string(openai.Whisper1)
	}
	return &OpenAITranscriber{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (t *OpenAITranscriber) ModelID() string { return t.model }

// Transcribe sends the narration audio to Whisper and returns ordered,
// non-overlapping word timestamps. Zero words is reported as
// ErrTranscriptionEmpty so callers can degrade instead of aborting.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("narration audio %s: %w", audioPath, ErrInputMissing)
		}
		return nil, fmt.Errorf("failed to read narration audio: %w", err)
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		Reader:   bytes.NewReader(audioData),
		FilePath: filepath.Base(audioPath), // filename hint for the API (required by the library)
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: "en",
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w", err)
	}

	if len(resp.Words) == 0 {
		return nil, fmt.Errorf("%w (text: %q)", ErrTranscriptionEmpty, resp.Text)
	}

	words := make([]models.WordTiming, len(resp.Words))
	for i, w := range resp.Words {
		words[i] = models.WordTiming{
			Word:  strings.TrimSpace(w.Word),
			Start: w.Start,
			End:   w.End,
		}
	}

	log.Printf("[Whisper] Transcribed %d words (duration: %.1fs, text: %q)",
		len(words), resp.Duration, truncateString(resp.Text, 80))

	return &Transcript{
		Text:     resp.Text,
		Words:    words,
		Duration: words[len(words)-1].End,
	}, nil
}

// truncateString truncates a string to maxLen and appends "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// ---------------------------------------------------------------------------
// Content-addressed transcription cache
// ---------------------------------------------------------------------------

// CachingTranscriber wraps a Transcriber with an on-disk JSON cache keyed
// by (audio content hash, model id), so repeated renders of the same
// narration skip re-transcription. It is an explicitly constructed,
// injected service; the cache directory is created once, guarded by a
// sync.Once, regardless of how many goroutines call Transcribe.
type CachingTranscriber struct {
	inner    Transcriber
	cacheDir string

	initOnce sync.Once
	initErr  error
}

func NewCachingTranscriber(inner Transcriber, cacheDir string) *CachingTranscriber {
	return &CachingTranscriber{inner: inner, cacheDir: cacheDir}
}

func (c *CachingTranscriber) ModelID() string { return c.inner.ModelID() }

func (c *CachingTranscriber) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	c.initOnce.Do(func() {
		c.initErr = os.MkdirAll(c.cacheDir, 0755)
	})
	if c.initErr != nil {
		return nil, fmt.Errorf("failed to create transcription cache dir: %w", c.initErr)
	}

	key, err := c.cacheKey(audioPath)
	if err != nil {
		return nil, err
	}
	cachePath := filepath.Join(c.cacheDir, key+".json")

	if data, err := os.ReadFile(cachePath); err == nil {
		var transcript Transcript
		if err := json.Unmarshal(data, &transcript); err == nil && len(transcript.Words) > 0 {
			log.Printf("[Whisper] Using cached transcription: %s", cachePath)
			return &transcript, nil
		}
		// Corrupt or empty entry — drop it and re-transcribe
		os.Remove(cachePath)
	}

	transcript, err := c.inner.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(transcript, "", "  ")
	if err == nil {
		tmp := cachePath + ".tmp"
		if err := os.WriteFile(tmp, data, 0644); err == nil {
			if err := os.Rename(tmp, cachePath); err == nil {
				log.Printf("[Whisper] Cached transcription: %s", cachePath)
			} else {
				os.Remove(tmp)
			}
		}
	}

	return transcript, nil
}

// cacheKey hashes the audio bytes together with the model id: the same
// file transcribed by a different model gets its own entry.
func (c *CachingTranscriber) cacheKey(audioPath string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("narration audio %s: %w", audioPath, ErrInputMissing)
		}
		return "", fmt.Errorf("failed to read narration audio: %w", err)
	}

	h := sha256.New()
	h.Write(data)
	h.Write([]byte("|" + c.inner.ModelID()))
	return hex.EncodeToString(h.Sum(nil))[:24], nil
}
