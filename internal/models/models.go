package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Enums
type VideoStatus string

const (
	VideoStatusPending   VideoStatus = "pending"
	VideoStatusRendering VideoStatus = "rendering"
	VideoStatusCompleted VideoStatus = "completed"
	VideoStatusFailed    VideoStatus = "failed"
)

// ContentType tags a script/video with its editorial category. It drives
// music selection, subtitle style, fade pacing, and entity grounding via
// the render profile.
type ContentType string

const (
	ContentDailyUpdate ContentType = "daily_update"
	ContentBigTech     ContentType = "big_tech"
	ContentLeaderQuote ContentType = "leader_quote"
	ContentArxivPaper  ContentType = "arxiv_paper"
	ContentBookReview  ContentType = "book_review"
)

// MediaKind identifies what a resolved scene background is.
type MediaKind string

const (
	MediaKindVideo    MediaKind = "video"
	MediaKindImage    MediaKind = "image"
	MediaKindGradient MediaKind = "gradient"
)

// JSONB is a custom type for PostgreSQL JSONB columns
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// ---------------------------------------------------------------------------
// Core pipeline types
// ---------------------------------------------------------------------------

// Scene is one ordered narrative unit of a script: its narration text plus
// the visual search intent for its background. Supplied by the caller and
// read-only to the render pipeline.
type Scene struct {
	Index         int      `json:"index"`
	Text          string   `json:"text"`
	ImageKeywords []string `json:"image_keywords"`
	StyleHint     string   `json:"style_hint,omitempty"`
	EstimatedSec  float64  `json:"estimated_sec,omitempty"`
}

// WordTiming is a single transcribed word anchored on the narration
// timeline. Sequences are ordered and non-overlapping:
// start[i] <= end[i] <= start[i+1].
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds
}

// TimedScene is a Scene anchored to a concrete window on the shared audio
// timeline, carrying its contiguous slice of word timings. The union of all
// word slices, in order, covers every transcribed word exactly once.
type TimedScene struct {
	Scene
	StartTime float64      `json:"start_time"`
	EndTime   float64      `json:"end_time"`
	Duration  float64      `json:"duration"`
	Words     []WordTiming `json:"words"`
}

// NarrationTrack references an already-rendered narration audio file.
// Immutable once rendered; owned by the caller.
type NarrationTrack struct {
	FilePath string  `json:"file_path"`
	Duration float64 `json:"duration"` // seconds
}

// MediaAsset is a resolved scene background.
type MediaAsset struct {
	Kind     MediaKind `json:"kind"`
	Path     string    `json:"path,omitempty"` // empty for gradients
	Provider string    `json:"provider"`
	CacheKey string    `json:"cache_key,omitempty"`
}

// RenderSettings carries per-task output parameters.
type RenderSettings struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	FPS           int    `json:"fps"`
	ProjectFolder string `json:"project_folder,omitempty"` // local asset override dir
}

// ---------------------------------------------------------------------------
// Persistence models
// ---------------------------------------------------------------------------

// Script holds the ordered scene list for one video, plus its content type.
type Script struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	ContentType ContentType `json:"content_type"`
	EntityName  string      `json:"entity_name,omitempty"` // canonical subject for entity grounding
	Scenes      []Scene     `json:"scenes"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Video is a render task record. Created pending by the API; mutated only
// by the worker; terminal once completed or failed.
type Video struct {
	ID                uuid.UUID   `json:"id"`
	ScriptID          uuid.UUID   `json:"script_id"`
	Status            VideoStatus `json:"status"`
	NarrationPath     string      `json:"narration_path"`
	NarrationDuration float64     `json:"narration_duration"`
	RenderSettings    JSONB       `json:"render_settings,omitempty"`
	OutputPath        *string     `json:"output_path,omitempty"`
	DurationSec       *float64    `json:"duration_sec,omitempty"`
	FileSizeBytes     *int64      `json:"file_size_bytes,omitempty"`
	ProcessingSec     *float64    `json:"processing_sec,omitempty"`
	ErrorMessage      *string     `json:"error_message,omitempty"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// ---------------------------------------------------------------------------
// DTOs for API requests/responses
// ---------------------------------------------------------------------------

type CreateVideoRequest struct {
	Title             string      `json:"title"`
	ContentType       ContentType `json:"content_type,omitempty"` // default: daily_update
	EntityName        string      `json:"entity_name,omitempty"`
	Scenes            []Scene     `json:"scenes"`
	NarrationPath     string      `json:"narration_path"`
	NarrationDuration float64     `json:"narration_duration"`
	Width             *int        `json:"width,omitempty"`  // default: 1080
	Height            *int        `json:"height,omitempty"` // default: 1920
	FPS               *int        `json:"fps,omitempty"`    // default: 30
	ProjectFolder     string      `json:"project_folder,omitempty"`
}

type CreateVideoResponse struct {
	VideoID uuid.UUID   `json:"video_id"`
	Status  VideoStatus `json:"status"`
}

type VideoResponse struct {
	Video
	Script *Script `json:"script,omitempty"`
}

type ListVideosResponse struct {
	Videos []Video `json:"videos"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
