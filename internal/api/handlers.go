package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dhamosankaran/aivideogenstudio/internal/db"
	"github.com/dhamosankaran/aivideogenstudio/internal/models"
	"github.com/dhamosankaran/aivideogenstudio/internal/queue"
)

type Handler struct {
	db       *db.DB
	queue    *queue.Queue
	defaults models.RenderSettings
}

func NewHandler(database *db.DB, q *queue.Queue, defaults models.RenderSettings) *Handler {
	return &Handler{
		db:       database,
		queue:    q,
		defaults: defaults,
	}
}

// CreateVideo handles POST /v1/videos. It persists the script and a
// pending task record, then enqueues the render job. The response is
// returned immediately; all composition happens in the worker.
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if len(req.Scenes) == 0 {
		respondError(w, http.StatusBadRequest, "At least one scene is required")
		return
	}
	if req.NarrationPath == "" {
		respondError(w, http.StatusBadRequest, "Narration path is required")
		return
	}
	for i, scene := range req.Scenes {
		if scene.Text == "" {
			respondError(w, http.StatusBadRequest, "Scene "+strconv.Itoa(i)+" has no text")
			return
		}
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = models.ContentDailyUpdate
	}

	settings := h.defaults
	if req.Width != nil && *req.Width > 0 {
		settings.Width = *req.Width
	}
	if req.Height != nil && *req.Height > 0 {
		settings.Height = *req.Height
	}
	if req.FPS != nil && *req.FPS > 0 {
		settings.FPS = *req.FPS
	}
	settings.ProjectFolder = req.ProjectFolder

	// Normalize scene indexes to their request order.
	scenes := make([]models.Scene, len(req.Scenes))
	for i, scene := range req.Scenes {
		scene.Index = i
		scenes[i] = scene
	}

	script := &models.Script{
		ID:          uuid.New(),
		Title:       req.Title,
		ContentType: contentType,
		EntityName:  req.EntityName,
		Scenes:      scenes,
	}
	if err := h.db.CreateScript(r.Context(), script); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create script")
		return
	}

	video := &models.Video{
		ID:                uuid.New(),
		ScriptID:          script.ID,
		Status:            models.VideoStatusPending,
		NarrationPath:     req.NarrationPath,
		NarrationDuration: req.NarrationDuration,
		RenderSettings: models.JSONB{
			"width":          settings.Width,
			"height":         settings.Height,
			"fps":            settings.FPS,
			"project_folder": settings.ProjectFolder,
		},
	}
	if err := h.db.CreateVideo(r.Context(), video); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create video")
		return
	}

	if err := h.queue.EnqueueRenderVideo(r.Context(), video.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusCreated, models.CreateVideoResponse{
		VideoID: video.ID,
		Status:  video.Status,
	})
}

// ListVideos handles GET /v1/videos
// Query params:
//   - status: filter by task status (pending, rendering, completed, failed)
//   - limit:  max results per page (default 20, max 100)
//   - offset: number of results to skip (default 0)
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	if statusFilter != "" {
		switch models.VideoStatus(statusFilter) {
		case models.VideoStatusPending, models.VideoStatusRendering,
			models.VideoStatusCompleted, models.VideoStatusFailed:
			// valid
		default:
			respondError(w, http.StatusBadRequest, "Invalid status filter. Allowed: pending, rendering, completed, failed")
			return
		}
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	total, err := h.db.CountVideos(r.Context(), statusFilter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to count videos")
		return
	}

	videos, err := h.db.ListVideos(r.Context(), statusFilter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list videos")
		return
	}

	respondJSON(w, http.StatusOK, models.ListVideosResponse{
		Videos: videos,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// GetVideo handles GET /v1/videos/{id}
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid video ID")
		return
	}

	video, err := h.db.GetVideo(r.Context(), videoID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Video not found")
		return
	}

	response := models.VideoResponse{Video: *video}
	if script, err := h.db.GetScript(r.Context(), video.ScriptID); err == nil {
		response.Script = script
	}

	respondJSON(w, http.StatusOK, response)
}

// DownloadVideo handles GET /v1/videos/{id}/download. Completed tasks
// stream the artifact from disk; anything else is a 409 so pollers can
// distinguish "not yet" from "gone".
func (h *Handler) DownloadVideo(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid video ID")
		return
	}

	video, err := h.db.GetVideo(r.Context(), videoID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Video not found")
		return
	}

	if video.Status != models.VideoStatusCompleted || video.OutputPath == nil {
		respondError(w, http.StatusConflict, "Video is not completed yet")
		return
	}

	if _, err := os.Stat(*video.OutputPath); err != nil {
		respondError(w, http.StatusNotFound, "Video file missing from disk")
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="video_`+videoID.String()+`.mp4"`)
	http.ServeFile(w, r, *video.OutputPath)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
