package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
	"github.com/google/uuid"
)

func (db *DB) CreateVideo(ctx context.Context, video *models.Video) error {
	query := `
		INSERT INTO videos (
			id, script_id, status, narration_path, narration_duration, render_settings
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	return db.QueryRowContext(
		ctx, query,
		video.ID, video.ScriptID, video.Status, video.NarrationPath,
		video.NarrationDuration, video.RenderSettings,
	).Scan(&video.CreatedAt, &video.UpdatedAt)
}

func (db *DB) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	query := `
		SELECT
			id, script_id, status, narration_path, narration_duration,
			render_settings, output_path, duration_sec, file_size_bytes,
			processing_sec, error_message, completed_at, created_at, updated_at
		FROM videos
		WHERE id = $1
	`

	video := &models.Video{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&video.ID, &video.ScriptID, &video.Status, &video.NarrationPath,
		&video.NarrationDuration, &video.RenderSettings, &video.OutputPath,
		&video.DurationSec, &video.FileSizeBytes, &video.ProcessingSec,
		&video.ErrorMessage, &video.CompletedAt, &video.CreatedAt, &video.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("video not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	return video, nil
}

// ListVideos returns videos ordered by creation date (newest first).
// Supports optional status filter, limit, and offset for pagination.
func (db *DB) ListVideos(ctx context.Context, status string, limit, offset int) ([]models.Video, error) {
	query := `
		SELECT
			id, script_id, status, narration_path, narration_duration,
			render_settings, output_path, duration_sec, file_size_bytes,
			processing_sec, error_message, completed_at, created_at, updated_at
		FROM videos
	`
	args := []interface{}{}

	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var video models.Video
		err := rows.Scan(
			&video.ID, &video.ScriptID, &video.Status, &video.NarrationPath,
			&video.NarrationDuration, &video.RenderSettings, &video.OutputPath,
			&video.DurationSec, &video.FileSizeBytes, &video.ProcessingSec,
			&video.ErrorMessage, &video.CompletedAt, &video.CreatedAt, &video.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}

	return videos, nil
}

func (db *DB) CountVideos(ctx context.Context, status string) (int, error) {
	query := `SELECT COUNT(*) FROM videos`
	args := []interface{}{}

	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}

	var count int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return count, nil
}

func (db *DB) UpdateVideoStatus(ctx context.Context, id uuid.UUID, status models.VideoStatus) error {
	query := `UPDATE videos SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := db.ExecContext(ctx, query, status, time.Now(), id)
	return err
}

// MarkVideoCompleted records the final artifact metadata and flips the task
// to completed in a single statement, so a completed row always carries its
// output path and measurements.
func (db *DB) MarkVideoCompleted(ctx context.Context, id uuid.UUID, outputPath string, durationSec float64, fileSize int64, processingSec float64) error {
	query := `
		UPDATE videos
		SET status = $1, output_path = $2, duration_sec = $3,
			file_size_bytes = $4, processing_sec = $5,
			completed_at = $6, updated_at = $6
		WHERE id = $7
	`
	_, err := db.ExecContext(
		ctx, query,
		models.VideoStatusCompleted, outputPath, durationSec,
		fileSize, processingSec, time.Now(), id,
	)
	return err
}

func (db *DB) MarkVideoFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE videos
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	_, err := db.ExecContext(ctx, query, models.VideoStatusFailed, errorMessage, time.Now(), id)
	return err
}
