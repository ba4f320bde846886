package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dhamosankaran/aivideogenstudio/internal/models"
	"github.com/google/uuid"
)

func (db *DB) CreateScript(ctx context.Context, script *models.Script) error {
	scenesJSON, err := json.Marshal(script.Scenes)
	if err != nil {
		return fmt.Errorf("failed to marshal scenes: %w", err)
	}

	query := `
		INSERT INTO scripts (
			id, title, content_type, entity_name, scenes
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	return db.QueryRowContext(
		ctx, query,
		script.ID, script.Title, script.ContentType, script.EntityName, scenesJSON,
	).Scan(&script.CreatedAt, &script.UpdatedAt)
}

func (db *DB) GetScript(ctx context.Context, id uuid.UUID) (*models.Script, error) {
	query := `
		SELECT id, title, content_type, entity_name, scenes, created_at, updated_at
		FROM scripts
		WHERE id = $1
	`

	script := &models.Script{}
	var scenesJSON []byte
	err := db.QueryRowContext(ctx, query, id).Scan(
		&script.ID, &script.Title, &script.ContentType, &script.EntityName,
		&scenesJSON, &script.CreatedAt, &script.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("script not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get script: %w", err)
	}

	if err := json.Unmarshal(scenesJSON, &script.Scenes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenes: %w", err)
	}

	return script, nil
}
