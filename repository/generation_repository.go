package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"listing-studio/db"
	"listing-studio/models"
)

const defaultHistoryLimit = 50

// GenerationRepository stores one row per generation pipeline item
// Implements GenerationRepositoryInterface
type GenerationRepository struct{}

// NewGenerationRepository creates a new GenerationRepository
func NewGenerationRepository() *GenerationRepository {
	return &GenerationRepository{}
}

// Ensure GenerationRepository implements GenerationRepositoryInterface
var _ GenerationRepositoryInterface = (*GenerationRepository)(nil)

// Record inserts a pipeline item
func (r *GenerationRepository) Record(ctx context.Context, rec models.GenerationRecord) error {
	previews := rec.Previews
	if previews == nil {
		previews = []string{}
	}
	previewsJSON, err := json.Marshal(previews)
	if err != nil {
		return fmt.Errorf("failed to encode previews: %w", err)
	}

	query := `
		INSERT INTO generation_runs (run_id, blueprint_id, created_product_id, previews, error)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := db.DB.ExecContext(ctx, query, rec.RunID, rec.BlueprintID, rec.CreatedProductID, previewsJSON, rec.Error); err != nil {
		log.Printf("❌ GenerationRepository.Record: run=%s blueprint=%d: %v", rec.RunID, rec.BlueprintID, err)
		return fmt.Errorf("failed to insert generation record: %w", err)
	}
	return nil
}

// ListRecent returns the latest items, newest first
func (r *GenerationRepository) ListRecent(ctx context.Context, limit int) ([]models.GenerationRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	query := `
		SELECT id, run_id, blueprint_id, created_product_id, previews, error, created_at
		FROM generation_runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	rows, err := db.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation history: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListByRun returns the items of one run in pipeline order
func (r *GenerationRepository) ListByRun(ctx context.Context, runID string) ([]models.GenerationRecord, error) {
	query := `
		SELECT id, run_id, blueprint_id, created_product_id, previews, error, created_at
		FROM generation_runs
		WHERE run_id = $1
		ORDER BY id
	`
	rows, err := db.DB.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation run %s: %w", runID, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]models.GenerationRecord, error) {
	records := []models.GenerationRecord{}
	for rows.Next() {
		var rec models.GenerationRecord
		var previews []byte
		var createdAt time.Time
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.BlueprintID, &rec.CreatedProductID, &previews, &rec.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation record: %w", err)
		}
		rec.Previews = []string{}
		if len(previews) > 0 {
			if err := json.Unmarshal(previews, &rec.Previews); err != nil {
				log.Printf("⚠️  GenerationRepository: invalid previews on record %d: %v", rec.ID, err)
			}
		}
		rec.CreatedAt = createdAt.Format(time.RFC3339)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read generation records: %w", err)
	}
	return records, nil
}
