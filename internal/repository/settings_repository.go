package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakchai-dev/timetable-api/internal/models"
)

// SettingsRepository persists the single-row academic settings record.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get fetches the active academic settings.
func (r *SettingsRepository) Get(ctx context.Context) (*models.AcademicSettings, error) {
	const query = `SELECT id, academic_year, term, updated_at FROM academic_settings LIMIT 1`
	var settings models.AcademicSettings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert inserts or updates the settings row.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.AcademicSettings) error {
	if settings.ID == "" {
		settings.ID = "active"
	}
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO academic_settings (id, academic_year, term, updated_at)
VALUES (:id, :academic_year, :term, :updated_at)
ON CONFLICT (id)
DO UPDATE SET academic_year = EXCLUDED.academic_year, term = EXCLUDED.term, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert academic settings: %w", err)
	}
	return nil
}
