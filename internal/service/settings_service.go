package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sakchai-dev/timetable-api/internal/models"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context) (*models.AcademicSettings, error)
	Upsert(ctx context.Context, settings *models.AcademicSettings) error
}

// UpdateSettingsRequest sets the active school term.
type UpdateSettingsRequest struct {
	AcademicYear int `json:"academic_year" validate:"required,min=2000"`
	Term         int `json:"term" validate:"required,min=1,max=3"`
}

// SettingsService manages the single active-term record every scheduling
// operation defaults to.
type SettingsService struct {
	repo      settingsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(repo settingsRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger}
}

// Get returns the active term settings.
func (s *SettingsService) Get(ctx context.Context) (*models.AcademicSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic settings not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic settings")
	}
	return settings, nil
}

// Update stores the active term, creating the record on first use.
func (s *SettingsService) Update(ctx context.Context, req UpdateSettingsRequest) (*models.AcademicSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	settings := &models.AcademicSettings{
		AcademicYear: req.AcademicYear,
		Term:         req.Term,
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update academic settings")
	}

	s.logger.Info("active term changed",
		zap.Int("academic_year", settings.AcademicYear),
		zap.Int("term", settings.Term),
	)
	return settings, nil
}
