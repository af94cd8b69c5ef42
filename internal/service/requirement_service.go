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

type requirementRepository interface {
	List(ctx context.Context, filter models.RequirementFilter) ([]models.RequirementDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseRequirement, error)
	Create(ctx context.Context, requirement *models.CourseRequirement) error
	Update(ctx context.Context, requirement *models.CourseRequirement) error
	Delete(ctx context.Context, id string) error
}

type requirementSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type requirementTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// CreateRequirementRequest declares a weekly subject demand for a classroom.
type CreateRequirementRequest struct {
	ClassroomID    string  `json:"classroom_id" validate:"required"`
	SubjectID      string  `json:"subject_id" validate:"required"`
	TeacherID      *string `json:"teacher_id"`
	PeriodsPerWeek int     `json:"periods_per_week" validate:"required,min=1,max=35"`
	MajorGroup     *string `json:"major_group" validate:"omitempty,max=100"`
	AcademicYear   int     `json:"academic_year" validate:"omitempty,min=2000"`
	Term           int     `json:"term" validate:"omitempty,min=1,max=3"`
}

// UpdateRequirementRequest modifies requirement fields.
type UpdateRequirementRequest struct {
	TeacherID      *string `json:"teacher_id"`
	PeriodsPerWeek int     `json:"periods_per_week" validate:"required,min=1,max=35"`
	MajorGroup     *string `json:"major_group" validate:"omitempty,max=100"`
}

// RequirementService manages the course requirements the placement engine
// extracts its task pool from.
type RequirementService struct {
	repo       requirementRepository
	classrooms schedulerClassroomReader
	subjects   requirementSubjectReader
	teachers   requirementTeacherReader
	settings   schedulerSettingsReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewRequirementService creates a new requirement service.
func NewRequirementService(
	repo requirementRepository,
	classrooms schedulerClassroomReader,
	subjects requirementSubjectReader,
	teachers requirementTeacherReader,
	settings schedulerSettingsReader,
	validate *validator.Validate,
	logger *zap.Logger,
) *RequirementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequirementService{
		repo:       repo,
		classrooms: classrooms,
		subjects:   subjects,
		teachers:   teachers,
		settings:   settings,
		validator:  validate,
		logger:     logger,
	}
}

// List returns paginated requirement rows with display names joined in.
func (s *RequirementService) List(ctx context.Context, filter models.RequirementFilter) ([]models.RequirementDetail, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requirements")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a requirement by identifier.
func (s *RequirementService) Get(ctx context.Context, id string) (*models.CourseRequirement, error) {
	requirement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "requirement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirement")
	}
	return requirement, nil
}

// Create adds a requirement after verifying the referenced records exist.
func (s *RequirementService) Create(ctx context.Context, req CreateRequirementRequest) (*models.CourseRequirement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid requirement payload")
	}

	year, term, err := resolveActiveTerm(ctx, s.settings, req.AcademicYear, req.Term)
	if err != nil {
		return nil, err
	}

	if _, err := s.classrooms.FindByID(ctx, req.ClassroomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if req.TeacherID != nil && *req.TeacherID != "" {
		if _, err := s.teachers.FindByID(ctx, *req.TeacherID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
		}
	}

	requirement := &models.CourseRequirement{
		ClassroomID:    req.ClassroomID,
		SubjectID:      req.SubjectID,
		TeacherID:      req.TeacherID,
		PeriodsPerWeek: req.PeriodsPerWeek,
		MajorGroup:     req.MajorGroup,
		AcademicYear:   year,
		Term:           term,
	}

	if err := s.repo.Create(ctx, requirement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create requirement")
	}
	return requirement, nil
}

// Update modifies an existing requirement. Classroom and subject are fixed;
// drop and recreate the row to change those.
func (s *RequirementService) Update(ctx context.Context, id string, req UpdateRequirementRequest) (*models.CourseRequirement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid requirement payload")
	}

	requirement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "requirement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirement")
	}

	if req.TeacherID != nil && *req.TeacherID != "" {
		if _, err := s.teachers.FindByID(ctx, *req.TeacherID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
		}
	}

	requirement.TeacherID = req.TeacherID
	requirement.PeriodsPerWeek = req.PeriodsPerWeek
	requirement.MajorGroup = req.MajorGroup

	if err := s.repo.Update(ctx, requirement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update requirement")
	}
	return requirement, nil
}

// Delete removes a requirement. Already placed assignments stay; re-running
// the scheduler in reset mode reconciles the grid.
func (s *RequirementService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "requirement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirement")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete requirement")
	}
	return nil
}
