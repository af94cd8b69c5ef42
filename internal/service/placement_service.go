package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sakchai-dev/timetable-api/internal/dto"
	"github.com/sakchai-dev/timetable-api/internal/models"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
)

type placementAssignmentStore interface {
	FindTeacherSlot(ctx context.Context, teacherID, day string, slotID, year, term int) (*models.AssignmentDetail, error)
	ListCell(ctx context.Context, classroomID, day string, slotID, year, term int) ([]models.AssignmentDetail, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
	DeleteUnlockedByClassroom(ctx context.Context, classroomID string, year, term int) (int64, error)
	CountUnlockedByClassroom(ctx context.Context, classroomID string, year, term int) (int, error)
}

// PlacementConfig tunes manual placement behaviour.
type PlacementConfig struct {
	MaxSharedPerCell int
}

// PlacementService places and removes single timetable entries by hand.
type PlacementService struct {
	assignments placementAssignmentStore
	classrooms  schedulerClassroomReader
	settings    schedulerSettingsReader
	cache       timetableInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
	grid        models.TimeGrid
	maxShared   int
}

// NewPlacementService wires the manual placement dependencies.
func NewPlacementService(
	assignments placementAssignmentStore,
	classrooms schedulerClassroomReader,
	settings schedulerSettingsReader,
	cache timetableInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg PlacementConfig,
) *PlacementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxSharedPerCell <= 0 {
		cfg.MaxSharedPerCell = 4
	}
	return &PlacementService{
		assignments: assignments,
		classrooms:  classrooms,
		settings:    settings,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		grid:        models.DefaultTimeGrid(),
		maxShared:   cfg.MaxSharedPerCell,
	}
}

// Place writes one subject into one cell. The teacher must be free across the
// whole school at that time; an occupied cell requires the shared flag.
func (s *PlacementService) Place(ctx context.Context, req dto.ManualPlacementRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}
	if err := s.validateCell(req.DayOfWeek, req.SlotID); err != nil {
		return nil, err
	}

	if _, err := s.classrooms.FindByID(ctx, req.ClassroomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load classroom")
	}

	year, term, err := resolveActiveTerm(ctx, s.settings, req.AcademicYear, req.Term)
	if err != nil {
		return nil, err
	}

	if req.TeacherID != nil {
		held, err := s.assignments.FindTeacherSlot(ctx, *req.TeacherID, req.DayOfWeek, req.SlotID, year, term)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check teacher availability")
		}
		if held != nil {
			where := "another classroom"
			if held.ClassroomName != nil {
				where = *held.ClassroomName
			}
			return nil, appErrors.Clone(appErrors.ErrTeacherConflict, fmt.Sprintf("teacher already occupied in %s on %s period %d", where, req.DayOfWeek, req.SlotID))
		}
	}

	entries, err := s.assignments.ListCell(ctx, req.ClassroomID, req.DayOfWeek, req.SlotID, year, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check target cell")
	}
	if len(entries) > 0 {
		if !req.AllowShared {
			return nil, &models.PlacementConflictError{
				Type:    appErrors.ErrSlotOccupied.Code,
				Message: fmt.Sprintf("slot %s period %d already occupied", req.DayOfWeek, req.SlotID),
				Entries: entries,
			}
		}
		if len(entries) >= s.maxShared {
			return nil, appErrors.Clone(appErrors.ErrSlotOccupied, fmt.Sprintf("cell already holds %d shared entries", len(entries)))
		}
	}

	classroom := req.ClassroomID
	subject := req.SubjectID
	assignment := &models.Assignment{
		ClassroomID:  &classroom,
		SubjectID:    &subject,
		TeacherID:    req.TeacherID,
		DayOfWeek:    req.DayOfWeek,
		SlotID:       req.SlotID,
		AcademicYear: year,
		Term:         term,
		ActivityType: models.ActivityStudy,
		MajorGroup:   req.MajorGroup,
		IsLocked:     req.IsLocked,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create assignment")
	}

	s.invalidate(ctx)
	return assignment, nil
}

// Remove deletes a single assignment by id.
func (s *PlacementService) Remove(ctx context.Context, id string) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "assignment id required")
	}
	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete assignment")
	}
	s.invalidate(ctx)
	return nil
}

// ClearUnlocked wipes a classroom's auto-placed rows. Destructive, so the
// first call without confirmation only reports how many rows would go.
func (s *PlacementService) ClearUnlocked(ctx context.Context, req dto.ClearScheduleRequest) (*dto.ClearScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clear payload")
	}

	year, term, err := resolveActiveTerm(ctx, s.settings, req.AcademicYear, req.Term)
	if err != nil {
		return nil, err
	}

	resp := &dto.ClearScheduleResponse{ClassroomID: req.ClassroomID}
	if !req.Confirm {
		count, err := s.assignments.CountUnlockedByClassroom(ctx, req.ClassroomID, year, term)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "count assignments to clear")
		}
		resp.RequiresConfirmation = true
		resp.RowsToDelete = count
		return resp, nil
	}

	deleted, err := s.assignments.DeleteUnlockedByClassroom(ctx, req.ClassroomID, year, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "clear classroom assignments")
	}
	resp.DeletedCount = int(deleted)

	s.invalidate(ctx)
	return resp, nil
}

func (s *PlacementService) validateCell(day string, slotID int) error {
	if !s.grid.IsSchoolDay(day) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown school day %q", day))
	}
	if !s.grid.IsTeachingSlot(slotID) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %d is not a teaching period", slotID))
	}
	return nil
}

func (s *PlacementService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTimetables(ctx); err != nil {
		s.logger.Warn("invalidate timetable cache", zap.Error(err))
	}
}
