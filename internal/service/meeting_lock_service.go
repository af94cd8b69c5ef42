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

// Meeting lock scopes.
const (
	ScopeSelf       = "self"
	ScopeDepartment = "department"
	ScopeAll        = "all"
)

type meetingAssignmentStore interface {
	DeleteBySlotForTeachers(ctx context.Context, teacherIDs []string, day string, slotID, year, term int) (int64, error)
	BulkCreate(ctx context.Context, assignments []models.Assignment) error
}

type teacherDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ListIDsByDepartment(ctx context.Context, department string) ([]string, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
}

// MeetingLockService blocks one slot for a scope of teachers with locked
// meeting entries, replacing whatever those teachers had there.
type MeetingLockService struct {
	assignments meetingAssignmentStore
	teachers    teacherDirectory
	settings    schedulerSettingsReader
	cache       timetableInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
	grid        models.TimeGrid
}

// NewMeetingLockService wires the meeting lock dependencies.
func NewMeetingLockService(
	assignments meetingAssignmentStore,
	teachers teacherDirectory,
	settings schedulerSettingsReader,
	cache timetableInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *MeetingLockService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingLockService{
		assignments: assignments,
		teachers:    teachers,
		settings:    settings,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		grid:        models.DefaultTimeGrid(),
	}
}

// Lock writes a locked meeting row into the slot for every teacher in scope,
// replacing their existing rows there. Destructive, so the first call without
// confirmation previews the teacher count.
func (s *MeetingLockService) Lock(ctx context.Context, req dto.MeetingLockRequest) (*dto.MeetingLockResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid meeting lock payload")
	}
	if err := s.validateCell(req.DayOfWeek, req.SlotID); err != nil {
		return nil, err
	}

	teacherIDs, err := s.resolveScope(ctx, req.Scope, req.TeacherID)
	if err != nil {
		return nil, err
	}

	resp := &dto.MeetingLockResponse{TeachersAffected: len(teacherIDs)}
	if !req.Confirm {
		resp.RequiresConfirmation = true
		return resp, nil
	}

	year, term, err := resolveActiveTerm(ctx, s.settings, req.AcademicYear, req.Term)
	if err != nil {
		return nil, err
	}

	deleted, err := s.assignments.DeleteBySlotForTeachers(ctx, teacherIDs, req.DayOfWeek, req.SlotID, year, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "clear slot for meeting lock")
	}
	resp.DeletedCount = int(deleted)

	batch := make([]models.Assignment, 0, len(teacherIDs))
	for i := range teacherIDs {
		teacherID := teacherIDs[i]
		batch = append(batch, models.Assignment{
			TeacherID:    &teacherID,
			DayOfWeek:    req.DayOfWeek,
			SlotID:       req.SlotID,
			AcademicYear: year,
			Term:         term,
			ActivityType: models.ActivityMeeting,
			Note:         req.Note,
			IsLocked:     true,
		})
	}
	if err := s.assignments.BulkCreate(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPartialWrite.Code, appErrors.ErrPartialWrite.Status, appErrors.ErrPartialWrite.Message)
	}
	resp.LockedCount = len(batch)

	s.invalidate(ctx)
	return resp, nil
}

// Free removes the scope's rows from the slot without writing replacements.
func (s *MeetingLockService) Free(ctx context.Context, req dto.MeetingFreeRequest) (*dto.MeetingLockResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid meeting free payload")
	}
	if err := s.validateCell(req.DayOfWeek, req.SlotID); err != nil {
		return nil, err
	}

	teacherIDs, err := s.resolveScope(ctx, req.Scope, req.TeacherID)
	if err != nil {
		return nil, err
	}

	resp := &dto.MeetingLockResponse{TeachersAffected: len(teacherIDs)}
	if !req.Confirm {
		resp.RequiresConfirmation = true
		return resp, nil
	}

	year, term, err := resolveActiveTerm(ctx, s.settings, req.AcademicYear, req.Term)
	if err != nil {
		return nil, err
	}

	deleted, err := s.assignments.DeleteBySlotForTeachers(ctx, teacherIDs, req.DayOfWeek, req.SlotID, year, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "free slot for teachers")
	}
	resp.DeletedCount = int(deleted)

	s.invalidate(ctx)
	return resp, nil
}

func (s *MeetingLockService) resolveScope(ctx context.Context, scope, teacherID string) ([]string, error) {
	switch scope {
	case ScopeSelf:
		return []string{teacherID}, nil
	case ScopeDepartment:
		teacher, err := s.teachers.FindByID(ctx, teacherID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load teacher")
		}
		if teacher.Department == nil || *teacher.Department == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "teacher has no department")
		}
		ids, err := s.teachers.ListIDsByDepartment(ctx, *teacher.Department)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list department teachers")
		}
		return ids, nil
	case ScopeAll:
		ids, err := s.teachers.ListActiveIDs(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list active teachers")
		}
		return ids, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown scope %q", scope))
	}
}

func (s *MeetingLockService) validateCell(day string, slotID int) error {
	if !s.grid.IsSchoolDay(day) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown school day %q", day))
	}
	if !s.grid.IsTeachingSlot(slotID) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %d is not a teaching period", slotID))
	}
	return nil
}

func (s *MeetingLockService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTimetables(ctx); err != nil {
		s.logger.Warn("invalidate timetable cache", zap.Error(err))
	}
}
