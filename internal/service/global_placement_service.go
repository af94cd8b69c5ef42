package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sakchai-dev/timetable-api/internal/dto"
	"github.com/sakchai-dev/timetable-api/internal/models"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
)

type globalAssignmentStore interface {
	DeleteBySlot(ctx context.Context, day string, slotID, year, term int) (int64, error)
	BulkCreate(ctx context.Context, assignments []models.Assignment) error
}

type classroomLister interface {
	ListAll(ctx context.Context) ([]models.Classroom, error)
	Count(ctx context.Context) (int, error)
}

// GlobalPlacementService writes one activity into the same slot of every
// classroom at once, for school-wide periods like assemblies or scouts.
type GlobalPlacementService struct {
	assignments globalAssignmentStore
	classrooms  classroomLister
	settings    schedulerSettingsReader
	cache       timetableInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
	grid        models.TimeGrid
}

// NewGlobalPlacementService wires the global placement dependencies.
func NewGlobalPlacementService(
	assignments globalAssignmentStore,
	classrooms classroomLister,
	settings schedulerSettingsReader,
	cache timetableInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *GlobalPlacementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GlobalPlacementService{
		assignments: assignments,
		classrooms:  classrooms,
		settings:    settings,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		grid:        models.DefaultTimeGrid(),
	}
}

// Place applies the slot write. Without confirmation it returns a preview with
// the number of classrooms affected and mutates nothing. When DeleteOld is
// set, whatever occupied the slot is removed first, locked rows included.
//
// The delete and the insert are separate statements on purpose: if the insert
// fails after the delete succeeded the slot is left empty, and that gap is
// reported as its own error so operators know a re-run is needed.
func (s *GlobalPlacementService) Place(ctx context.Context, req dto.GlobalPlacementRequest) (*dto.GlobalPlacementResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid global placement payload")
	}
	if !s.grid.IsSchoolDay(req.DayOfWeek) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown school day %q", req.DayOfWeek))
	}
	if !s.grid.IsTeachingSlot(req.SlotID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %d is not a teaching period", req.SlotID))
	}

	resp := &dto.GlobalPlacementResponse{}

	if !req.Confirm {
		count, err := s.classrooms.Count(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "count classrooms")
		}
		resp.RequiresConfirmation = true
		resp.ClassroomsAffected = count
		return resp, nil
	}

	year, term, err := resolveActiveTerm(ctx, s.settings, req.AcademicYear, req.Term)
	if err != nil {
		return nil, err
	}

	classrooms, err := s.classrooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list classrooms")
	}
	if len(classrooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no classrooms to place into")
	}
	resp.ClassroomsAffected = len(classrooms)

	deleted := false
	if req.DeleteOld {
		removed, err := s.assignments.DeleteBySlot(ctx, req.DayOfWeek, req.SlotID, year, term)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "clear slot before global placement")
		}
		resp.DeletedCount = int(removed)
		deleted = true
	}

	batch := make([]models.Assignment, 0, len(classrooms))
	for i := range classrooms {
		classroomID := classrooms[i].ID
		subjectID := req.SubjectID
		batch = append(batch, models.Assignment{
			ClassroomID:  &classroomID,
			SubjectID:    &subjectID,
			TeacherID:    req.TeacherID,
			DayOfWeek:    req.DayOfWeek,
			SlotID:       req.SlotID,
			AcademicYear: year,
			Term:         term,
			ActivityType: models.ActivityActivity,
			MajorGroup:   req.MajorGroup,
			IsLocked:     true,
		})
	}

	if err := s.assignments.BulkCreate(ctx, batch); err != nil {
		if deleted {
			s.logger.Error("global placement wrote nothing after clearing slot",
				zap.String("day", req.DayOfWeek),
				zap.Int("slot_id", req.SlotID),
				zap.Error(err),
			)
			return nil, appErrors.Wrap(err, appErrors.ErrPartialWrite.Code, appErrors.ErrPartialWrite.Status, appErrors.ErrPartialWrite.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist global placement")
	}
	resp.PlacedCount = len(batch)

	if s.cache != nil {
		if err := s.cache.InvalidateTimetables(ctx); err != nil {
			s.logger.Warn("invalidate timetable cache", zap.Error(err))
		}
	}

	return resp, nil
}
