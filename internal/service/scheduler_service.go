package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sakchai-dev/timetable-api/internal/dto"
	"github.com/sakchai-dev/timetable-api/internal/models"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
)

type schedulerRequirementReader interface {
	ListByClassroomTerm(ctx context.Context, classroomID string, year, term int) ([]models.CourseRequirement, error)
}

type schedulerAssignmentStore interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	ListByTeachers(ctx context.Context, teacherIDs []string, year, term int) ([]models.Assignment, error)
	BulkCreate(ctx context.Context, assignments []models.Assignment) error
	DeleteUnlockedByClassroom(ctx context.Context, classroomID string, year, term int) (int64, error)
	CountUnlockedByClassroom(ctx context.Context, classroomID string, year, term int) (int, error)
}

type schedulerClassroomReader interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

type schedulerSettingsReader interface {
	Get(ctx context.Context) (*models.AcademicSettings, error)
}

type timetableInvalidator interface {
	InvalidateTimetables(ctx context.Context) error
}

type schedulerRunRecorder interface {
	RecordSchedulerRun(mode, status string, placed, unplaced int)
}

// placementTask is one still-needed teaching period extracted from a
// requirement. Tasks without a teacher can go into any free cell.
type placementTask struct {
	SubjectID  string
	TeacherID  *string
	MajorGroup *string
}

type cellKey struct {
	Day    string
	SlotID int
}

type teacherSlotKey struct {
	TeacherID string
	Day       string
	SlotID    int
}

// teacherConflictIndex answers "is this teacher free at day/slot" in constant
// time. It is seeded from one bulk read and lives for a single run.
type teacherConflictIndex struct {
	occupied map[teacherSlotKey]struct{}
}

func newTeacherConflictIndex(existing []models.Assignment) *teacherConflictIndex {
	idx := &teacherConflictIndex{occupied: make(map[teacherSlotKey]struct{}, len(existing))}
	for _, a := range existing {
		if a.TeacherID == nil {
			continue
		}
		idx.markOccupied(*a.TeacherID, a.DayOfWeek, a.SlotID)
	}
	return idx
}

func (i *teacherConflictIndex) isTeacherFree(teacherID, day string, slotID int) bool {
	_, taken := i.occupied[teacherSlotKey{TeacherID: teacherID, Day: day, SlotID: slotID}]
	return !taken
}

func (i *teacherConflictIndex) markOccupied(teacherID, day string, slotID int) {
	i.occupied[teacherSlotKey{TeacherID: teacherID, Day: day, SlotID: slotID}] = struct{}{}
}

// SchedulerService runs the automatic placement engine for one classroom.
type SchedulerService struct {
	requirements schedulerRequirementReader
	assignments  schedulerAssignmentStore
	classrooms   schedulerClassroomReader
	settings     schedulerSettingsReader
	cache        timetableInvalidator
	metrics      schedulerRunRecorder
	validator    *validator.Validate
	logger       *zap.Logger
	grid         models.TimeGrid
}

// NewSchedulerService wires the placement engine dependencies.
func NewSchedulerService(
	requirements schedulerRequirementReader,
	assignments schedulerAssignmentStore,
	classrooms schedulerClassroomReader,
	settings schedulerSettingsReader,
	cache timetableInvalidator,
	metrics schedulerRunRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
) *SchedulerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulerService{
		requirements: requirements,
		assignments:  assignments,
		classrooms:   classrooms,
		settings:     settings,
		cache:        cache,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		grid:         models.DefaultTimeGrid(),
	}
}

// Run executes an automatic placement pass. Reset mode is destructive and
// requires confirmation; without it the response is a preview of what would
// be deleted and nothing is touched.
func (s *SchedulerService) Run(ctx context.Context, req dto.AutoScheduleRequest) (*dto.AutoScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid auto schedule payload")
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

	resp := &dto.AutoScheduleResponse{
		ClassroomID:  req.ClassroomID,
		AcademicYear: year,
		Term:         term,
		Mode:         req.Mode,
	}

	if req.Mode == dto.ModeReset && !req.Confirm {
		count, err := s.assignments.CountUnlockedByClassroom(ctx, req.ClassroomID, year, term)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "count assignments to reset")
		}
		resp.RequiresConfirmation = true
		resp.RowsToDelete = count
		return resp, nil
	}

	requirements, err := s.requirements.ListByClassroomTerm(ctx, req.ClassroomID, year, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load course requirements")
	}
	if len(requirements) == 0 {
		return nil, appErrors.ErrNoRequirements
	}

	if req.Mode == dto.ModeReset {
		deleted, err := s.assignments.DeleteUnlockedByClassroom(ctx, req.ClassroomID, year, term)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "reset classroom assignments")
		}
		resp.DeletedCount = int(deleted)
	}

	existing, err := s.assignments.List(ctx, models.AssignmentFilter{ClassroomID: req.ClassroomID, AcademicYear: year, Term: term})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load existing assignments")
	}

	pool := buildTaskPool(requirements, existing)
	resp.TotalTasks = len(pool)
	if len(pool) == 0 {
		s.record(req.Mode, "noop", 0, 0)
		return resp, nil
	}

	index, err := s.seedConflictIndex(ctx, pool, year, term)
	if err != nil {
		return nil, err
	}

	occupiedCells := make(map[cellKey]struct{}, len(existing))
	for _, a := range existing {
		occupiedCells[cellKey{Day: a.DayOfWeek, SlotID: a.SlotID}] = struct{}{}
	}

	placed := s.placeTasks(pool, index, occupiedCells, req.ClassroomID, year, term)

	if err := s.assignments.BulkCreate(ctx, placed); err != nil {
		s.record(req.Mode, "error", 0, 0)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist placed assignments")
	}

	resp.PlacedCount = len(placed)
	resp.UnplacedCount = resp.TotalTasks - resp.PlacedCount

	s.record(req.Mode, "success", resp.PlacedCount, resp.UnplacedCount)
	s.logger.Info("auto schedule run finished",
		zap.String("classroom_id", req.ClassroomID),
		zap.String("mode", req.Mode),
		zap.Int("placed", resp.PlacedCount),
		zap.Int("unplaced", resp.UnplacedCount),
	)

	if s.cache != nil {
		if err := s.cache.InvalidateTimetables(ctx); err != nil {
			s.logger.Warn("invalidate timetable cache", zap.Error(err))
		}
	}

	return resp, nil
}

// placeTasks walks the grid in day/slot order and fills every free cell with
// the first pool task whose teacher is free there. The pool shrinks as tasks
// are placed; leftovers stay unplaced.
func (s *SchedulerService) placeTasks(pool []placementTask, index *teacherConflictIndex, occupiedCells map[cellKey]struct{}, classroomID string, year, term int) []models.Assignment {
	teachingSlots := s.grid.TeachingSlots()
	placed := make([]models.Assignment, 0, len(pool))

	// Guard against pathological loops: one visit per cell per pool entry is
	// already more work than a full placement needs.
	iterations := 0
	maxIterations := len(s.grid.Days) * len(teachingSlots) * (len(pool) + 1)

	for _, day := range s.grid.Days {
		for _, slot := range teachingSlots {
			if len(pool) == 0 {
				return placed
			}
			cell := cellKey{Day: day, SlotID: slot.ID}
			if _, taken := occupiedCells[cell]; taken {
				continue
			}

			for i, task := range pool {
				iterations++
				if iterations > maxIterations {
					s.logger.Warn("placement iteration cap reached", zap.String("classroom_id", classroomID))
					return placed
				}
				if task.TeacherID != nil && !index.isTeacherFree(*task.TeacherID, day, slot.ID) {
					continue
				}

				classroom := classroomID
				assignment := models.Assignment{
					ClassroomID:  &classroom,
					SubjectID:    &task.SubjectID,
					TeacherID:    task.TeacherID,
					DayOfWeek:    day,
					SlotID:       slot.ID,
					AcademicYear: year,
					Term:         term,
					ActivityType: models.ActivityStudy,
					MajorGroup:   task.MajorGroup,
					IsLocked:     false,
				}
				placed = append(placed, assignment)
				occupiedCells[cell] = struct{}{}
				if task.TeacherID != nil {
					index.markOccupied(*task.TeacherID, day, slot.ID)
				}
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
		}
	}

	return placed
}

// buildTaskPool expands requirements into one task per still-needed period.
// Existing rows for the same subject count against the demand, so re-running
// over a complete timetable yields an empty pool.
func buildTaskPool(requirements []models.CourseRequirement, existing []models.Assignment) []placementTask {
	subjectCounts := make(map[string]int, len(existing))
	for _, a := range existing {
		if a.SubjectID != nil {
			subjectCounts[*a.SubjectID]++
		}
	}

	var pool []placementTask
	for _, req := range requirements {
		remaining := req.PeriodsPerWeek - subjectCounts[req.SubjectID]
		for i := 0; i < remaining; i++ {
			pool = append(pool, placementTask{
				SubjectID:  req.SubjectID,
				TeacherID:  req.TeacherID,
				MajorGroup: req.MajorGroup,
			})
		}
	}
	return pool
}

// seedConflictIndex bulk-loads the term assignments of every teacher in the
// pool with a single query and builds the lookup set.
func (s *SchedulerService) seedConflictIndex(ctx context.Context, pool []placementTask, year, term int) (*teacherConflictIndex, error) {
	seen := make(map[string]struct{})
	var teacherIDs []string
	for _, task := range pool {
		if task.TeacherID == nil {
			continue
		}
		if _, ok := seen[*task.TeacherID]; ok {
			continue
		}
		seen[*task.TeacherID] = struct{}{}
		teacherIDs = append(teacherIDs, *task.TeacherID)
	}

	if len(teacherIDs) == 0 {
		return newTeacherConflictIndex(nil), nil
	}

	taken, err := s.assignments.ListByTeachers(ctx, teacherIDs, year, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load teacher conflicts")
	}
	return newTeacherConflictIndex(taken), nil
}

// resolveActiveTerm fills missing year/term from the active academic settings.
func resolveActiveTerm(ctx context.Context, settings schedulerSettingsReader, year, term int) (int, int, error) {
	if year > 0 && term > 0 {
		return year, term, nil
	}
	active, err := settings.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, appErrors.Clone(appErrors.ErrPreconditionFailed, "academic settings not configured")
		}
		return 0, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load academic settings")
	}
	if year <= 0 {
		year = active.AcademicYear
	}
	if term <= 0 {
		term = active.Term
	}
	return year, term, nil
}

func (s *SchedulerService) record(mode, status string, placed, unplaced int) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordSchedulerRun(mode, status, placed, unplaced)
}
