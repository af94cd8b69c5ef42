package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sakchai-dev/timetable-api/internal/dto"
	"github.com/sakchai-dev/timetable-api/internal/models"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
)

const timetableCachePattern = "timetable:*"

type timetableAssignmentReader interface {
	ListDetailByClassroom(ctx context.Context, classroomID string, year, term int) ([]models.AssignmentDetail, error)
	ListDetailByTeacher(ctx context.Context, teacherID string, year, term int) ([]models.AssignmentDetail, error)
}

type timetableTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// TimetableService renders weekly grids for classrooms and teachers, with a
// Redis cache in front of the joined reads.
type TimetableService struct {
	assignments timetableAssignmentReader
	classrooms  schedulerClassroomReader
	teachers    timetableTeacherReader
	settings    schedulerSettingsReader
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
	grid        models.TimeGrid
}

// NewTimetableService wires timetable view dependencies.
func NewTimetableService(
	assignments timetableAssignmentReader,
	classrooms schedulerClassroomReader,
	teachers timetableTeacherReader,
	settings schedulerSettingsReader,
	cache *CacheService,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *TimetableService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		assignments: assignments,
		classrooms:  classrooms,
		teachers:    teachers,
		settings:    settings,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
		grid:        models.DefaultTimeGrid(),
	}
}

// ClassroomGrid returns the weekly grid for one classroom.
func (s *TimetableService) ClassroomGrid(ctx context.Context, classroomID string, year, term int) (*dto.TimetableGridResponse, error) {
	if classroomID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classroom id required")
	}
	year, term, err := resolveActiveTerm(ctx, s.settings, year, term)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("timetable:classroom:%s:%d:%d", classroomID, year, term)
	var cached dto.TimetableGridResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		cached.Cached = true
		return &cached, nil
	}

	if _, err := s.classrooms.FindByID(ctx, classroomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load classroom")
	}

	rows, err := s.assignments.ListDetailByClassroom(ctx, classroomID, year, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load classroom timetable")
	}

	resp := s.buildGrid(rows, year, term)
	if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
		s.logger.Warn("cache timetable view", zap.String("key", key), zap.Error(err))
	}
	return resp, nil
}

// TeacherGrid returns the weekly grid for one teacher across classrooms.
func (s *TimetableService) TeacherGrid(ctx context.Context, teacherID string, year, term int) (*dto.TimetableGridResponse, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id required")
	}
	year, term, err := resolveActiveTerm(ctx, s.settings, year, term)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("timetable:teacher:%s:%d:%d", teacherID, year, term)
	var cached dto.TimetableGridResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		cached.Cached = true
		return &cached, nil
	}

	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load teacher")
	}

	rows, err := s.assignments.ListDetailByTeacher(ctx, teacherID, year, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load teacher timetable")
	}

	resp := s.buildGrid(rows, year, term)
	if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
		s.logger.Warn("cache timetable view", zap.String("key", key), zap.Error(err))
	}
	return resp, nil
}

// InvalidateTimetables drops every cached grid. Called after any mutation.
func (s *TimetableService) InvalidateTimetables(ctx context.Context) error {
	return s.cache.Invalidate(ctx, timetableCachePattern)
}

// buildGrid groups rows into day/slot cells ordered the way the grid reads.
func (s *TimetableService) buildGrid(rows []models.AssignmentDetail, year, term int) *dto.TimetableGridResponse {
	byCell := make(map[cellKey][]models.AssignmentDetail, len(rows))
	for _, row := range rows {
		key := cellKey{Day: row.DayOfWeek, SlotID: row.SlotID}
		byCell[key] = append(byCell[key], row)
	}

	cells := make([]dto.TimetableCell, 0, len(byCell))
	for _, day := range s.grid.Days {
		for _, slot := range s.grid.TeachingSlots() {
			entries, ok := byCell[cellKey{Day: day, SlotID: slot.ID}]
			if !ok {
				continue
			}
			cells = append(cells, dto.TimetableCell{DayOfWeek: day, SlotID: slot.ID, Entries: entries})
		}
	}

	return &dto.TimetableGridResponse{
		Grid:         s.grid,
		AcademicYear: year,
		Term:         term,
		Cells:        cells,
	}
}
