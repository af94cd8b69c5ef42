package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakchai-dev/timetable-api/internal/dto"
	"github.com/sakchai-dev/timetable-api/internal/models"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
)

type requirementReaderStub struct {
	requirements []models.CourseRequirement
	err          error
}

func (r requirementReaderStub) ListByClassroomTerm(ctx context.Context, classroomID string, year, term int) ([]models.CourseRequirement, error) {
	return r.requirements, r.err
}

type schedulerStoreStub struct {
	existing       []models.Assignment
	teacherRows    []models.Assignment
	unlockedCount  int
	deletedCount   int64
	bulkErr        error
	created        [][]models.Assignment
	deleteCalls    int
	listByTeachers [][]string
}

func (s *schedulerStoreStub) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	return s.existing, nil
}

func (s *schedulerStoreStub) ListByTeachers(ctx context.Context, teacherIDs []string, year, term int) ([]models.Assignment, error) {
	s.listByTeachers = append(s.listByTeachers, teacherIDs)
	return s.teacherRows, nil
}

func (s *schedulerStoreStub) BulkCreate(ctx context.Context, assignments []models.Assignment) error {
	if s.bulkErr != nil {
		return s.bulkErr
	}
	s.created = append(s.created, assignments)
	return nil
}

func (s *schedulerStoreStub) DeleteUnlockedByClassroom(ctx context.Context, classroomID string, year, term int) (int64, error) {
	s.deleteCalls++
	return s.deletedCount, nil
}

func (s *schedulerStoreStub) CountUnlockedByClassroom(ctx context.Context, classroomID string, year, term int) (int, error) {
	return s.unlockedCount, nil
}

type classroomReaderStub struct {
	classroom *models.Classroom
	err       error
}

func (c classroomReaderStub) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.classroom != nil {
		return c.classroom, nil
	}
	return &models.Classroom{ID: id, Name: "M.4/1"}, nil
}

type settingsReaderStub struct {
	settings *models.AcademicSettings
	err      error
}

func (s settingsReaderStub) Get(ctx context.Context) (*models.AcademicSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.settings != nil {
		return s.settings, nil
	}
	return &models.AcademicSettings{AcademicYear: 2026, Term: 1}, nil
}

type invalidatorStub struct {
	calls int
}

func (i *invalidatorStub) InvalidateTimetables(ctx context.Context) error {
	i.calls++
	return nil
}

type runRecorderStub struct {
	mode     string
	status   string
	placed   int
	unplaced int
	calls    int
}

func (r *runRecorderStub) RecordSchedulerRun(mode, status string, placed, unplaced int) {
	r.mode = mode
	r.status = status
	r.placed = placed
	r.unplaced = unplaced
	r.calls++
}

func strPtrTest(s string) *string { return &s }

func newSchedulerForTest(reqs requirementReaderStub, store *schedulerStoreStub) (*SchedulerService, *invalidatorStub, *runRecorderStub) {
	cache := &invalidatorStub{}
	recorder := &runRecorderStub{}
	svc := NewSchedulerService(reqs, store, classroomReaderStub{}, settingsReaderStub{}, cache, recorder, nil, nil)
	return svc, cache, recorder
}

func TestSchedulerRunPlacesAllPeriods(t *testing.T) {
	reqs := requirementReaderStub{requirements: []models.CourseRequirement{
		{ClassroomID: "class-1", SubjectID: "math", TeacherID: strPtrTest("t1"), PeriodsPerWeek: 3},
		{ClassroomID: "class-1", SubjectID: "art", PeriodsPerWeek: 2},
	}}
	store := &schedulerStoreStub{}
	svc, cache, recorder := newSchedulerForTest(reqs, store)

	resp, err := svc.Run(context.Background(), dto.AutoScheduleRequest{ClassroomID: "class-1", Mode: dto.ModeFill})
	require.NoError(t, err)

	assert.Equal(t, 5, resp.TotalTasks)
	assert.Equal(t, 5, resp.PlacedCount)
	assert.Equal(t, 0, resp.UnplacedCount)
	assert.Equal(t, 2026, resp.AcademicYear)
	assert.Equal(t, 1, resp.Term)

	require.Len(t, store.created, 1)
	placed := store.created[0]
	require.Len(t, placed, 5)
	assert.Equal(t, models.DayMonday, placed[0].DayOfWeek)
	assert.Equal(t, 1, placed[0].SlotID)
	for _, a := range placed {
		assert.NotEqual(t, 0, a.SlotID, "breaks must never receive assignments")
		assert.Equal(t, models.ActivityStudy, a.ActivityType)
		assert.False(t, a.IsLocked)
	}

	assert.Equal(t, 1, cache.calls)
	assert.Equal(t, "success", recorder.status)
	assert.Equal(t, 5, recorder.placed)
}

func TestSchedulerRunResetRequiresConfirmation(t *testing.T) {
	reqs := requirementReaderStub{requirements: []models.CourseRequirement{
		{ClassroomID: "class-1", SubjectID: "math", PeriodsPerWeek: 2},
	}}
	store := &schedulerStoreStub{unlockedCount: 12}
	svc, cache, _ := newSchedulerForTest(reqs, store)

	resp, err := svc.Run(context.Background(), dto.AutoScheduleRequest{ClassroomID: "class-1", Mode: dto.ModeReset})
	require.NoError(t, err)

	assert.True(t, resp.RequiresConfirmation)
	assert.Equal(t, 12, resp.RowsToDelete)
	assert.Equal(t, 0, store.deleteCalls)
	assert.Empty(t, store.created)
	assert.Equal(t, 0, cache.calls)
}

func TestSchedulerRunResetConfirmedDeletesUnlocked(t *testing.T) {
	reqs := requirementReaderStub{requirements: []models.CourseRequirement{
		{ClassroomID: "class-1", SubjectID: "math", PeriodsPerWeek: 2},
	}}
	store := &schedulerStoreStub{deletedCount: 7}
	svc, _, _ := newSchedulerForTest(reqs, store)

	resp, err := svc.Run(context.Background(), dto.AutoScheduleRequest{ClassroomID: "class-1", Mode: dto.ModeReset, Confirm: true})
	require.NoError(t, err)

	assert.Equal(t, 1, store.deleteCalls)
	assert.Equal(t, 7, resp.DeletedCount)
	assert.Equal(t, 2, resp.PlacedCount)
}

func TestSchedulerRunNoRequirements(t *testing.T) {
	store := &schedulerStoreStub{}
	svc, _, _ := newSchedulerForTest(requirementReaderStub{}, store)

	_, err := svc.Run(context.Background(), dto.AutoScheduleRequest{ClassroomID: "class-1", Mode: dto.ModeReset, Confirm: true})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNoRequirements.Code, appErr.Code)
	assert.Equal(t, 0, store.deleteCalls, "empty requirement sets must fail before any deletion")
}

func TestSchedulerRunFillSkipsOccupiedCells(t *testing.T) {
	reqs := requirementReaderStub{requirements: []models.CourseRequirement{
		{ClassroomID: "class-1", SubjectID: "math", PeriodsPerWeek: 2},
	}}
	locked := models.Assignment{
		ClassroomID:  strPtrTest("class-1"),
		SubjectID:    strPtrTest("assembly"),
		DayOfWeek:    models.DayMonday,
		SlotID:       1,
		ActivityType: models.ActivityActivity,
		IsLocked:     true,
	}
	store := &schedulerStoreStub{existing: []models.Assignment{locked}}
	svc, _, _ := newSchedulerForTest(reqs, store)

	resp, err := svc.Run(context.Background(), dto.AutoScheduleRequest{ClassroomID: "class-1", Mode: dto.ModeFill})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.PlacedCount)
	require.Len(t, store.created, 1)
	for _, a := range store.created[0] {
		taken := a.DayOfWeek == models.DayMonday && a.SlotID == 1
		assert.False(t, taken, "occupied cell must not be double-filled")
	}
}

func TestSchedulerRunExistingPeriodsReduceDemand(t *testing.T) {
	reqs := requirementReaderStub{requirements: []models.CourseRequirement{
		{ClassroomID: "class-1", SubjectID: "math", PeriodsPerWeek: 3},
	}}
	existing := []models.Assignment{
		{ClassroomID: strPtrTest("class-1"), SubjectID: strPtrTest("math"), DayOfWeek: models.DayMonday, SlotID: 1},
		{ClassroomID: strPtrTest("class-1"), SubjectID: strPtrTest("math"), DayOfWeek: models.DayMonday, SlotID: 2},
		{ClassroomID: strPtrTest("class-1"), SubjectID: strPtrTest("math"), DayOfWeek: models.DayMonday, SlotID: 3},
	}
	store := &schedulerStoreStub{existing: existing}
	svc, _, recorder := newSchedulerForTest(reqs, store)

	resp, err := svc.Run(context.Background(), dto.AutoScheduleRequest{ClassroomID: "class-1", Mode: dto.ModeFill})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.TotalTasks, "fully satisfied demand yields an empty pool")
	assert.Equal(t, 0, resp.PlacedCount)
	assert.Empty(t, store.created)
	assert.Equal(t, "noop", recorder.status)
}

func TestSchedulerRunBookedTeacherStaysUnplaced(t *testing.T) {
	grid := models.DefaultTimeGrid()
	var booked []models.Assignment
	for _, day := range grid.Days {
		for _, slot := range grid.TeachingSlots() {
			booked = append(booked, models.Assignment{
				ClassroomID: strPtrTest("class-2"),
				TeacherID:   strPtrTest("t1"),
				DayOfWeek:   day,
				SlotID:      slot.ID,
			})
		}
	}
	reqs := requirementReaderStub{requirements: []models.CourseRequirement{
		{ClassroomID: "class-1", SubjectID: "math", TeacherID: strPtrTest("t1"), PeriodsPerWeek: 2},
		{ClassroomID: "class-1", SubjectID: "art", PeriodsPerWeek: 1},
	}}
	store := &schedulerStoreStub{teacherRows: booked}
	svc, _, _ := newSchedulerForTest(reqs, store)

	resp, err := svc.Run(context.Background(), dto.AutoScheduleRequest{ClassroomID: "class-1", Mode: dto.ModeFill})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalTasks)
	assert.Equal(t, 1, resp.PlacedCount)
	assert.Equal(t, 2, resp.UnplacedCount)
	require.Len(t, store.created, 1)
	require.Len(t, store.created[0], 1)
	assert.Equal(t, "art", *store.created[0][0].SubjectID)

	require.Len(t, store.listByTeachers, 1)
	assert.Equal(t, []string{"t1"}, store.listByTeachers[0])
}

func TestSchedulerRunUnknownClassroom(t *testing.T) {
	store := &schedulerStoreStub{}
	cache := &invalidatorStub{}
	svc := NewSchedulerService(requirementReaderStub{}, store, classroomReaderStub{err: sql.ErrNoRows}, settingsReaderStub{}, cache, nil, nil, nil)

	_, err := svc.Run(context.Background(), dto.AutoScheduleRequest{ClassroomID: "missing", Mode: dto.ModeFill})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSchedulerRunPersistFailureRecordsError(t *testing.T) {
	reqs := requirementReaderStub{requirements: []models.CourseRequirement{
		{ClassroomID: "class-1", SubjectID: "math", PeriodsPerWeek: 1},
	}}
	store := &schedulerStoreStub{bulkErr: assert.AnError}
	svc, cache, recorder := newSchedulerForTest(reqs, store)

	_, err := svc.Run(context.Background(), dto.AutoScheduleRequest{ClassroomID: "class-1", Mode: dto.ModeFill})
	require.Error(t, err)
	assert.Equal(t, "error", recorder.status)
	assert.Equal(t, 0, cache.calls)
}

func TestBuildTaskPoolKeepsRequirementOrder(t *testing.T) {
	requirements := []models.CourseRequirement{
		{SubjectID: "math", PeriodsPerWeek: 2},
		{SubjectID: "art", PeriodsPerWeek: 1},
	}
	pool := buildTaskPool(requirements, nil)
	require.Len(t, pool, 3)
	assert.Equal(t, "math", pool[0].SubjectID)
	assert.Equal(t, "math", pool[1].SubjectID)
	assert.Equal(t, "art", pool[2].SubjectID)
}
