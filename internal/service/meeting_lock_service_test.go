package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakchai-dev/timetable-api/internal/dto"
	"github.com/sakchai-dev/timetable-api/internal/models"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
)

type meetingStoreStub struct {
	deleted     int64
	bulkErr     error
	created     [][]models.Assignment
	deleteCalls int
	deletedIDs  []string
}

func (s *meetingStoreStub) DeleteBySlotForTeachers(ctx context.Context, teacherIDs []string, day string, slotID, year, term int) (int64, error) {
	s.deleteCalls++
	s.deletedIDs = teacherIDs
	return s.deleted, nil
}

func (s *meetingStoreStub) BulkCreate(ctx context.Context, assignments []models.Assignment) error {
	if s.bulkErr != nil {
		return s.bulkErr
	}
	s.created = append(s.created, assignments)
	return nil
}

type teacherDirectoryStub struct {
	teacher       *models.Teacher
	departmentIDs []string
	activeIDs     []string
}

func (d teacherDirectoryStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if d.teacher != nil {
		return d.teacher, nil
	}
	return &models.Teacher{ID: id, FullName: "Teacher", Active: true}, nil
}

func (d teacherDirectoryStub) ListIDsByDepartment(ctx context.Context, department string) ([]string, error) {
	return d.departmentIDs, nil
}

func (d teacherDirectoryStub) ListActiveIDs(ctx context.Context) ([]string, error) {
	return d.activeIDs, nil
}

func newMeetingForTest(store *meetingStoreStub, directory teacherDirectoryStub) (*MeetingLockService, *invalidatorStub) {
	cache := &invalidatorStub{}
	svc := NewMeetingLockService(store, directory, settingsReaderStub{}, cache, nil, nil)
	return svc, cache
}

func TestMeetingLockSelfScope(t *testing.T) {
	store := &meetingStoreStub{deleted: 1}
	svc, cache := newMeetingForTest(store, teacherDirectoryStub{})

	note := "department planning"
	resp, err := svc.Lock(context.Background(), dto.MeetingLockRequest{
		Scope:     ScopeSelf,
		TeacherID: "t1",
		DayOfWeek: models.DayFriday,
		SlotID:    6,
		Note:      &note,
		Confirm:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.TeachersAffected)
	assert.Equal(t, 1, resp.DeletedCount)
	assert.Equal(t, 1, resp.LockedCount)
	assert.Equal(t, []string{"t1"}, store.deletedIDs)

	require.Len(t, store.created, 1)
	row := store.created[0][0]
	assert.Equal(t, models.ActivityMeeting, row.ActivityType)
	assert.True(t, row.IsLocked)
	assert.Nil(t, row.ClassroomID)
	assert.Nil(t, row.SubjectID)
	assert.Equal(t, "department planning", *row.Note)
	assert.Equal(t, 1, cache.calls)
}

func TestMeetingLockPreviewCountsScope(t *testing.T) {
	store := &meetingStoreStub{}
	directory := teacherDirectoryStub{
		teacher:       &models.Teacher{ID: "t1", Department: strPtrTest("science")},
		departmentIDs: []string{"t1", "t2", "t3"},
	}
	svc, _ := newMeetingForTest(store, directory)

	resp, err := svc.Lock(context.Background(), dto.MeetingLockRequest{
		Scope:     ScopeDepartment,
		TeacherID: "t1",
		DayOfWeek: models.DayMonday,
		SlotID:    1,
	})
	require.NoError(t, err)

	assert.True(t, resp.RequiresConfirmation)
	assert.Equal(t, 3, resp.TeachersAffected)
	assert.Equal(t, 0, store.deleteCalls)
	assert.Empty(t, store.created)
}

func TestMeetingLockAllScope(t *testing.T) {
	store := &meetingStoreStub{deleted: 5}
	directory := teacherDirectoryStub{activeIDs: []string{"t1", "t2", "t3", "t4"}}
	svc, _ := newMeetingForTest(store, directory)

	resp, err := svc.Lock(context.Background(), dto.MeetingLockRequest{
		Scope:     ScopeAll,
		TeacherID: "t1",
		DayOfWeek: models.DayMonday,
		SlotID:    1,
		Confirm:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, resp.TeachersAffected)
	assert.Equal(t, 4, resp.LockedCount)
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, store.deletedIDs)
}

func TestMeetingLockDepartmentMissing(t *testing.T) {
	store := &meetingStoreStub{}
	directory := teacherDirectoryStub{teacher: &models.Teacher{ID: "t1"}}
	svc, _ := newMeetingForTest(store, directory)

	_, err := svc.Lock(context.Background(), dto.MeetingLockRequest{
		Scope:     ScopeDepartment,
		TeacherID: "t1",
		DayOfWeek: models.DayMonday,
		SlotID:    1,
		Confirm:   true,
	})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestMeetingLockInsertFailureReportsGap(t *testing.T) {
	store := &meetingStoreStub{bulkErr: assert.AnError}
	svc, cache := newMeetingForTest(store, teacherDirectoryStub{})

	_, err := svc.Lock(context.Background(), dto.MeetingLockRequest{
		Scope:     ScopeSelf,
		TeacherID: "t1",
		DayOfWeek: models.DayMonday,
		SlotID:    1,
		Confirm:   true,
	})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrPartialWrite.Code, appErr.Code)
	assert.Equal(t, 0, cache.calls)
}

func TestMeetingFreeDeletesWithoutReplacement(t *testing.T) {
	store := &meetingStoreStub{deleted: 2}
	directory := teacherDirectoryStub{
		teacher:       &models.Teacher{ID: "t1", Department: strPtrTest("math")},
		departmentIDs: []string{"t1", "t2"},
	}
	svc, cache := newMeetingForTest(store, directory)

	resp, err := svc.Free(context.Background(), dto.MeetingFreeRequest{
		Scope:     ScopeDepartment,
		TeacherID: "t1",
		DayOfWeek: models.DayThursday,
		SlotID:    4,
		Confirm:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.DeletedCount)
	assert.Equal(t, 0, resp.LockedCount)
	assert.Empty(t, store.created)
	assert.Equal(t, 1, cache.calls)
}
