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

type globalStoreStub struct {
	deleted    int64
	deleteErr  error
	bulkErr    error
	created    [][]models.Assignment
	slotWipes  int
}

func (s *globalStoreStub) DeleteBySlot(ctx context.Context, day string, slotID, year, term int) (int64, error) {
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	s.slotWipes++
	return s.deleted, nil
}

func (s *globalStoreStub) BulkCreate(ctx context.Context, assignments []models.Assignment) error {
	if s.bulkErr != nil {
		return s.bulkErr
	}
	s.created = append(s.created, assignments)
	return nil
}

type classroomListerStub struct {
	classrooms []models.Classroom
}

func (c classroomListerStub) ListAll(ctx context.Context) ([]models.Classroom, error) {
	return c.classrooms, nil
}

func (c classroomListerStub) Count(ctx context.Context) (int, error) {
	return len(c.classrooms), nil
}

func globalRequest() dto.GlobalPlacementRequest {
	return dto.GlobalPlacementRequest{
		SubjectID: "scouts",
		DayOfWeek: models.DayWednesday,
		SlotID:    7,
	}
}

func newGlobalForTest(store *globalStoreStub, classrooms []models.Classroom) (*GlobalPlacementService, *invalidatorStub) {
	cache := &invalidatorStub{}
	svc := NewGlobalPlacementService(store, classroomListerStub{classrooms: classrooms}, settingsReaderStub{}, cache, nil, nil)
	return svc, cache
}

func threeClassrooms() []models.Classroom {
	return []models.Classroom{
		{ID: "class-1", Name: "M.4/1"},
		{ID: "class-2", Name: "M.4/2"},
		{ID: "class-3", Name: "M.4/3"},
	}
}

func TestGlobalPlacementPreview(t *testing.T) {
	store := &globalStoreStub{}
	svc, cache := newGlobalForTest(store, threeClassrooms())

	resp, err := svc.Place(context.Background(), globalRequest())
	require.NoError(t, err)

	assert.True(t, resp.RequiresConfirmation)
	assert.Equal(t, 3, resp.ClassroomsAffected)
	assert.Equal(t, 0, store.slotWipes)
	assert.Empty(t, store.created)
	assert.Equal(t, 0, cache.calls)
}

func TestGlobalPlacementConfirmedWritesEveryClassroom(t *testing.T) {
	store := &globalStoreStub{deleted: 4}
	svc, cache := newGlobalForTest(store, threeClassrooms())

	req := globalRequest()
	req.Confirm = true
	req.DeleteOld = true

	resp, err := svc.Place(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.ClassroomsAffected)
	assert.Equal(t, 4, resp.DeletedCount)
	assert.Equal(t, 3, resp.PlacedCount)
	assert.Equal(t, 1, store.slotWipes)

	require.Len(t, store.created, 1)
	for _, a := range store.created[0] {
		assert.True(t, a.IsLocked, "global placements must be locked against auto-scheduling")
		assert.Equal(t, models.ActivityActivity, a.ActivityType)
		assert.Equal(t, models.DayWednesday, a.DayOfWeek)
		assert.Equal(t, 7, a.SlotID)
	}
	assert.Equal(t, 1, cache.calls)
}

func TestGlobalPlacementKeepsSlotWithoutDeleteOld(t *testing.T) {
	store := &globalStoreStub{}
	svc, _ := newGlobalForTest(store, threeClassrooms())

	req := globalRequest()
	req.Confirm = true

	resp, err := svc.Place(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, store.slotWipes)
	assert.Equal(t, 0, resp.DeletedCount)
	assert.Equal(t, 3, resp.PlacedCount)
}

func TestGlobalPlacementInsertFailureAfterDeleteReportsGap(t *testing.T) {
	store := &globalStoreStub{deleted: 2, bulkErr: assert.AnError}
	svc, cache := newGlobalForTest(store, threeClassrooms())

	req := globalRequest()
	req.Confirm = true
	req.DeleteOld = true

	_, err := svc.Place(context.Background(), req)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrPartialWrite.Code, appErr.Code)
	assert.Equal(t, 0, cache.calls)
}

func TestGlobalPlacementNoClassrooms(t *testing.T) {
	store := &globalStoreStub{}
	svc, _ := newGlobalForTest(store, nil)

	req := globalRequest()
	req.Confirm = true

	_, err := svc.Place(context.Background(), req)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}
