package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakchai-dev/timetable-api/internal/models"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
)

type teacherRepoStub struct {
	teacher     *models.Teacher
	findErr     error
	listResult  []models.Teacher
	listTotal   int
	listErr     error
	created     []*models.Teacher
	updated     []*models.Teacher
	deactivated []string
	writeErr    error
}

func (s *teacherRepoStub) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	return s.listResult, s.listTotal, nil
}

func (s *teacherRepoStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.teacher, nil
}

func (s *teacherRepoStub) Create(ctx context.Context, teacher *models.Teacher) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.created = append(s.created, teacher)
	return nil
}

func (s *teacherRepoStub) Update(ctx context.Context, teacher *models.Teacher) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.updated = append(s.updated, teacher)
	return nil
}

func (s *teacherRepoStub) Deactivate(ctx context.Context, id string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.deactivated = append(s.deactivated, id)
	return nil
}

func TestTeacherCreateDefaultsToActive(t *testing.T) {
	repo := &teacherRepoStub{}
	svc := NewTeacherService(repo, nil, nil)

	teacher, err := svc.Create(context.Background(), CreateTeacherRequest{
		FullName:   "  Somchai Prasert  ",
		Department: strPtrTest("science"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Somchai Prasert", teacher.FullName)
	assert.True(t, teacher.Active)
	require.Len(t, repo.created, 1)
}

func TestTeacherCreateRejectsMissingName(t *testing.T) {
	svc := NewTeacherService(&teacherRepoStub{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateTeacherRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestTeacherUpdateTogglesActive(t *testing.T) {
	repo := &teacherRepoStub{teacher: &models.Teacher{ID: "t1", FullName: "Somchai", Active: true}}
	svc := NewTeacherService(repo, nil, nil)

	inactive := false
	teacher, err := svc.Update(context.Background(), "t1", UpdateTeacherRequest{
		FullName: "Somchai Prasert",
		Active:   &inactive,
	})
	require.NoError(t, err)

	assert.Equal(t, "Somchai Prasert", teacher.FullName)
	assert.False(t, teacher.Active)
	require.Len(t, repo.updated, 1)
}

func TestTeacherGetUnknownID(t *testing.T) {
	repo := &teacherRepoStub{findErr: sql.ErrNoRows}
	svc := NewTeacherService(repo, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestTeacherDeactivateKeepsRow(t *testing.T) {
	repo := &teacherRepoStub{teacher: &models.Teacher{ID: "t1", FullName: "Somchai", Active: true}}
	svc := NewTeacherService(repo, nil, nil)

	require.NoError(t, svc.Deactivate(context.Background(), "t1"))
	assert.Equal(t, []string{"t1"}, repo.deactivated)
}

func TestTeacherListPropagatesRepoError(t *testing.T) {
	repo := &teacherRepoStub{listErr: assert.AnError}
	svc := NewTeacherService(repo, nil, nil)

	_, _, err := svc.List(context.Background(), models.TeacherFilter{})
	require.Error(t, err)
}
