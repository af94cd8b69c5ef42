package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakchai-dev/timetable-api/internal/dto"
	"github.com/sakchai-dev/timetable-api/internal/models"
	"github.com/sakchai-dev/timetable-api/internal/repository"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
	"github.com/sakchai-dev/timetable-api/pkg/jobs"
)

type exportJobStoreStub struct {
	job       *models.ExportJob
	getErr    error
	createErr error
	queued    []models.ExportJob
	created   []*models.ExportJob
	updates   []repository.UpdateExportJobParams
	updateErr error
}

func (s *exportJobStoreStub) Create(ctx context.Context, job *models.ExportJob) error {
	if s.createErr != nil {
		return s.createErr
	}
	if job.ID == "" {
		job.ID = "job-1"
	}
	s.created = append(s.created, job)
	return nil
}

func (s *exportJobStoreStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.job, nil
}

func (s *exportJobStoreStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, params)
	return nil
}

func (s *exportJobStoreStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	return s.queued, nil
}

type queueStub struct {
	enqueued []jobs.Job
	err      error
}

func (s *queueStub) Enqueue(job jobs.Job) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, job)
	return nil
}

type generatorStub struct {
	result *ExportResult
	err    error
	calls  int
}

func (s *generatorStub) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func exportRequest() dto.ExportRequest {
	return dto.ExportRequest{
		Scope:    models.ExportScopeClassroom,
		TargetID: "c1",
		Format:   models.ExportFormatCSV,
	}
}

func TestCreateJobQueuesWork(t *testing.T) {
	store := &exportJobStoreStub{}
	queue := &queueStub{}
	svc := NewExportJobService(store, &settingsReaderStub{}, queue, nil, nil, nil, ExportJobConfig{})

	resp, err := svc.CreateJob(context.Background(), exportRequest(), "u1")
	require.NoError(t, err)

	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, store.created, 1)
	assert.Equal(t, 2026, store.created[0].Params.AcademicYear)
	assert.Equal(t, "u1", store.created[0].CreatedBy)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)
}

func TestCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := &exportJobStoreStub{}
	queue := &queueStub{err: assert.AnError}
	svc := NewExportJobService(store, &settingsReaderStub{}, queue, nil, nil, nil, ExportJobConfig{})

	_, err := svc.CreateJob(context.Background(), exportRequest(), "u1")
	require.Error(t, err)

	require.Len(t, store.updates, 1)
	require.NotNil(t, store.updates[0].Status)
	assert.Equal(t, models.ExportStatusFailed, *store.updates[0].Status)
}

func TestGetStatusEnforcesOwnershipForTeachers(t *testing.T) {
	store := &exportJobStoreStub{job: &models.ExportJob{ID: "job-1", Status: models.ExportStatusFinished, CreatedBy: "owner"}}
	svc := NewExportJobService(store, &settingsReaderStub{}, &queueStub{}, nil, nil, nil, ExportJobConfig{})

	_, err := svc.GetStatus(context.Background(), "job-1", "someone-else", models.RoleTeacher)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	status, err := svc.GetStatus(context.Background(), "job-1", "someone-else", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, status.Status)
}

func TestGetStatusUnknownJob(t *testing.T) {
	store := &exportJobStoreStub{getErr: sql.ErrNoRows}
	svc := NewExportJobService(store, &settingsReaderStub{}, &queueStub{}, nil, nil, nil, ExportJobConfig{})

	_, err := svc.GetStatus(context.Background(), "missing", "u1", models.RoleAdmin)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRecoverPendingJobsRequeues(t *testing.T) {
	store := &exportJobStoreStub{queued: []models.ExportJob{
		{ID: "job-1", Scope: models.ExportScopeClassroom},
		{ID: "job-2", Scope: models.ExportScopeTeacher},
	}}
	queue := &queueStub{}
	svc := NewExportJobService(store, &settingsReaderStub{}, queue, nil, nil, nil, ExportJobConfig{})

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.enqueued, 2)
	assert.Equal(t, "job-2", queue.enqueued[1].ID)
}

func TestExportWorkerMarksFinished(t *testing.T) {
	store := &exportJobStoreStub{job: &models.ExportJob{ID: "job-1", Scope: models.ExportScopeClassroom, Status: models.ExportStatusQueued}}
	gen := &generatorStub{result: &ExportResult{
		URL:       "/api/v1/exports/download/tok",
		Format:    models.ExportFormatCSV,
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	worker := NewExportWorker(store, gen, 3, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 0})
	require.NoError(t, err)

	require.Len(t, store.updates, 2)
	require.NotNil(t, store.updates[1].Status)
	assert.Equal(t, models.ExportStatusFinished, *store.updates[1].Status)
	require.NotNil(t, store.updates[1].ResultURL)
	assert.Equal(t, "/api/v1/exports/download/tok", *store.updates[1].ResultURL)
}

func TestExportWorkerRequeuesUntilRetriesExhausted(t *testing.T) {
	store := &exportJobStoreStub{job: &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued}}
	gen := &generatorStub{err: assert.AnError}
	worker := NewExportWorker(store, gen, 3, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	require.Len(t, store.updates, 2)
	require.NotNil(t, store.updates[1].Status)
	assert.Equal(t, models.ExportStatusQueued, *store.updates[1].Status)

	store.updates = nil
	err = worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 3})
	require.Error(t, err)
	require.Len(t, store.updates, 2)
	require.NotNil(t, store.updates[1].Status)
	assert.Equal(t, models.ExportStatusFailed, *store.updates[1].Status)
	assert.NotNil(t, store.updates[1].FinishedAt)
}
