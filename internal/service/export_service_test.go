package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakchai-dev/timetable-api/internal/models"
	"github.com/sakchai-dev/timetable-api/pkg/storage"
)

type exportAssignmentsStub struct {
	classroomRows []models.AssignmentDetail
	teacherRows   []models.AssignmentDetail
	err           error
}

func (s *exportAssignmentsStub) ListDetailByClassroom(ctx context.Context, classroomID string, year, term int) ([]models.AssignmentDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.classroomRows, nil
}

func (s *exportAssignmentsStub) ListDetailByTeacher(ctx context.Context, teacherID string, year, term int) ([]models.AssignmentDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.teacherRows, nil
}

func exportDetailRow(day string, slot int, subject, teacher string) models.AssignmentDetail {
	return models.AssignmentDetail{
		Assignment: models.Assignment{
			DayOfWeek:    day,
			SlotID:       slot,
			AcademicYear: 2026,
			Term:         1,
			ActivityType: models.ActivityStudy,
		},
		SubjectName: strPtrTest(subject),
		TeacherName: strPtrTest(teacher),
	}
}

func newExportServiceForTest(t *testing.T, assignments *exportAssignmentsStub) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewExportService(
		assignments,
		&classroomReaderStub{},
		&teacherRepoStub{teacher: &models.Teacher{ID: "t1", FullName: "Somchai"}},
		store,
		signer,
		ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour},
		nil, nil, nil,
	)
}

func classroomExportJob(format models.ExportFormat) *models.ExportJob {
	return &models.ExportJob{
		ID:    "job-1",
		Scope: models.ExportScopeClassroom,
		Params: models.ExportJobParams{
			TargetID:     "c1",
			AcademicYear: 2026,
			Term:         1,
			Format:       format,
		},
	}
}

func TestExportGenerateCSVOrdersByGrid(t *testing.T) {
	assignments := &exportAssignmentsStub{classroomRows: []models.AssignmentDetail{
		exportDetailRow(models.DayTuesday, 1, "science", "Anong"),
		exportDetailRow(models.DayMonday, 3, "math", "Somchai"),
		exportDetailRow(models.DayMonday, 1, "thai", "Malee"),
	}}
	svc := newExportServiceForTest(t, assignments)

	result, err := svc.Generate(context.Background(), classroomExportJob(models.ExportFormatCSV))
	require.NoError(t, err)

	assert.Equal(t, models.ExportFormatCSV, result.Format)
	assert.Contains(t, result.URL, "/api/v1/exports/download/")
	assert.NotEmpty(t, result.Token)

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	payload, err := io.ReadAll(file)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Day")
	// Monday rows come before Tuesday regardless of input order.
	assert.Contains(t, lines[1], "thai")
	assert.Contains(t, lines[2], "math")
	assert.Contains(t, lines[3], "science")
}

func TestExportGeneratePDF(t *testing.T) {
	assignments := &exportAssignmentsStub{classroomRows: []models.AssignmentDetail{
		exportDetailRow(models.DayMonday, 1, "math", "Somchai"),
	}}
	svc := newExportServiceForTest(t, assignments)

	result, err := svc.Generate(context.Background(), classroomExportJob(models.ExportFormatPDF))
	require.NoError(t, err)
	assert.Equal(t, models.ExportFormatPDF, result.Format)
	assert.True(t, strings.HasSuffix(result.RelativePath, ".pdf"))
}

func TestExportGenerateTeacherScope(t *testing.T) {
	row := exportDetailRow(models.DayFriday, 7, "math", "Somchai")
	row.ClassroomName = strPtrTest("M.4/1")
	assignments := &exportAssignmentsStub{teacherRows: []models.AssignmentDetail{row}}
	svc := newExportServiceForTest(t, assignments)

	job := classroomExportJob(models.ExportFormatCSV)
	job.Scope = models.ExportScopeTeacher
	job.Params.TargetID = "t1"

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	payload, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "Classroom")
	assert.Contains(t, string(payload), "M.4/1")
}

func TestExportGenerateTokenRoundTrip(t *testing.T) {
	assignments := &exportAssignmentsStub{classroomRows: []models.AssignmentDetail{
		exportDetailRow(models.DayMonday, 1, "math", "Somchai"),
	}}
	svc := newExportServiceForTest(t, assignments)

	result, err := svc.Generate(context.Background(), classroomExportJob(models.ExportFormatCSV))
	require.NoError(t, err)

	jobID, relPath, expiresAt, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, result.RelativePath, relPath)
	assert.True(t, expiresAt.After(time.Now()))
}

func TestExportGeneratePropagatesReadError(t *testing.T) {
	svc := newExportServiceForTest(t, &exportAssignmentsStub{err: assert.AnError})

	_, err := svc.Generate(context.Background(), classroomExportJob(models.ExportFormatCSV))
	require.Error(t, err)
}
