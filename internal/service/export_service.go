package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sakchai-dev/timetable-api/internal/models"
	"github.com/sakchai-dev/timetable-api/pkg/export"
	"github.com/sakchai-dev/timetable-api/pkg/storage"
)

type exportAssignmentReader interface {
	ListDetailByClassroom(ctx context.Context, classroomID string, year, term int) ([]models.AssignmentDetail, error)
	ListDetailByTeacher(ctx context.Context, teacherID string, year, term int) ([]models.AssignmentDetail, error)
}

type exportClassroomReader interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

type exportTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders timetable grids into downloadable files and persists
// them behind signed URLs.
type ExportService struct {
	assignments exportAssignmentReader
	classrooms  exportClassroomReader
	teachers    exportTeacherReader
	storage     fileStorage
	csv         csvRenderer
	pdf         pdfRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	grid        models.TimeGrid
	cfg         ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(
	assignments exportAssignmentReader,
	classrooms exportClassroomReader,
	teachers exportTeacherReader,
	storage fileStorage,
	signer *storage.SignedURLSigner,
	cfg ExportConfig,
	logger *zap.Logger,
	csv csvRenderer,
	pdf pdfRenderer,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		assignments: assignments,
		classrooms:  classrooms,
		teachers:    teachers,
		storage:     storage,
		csv:         csv,
		pdf:         pdf,
		signer:      signer,
		logger:      logger,
		grid:        models.DefaultTimeGrid(),
		cfg:         cfg,
	}
}

// Generate builds the dataset for a job and stores the rendered file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/exports/download/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	target := sanitizeFilename(job.Params.TargetID)
	return fmt.Sprintf("timetable_%s_%s_%d_%d_%s.%s", job.Scope, target, job.Params.AcademicYear, job.Params.Term, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Scope {
	case models.ExportScopeClassroom:
		return s.buildClassroomDataset(ctx, job.Params)
	case models.ExportScopeTeacher:
		return s.buildTeacherDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export scope %s", job.Scope)
	}
}

func (s *ExportService) buildClassroomDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	classroom, err := s.classrooms.FindByID(ctx, params.TargetID)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load classroom: %w", err)
	}
	rows, err := s.assignments.ListDetailByClassroom(ctx, params.TargetID, params.AcademicYear, params.Term)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load classroom timetable: %w", err)
	}

	headers := []string{"Day", "Period", "Time", "Subject", "Teacher", "Type", "Note"}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, cell := range s.orderedCells(rows) {
		slot, _ := s.grid.SlotByID(cell.SlotID)
		dataRows = append(dataRows, map[string]string{
			"Day":     cell.DayOfWeek,
			"Period":  fmt.Sprintf("%d", cell.SlotID),
			"Time":    fmt.Sprintf("%s-%s", slot.StartTime, slot.EndTime),
			"Subject": exportDeref(cell.SubjectName),
			"Teacher": exportDeref(cell.TeacherName),
			"Type":    string(cell.ActivityType),
			"Note":    exportDeref(cell.Note),
		})
	}
	dataset := export.Dataset{Headers: headers, Rows: dataRows}
	title := fmt.Sprintf("Timetable %s %d/%d", classroom.Name, params.AcademicYear, params.Term)
	return dataset, title, nil
}

func (s *ExportService) buildTeacherDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	teacher, err := s.teachers.FindByID(ctx, params.TargetID)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load teacher: %w", err)
	}
	rows, err := s.assignments.ListDetailByTeacher(ctx, params.TargetID, params.AcademicYear, params.Term)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load teacher timetable: %w", err)
	}

	headers := []string{"Day", "Period", "Time", "Classroom", "Subject", "Type", "Note"}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, cell := range s.orderedCells(rows) {
		slot, _ := s.grid.SlotByID(cell.SlotID)
		dataRows = append(dataRows, map[string]string{
			"Day":       cell.DayOfWeek,
			"Period":    fmt.Sprintf("%d", cell.SlotID),
			"Time":      fmt.Sprintf("%s-%s", slot.StartTime, slot.EndTime),
			"Classroom": exportDeref(cell.ClassroomName),
			"Subject":   exportDeref(cell.SubjectName),
			"Type":      string(cell.ActivityType),
			"Note":      exportDeref(cell.Note),
		})
	}
	dataset := export.Dataset{Headers: headers, Rows: dataRows}
	title := fmt.Sprintf("Teaching Schedule %s %d/%d", teacher.FullName, params.AcademicYear, params.Term)
	return dataset, title, nil
}

// orderedCells sorts rows into day then period order so exports read the way
// the printed grid does.
func (s *ExportService) orderedCells(rows []models.AssignmentDetail) []models.AssignmentDetail {
	byCell := make(map[cellKey][]models.AssignmentDetail, len(rows))
	for _, row := range rows {
		key := cellKey{Day: row.DayOfWeek, SlotID: row.SlotID}
		byCell[key] = append(byCell[key], row)
	}
	ordered := make([]models.AssignmentDetail, 0, len(rows))
	for _, day := range s.grid.Days {
		for _, slot := range s.grid.TeachingSlots() {
			ordered = append(ordered, byCell[cellKey{Day: day, SlotID: slot.ID}]...)
		}
	}
	return ordered
}

func exportDeref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
