package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sakchai-dev/timetable-api/internal/models"
)

const requirementColumns = "id, classroom_id, subject_id, teacher_id, periods_per_week, major_group, academic_year, term, created_at, updated_at"

// RequirementRepository provides persistence for course requirements.
type RequirementRepository struct {
	db *sqlx.DB
}

// NewRequirementRepository creates a new requirement repository.
func NewRequirementRepository(db *sqlx.DB) *RequirementRepository {
	return &RequirementRepository{db: db}
}

// List returns requirements with filtering and pagination.
func (r *RequirementRepository) List(ctx context.Context, filter models.RequirementFilter) ([]models.RequirementDetail, int, error) {
	base := `FROM course_requirements cr
	JOIN classrooms c ON c.id = cr.classroom_id
	JOIN subjects s ON s.id = cr.subject_id
	LEFT JOIN teachers t ON t.id = cr.teacher_id
	WHERE cr.academic_year = $1 AND cr.term = $2`
	args := []interface{}{filter.AcademicYear, filter.Term}

	var conditions []string
	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("cr.classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("cr.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("cr.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"created_at": "cr.created_at",
		"subject":    "s.code",
		"classroom":  "c.name",
		"periods":    "cr.periods_per_week",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "cr.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT cr.id, cr.classroom_id, cr.subject_id, cr.teacher_id, cr.periods_per_week, cr.major_group, cr.academic_year, cr.term, cr.created_at, cr.updated_at,
	c.name AS classroom_name, s.code AS subject_code, s.name AS subject_name, t.full_name AS teacher_name
	%s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)
	var requirements []models.RequirementDetail
	if err := r.db.SelectContext(ctx, &requirements, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list requirements: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count requirements: %w", err)
	}

	return requirements, total, nil
}

// ListByClassroomTerm returns the classroom's requirements in a stable order
// so repeated extractions yield the same task pool.
func (r *RequirementRepository) ListByClassroomTerm(ctx context.Context, classroomID string, year, term int) ([]models.CourseRequirement, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_requirements WHERE classroom_id = $1 AND academic_year = $2 AND term = $3 ORDER BY created_at ASC, id ASC`, requirementColumns)
	var requirements []models.CourseRequirement
	if err := r.db.SelectContext(ctx, &requirements, query, classroomID, year, term); err != nil {
		return nil, fmt.Errorf("list requirements by classroom: %w", err)
	}
	return requirements, nil
}

// FindByID loads a requirement by id.
func (r *RequirementRepository) FindByID(ctx context.Context, id string) (*models.CourseRequirement, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_requirements WHERE id = $1`, requirementColumns)
	var requirement models.CourseRequirement
	if err := r.db.GetContext(ctx, &requirement, query, id); err != nil {
		return nil, err
	}
	return &requirement, nil
}

// Create stores a new requirement.
func (r *RequirementRepository) Create(ctx context.Context, requirement *models.CourseRequirement) error {
	if requirement.ID == "" {
		requirement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if requirement.CreatedAt.IsZero() {
		requirement.CreatedAt = now
	}
	requirement.UpdatedAt = now

	const query = `INSERT INTO course_requirements (id, classroom_id, subject_id, teacher_id, periods_per_week, major_group, academic_year, term, created_at, updated_at) VALUES (:id, :classroom_id, :subject_id, :teacher_id, :periods_per_week, :major_group, :academic_year, :term, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, requirement); err != nil {
		return fmt.Errorf("create requirement: %w", err)
	}
	return nil
}

// Update modifies a requirement.
func (r *RequirementRepository) Update(ctx context.Context, requirement *models.CourseRequirement) error {
	requirement.UpdatedAt = time.Now().UTC()
	const query = `UPDATE course_requirements SET classroom_id = :classroom_id, subject_id = :subject_id, teacher_id = :teacher_id, periods_per_week = :periods_per_week, major_group = :major_group, academic_year = :academic_year, term = :term, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, requirement); err != nil {
		return fmt.Errorf("update requirement: %w", err)
	}
	return nil
}

// Delete removes a requirement by id.
func (r *RequirementRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM course_requirements WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete requirement: %w", err)
	}
	return nil
}
