package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sakchai-dev/timetable-api/internal/models"
)

const assignmentColumns = "id, classroom_id, subject_id, teacher_id, day_of_week, slot_id, academic_year, term, activity_type, major_group, note, is_locked, created_at, updated_at"

const assignmentDetailSelect = `SELECT a.id, a.classroom_id, a.subject_id, a.teacher_id, a.day_of_week, a.slot_id, a.academic_year, a.term, a.activity_type, a.major_group, a.note, a.is_locked, a.created_at, a.updated_at,
	c.name AS classroom_name, s.code AS subject_code, s.name AS subject_name, t.full_name AS teacher_name
	FROM teaching_assignments a
	LEFT JOIN classrooms c ON c.id = a.classroom_id
	LEFT JOIN subjects s ON s.id = a.subject_id
	LEFT JOIN teachers t ON t.id = a.teacher_id`

// AssignmentRepository provides persistence for timetable assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignments matching the filter in a single query.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	base := "FROM teaching_assignments WHERE academic_year = $1 AND term = $2"
	args := []interface{}{filter.AcademicYear, filter.Term}

	var conditions []string
	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if len(filter.TeacherIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("teacher_id = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.TeacherIDs))
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if filter.SlotID != nil {
		conditions = append(conditions, fmt.Sprintf("slot_id = $%d", len(args)+1))
		args = append(args, *filter.SlotID)
	}
	if filter.IsLocked != nil {
		conditions = append(conditions, fmt.Sprintf("is_locked = $%d", len(args)+1))
		args = append(args, *filter.IsLocked)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY day_of_week ASC, slot_id ASC", assignmentColumns, base)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ListByTeachers loads every assignment held by the given teachers for the
// term in one query, however many teachers are passed.
func (r *AssignmentRepository) ListByTeachers(ctx context.Context, teacherIDs []string, year, term int) ([]models.Assignment, error) {
	if len(teacherIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM teaching_assignments WHERE teacher_id = ANY($1) AND academic_year = $2 AND term = $3`, assignmentColumns)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, pq.Array(teacherIDs), year, term); err != nil {
		return nil, fmt.Errorf("list assignments by teachers: %w", err)
	}
	return assignments, nil
}

// ListDetailByClassroom returns joined rows for a classroom grid.
func (r *AssignmentRepository) ListDetailByClassroom(ctx context.Context, classroomID string, year, term int) ([]models.AssignmentDetail, error) {
	query := assignmentDetailSelect + ` WHERE a.classroom_id = $1 AND a.academic_year = $2 AND a.term = $3 ORDER BY a.day_of_week ASC, a.slot_id ASC`
	var details []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &details, query, classroomID, year, term); err != nil {
		return nil, fmt.Errorf("list assignment detail by classroom: %w", err)
	}
	return details, nil
}

// ListDetailByTeacher returns joined rows for a teacher grid.
func (r *AssignmentRepository) ListDetailByTeacher(ctx context.Context, teacherID string, year, term int) ([]models.AssignmentDetail, error) {
	query := assignmentDetailSelect + ` WHERE a.teacher_id = $1 AND a.academic_year = $2 AND a.term = $3 ORDER BY a.day_of_week ASC, a.slot_id ASC`
	var details []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &details, query, teacherID, year, term); err != nil {
		return nil, fmt.Errorf("list assignment detail by teacher: %w", err)
	}
	return details, nil
}

// FindTeacherSlot returns the teacher's assignment in the given cell across
// all classrooms, or nil when the teacher is free there.
func (r *AssignmentRepository) FindTeacherSlot(ctx context.Context, teacherID, day string, slotID, year, term int) (*models.AssignmentDetail, error) {
	query := assignmentDetailSelect + ` WHERE a.teacher_id = $1 AND a.day_of_week = $2 AND a.slot_id = $3 AND a.academic_year = $4 AND a.term = $5 LIMIT 1`
	var detail models.AssignmentDetail
	if err := r.db.GetContext(ctx, &detail, query, teacherID, day, slotID, year, term); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find teacher slot: %w", err)
	}
	return &detail, nil
}

// ListCell returns the assignments occupying one classroom cell.
func (r *AssignmentRepository) ListCell(ctx context.Context, classroomID, day string, slotID, year, term int) ([]models.AssignmentDetail, error) {
	query := assignmentDetailSelect + ` WHERE a.classroom_id = $1 AND a.day_of_week = $2 AND a.slot_id = $3 AND a.academic_year = $4 AND a.term = $5`
	var details []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &details, query, classroomID, day, slotID, year, term); err != nil {
		return nil, fmt.Errorf("list cell assignments: %w", err)
	}
	return details, nil
}

// Create stores a single assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	const query = `INSERT INTO teaching_assignments (id, classroom_id, subject_id, teacher_id, day_of_week, slot_id, academic_year, term, activity_type, major_group, note, is_locked, created_at, updated_at) VALUES (:id, :classroom_id, :subject_id, :teacher_id, :day_of_week, :slot_id, :academic_year, :term, :activity_type, :major_group, :note, :is_locked, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// BulkCreate inserts many assignments within a transaction. An empty batch is
// a no-op; a failed insert rolls back the whole batch.
func (r *AssignmentRepository) BulkCreate(ctx context.Context, assignments []models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create assignments: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.bulkInsertAssignments(ctx, tx, assignments); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create assignments: %w", err)
	}
	return nil
}

func (r *AssignmentRepository) bulkInsertAssignments(ctx context.Context, exec sqlx.ExtContext, assignments []models.Assignment) error {
	now := time.Now().UTC()
	for i := range assignments {
		payload := assignments[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO teaching_assignments (id, classroom_id, subject_id, teacher_id, day_of_week, slot_id, academic_year, term, activity_type, major_group, note, is_locked, created_at, updated_at) VALUES (:id, :classroom_id, :subject_id, :teacher_id, :day_of_week, :slot_id, :academic_year, :term, :activity_type, :major_group, :note, :is_locked, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert assignment: %w", err)
		}
		assignments[i] = payload
	}
	return nil
}

// Delete removes an assignment by id.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teaching_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteUnlockedByClassroom wipes the classroom's auto-placed rows, leaving
// locked rows untouched.
func (r *AssignmentRepository) DeleteUnlockedByClassroom(ctx context.Context, classroomID string, year, term int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teaching_assignments WHERE classroom_id = $1 AND academic_year = $2 AND term = $3 AND is_locked = FALSE`, classroomID, year, term)
	if err != nil {
		return 0, fmt.Errorf("delete unlocked assignments: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted assignments: %w", err)
	}
	return affected, nil
}

// CountUnlockedByClassroom counts rows a reset run would delete.
func (r *AssignmentRepository) CountUnlockedByClassroom(ctx context.Context, classroomID string, year, term int) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM teaching_assignments WHERE classroom_id = $1 AND academic_year = $2 AND term = $3 AND is_locked = FALSE`, classroomID, year, term); err != nil {
		return 0, fmt.Errorf("count unlocked assignments: %w", err)
	}
	return count, nil
}

// DeleteBySlot clears one day/slot cell across all classrooms. Locked rows are
// removed too; callers decide whether that override is wanted.
func (r *AssignmentRepository) DeleteBySlot(ctx context.Context, day string, slotID, year, term int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teaching_assignments WHERE day_of_week = $1 AND slot_id = $2 AND academic_year = $3 AND term = $4`, day, slotID, year, term)
	if err != nil {
		return 0, fmt.Errorf("delete assignments by slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted assignments: %w", err)
	}
	return affected, nil
}

// DeleteBySlotForTeachers clears one cell for the given teachers only.
func (r *AssignmentRepository) DeleteBySlotForTeachers(ctx context.Context, teacherIDs []string, day string, slotID, year, term int) (int64, error) {
	if len(teacherIDs) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM teaching_assignments WHERE teacher_id = ANY($1) AND day_of_week = $2 AND slot_id = $3 AND academic_year = $4 AND term = $5`, pq.Array(teacherIDs), day, slotID, year, term)
	if err != nil {
		return 0, fmt.Errorf("delete assignments by slot for teachers: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted assignments: %w", err)
	}
	return affected, nil
}
