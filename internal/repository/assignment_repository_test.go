package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakchai-dev/timetable-api/internal/models"
)

func newAssignmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func strPtr(s string) *string { return &s }

func TestAssignmentRepositoryListByTeachers(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "classroom_id", "subject_id", "teacher_id", "day_of_week", "slot_id", "academic_year", "term", "activity_type", "major_group", "note", "is_locked", "created_at", "updated_at"}).
		AddRow("a-1", "room-1", "sub-1", "t-1", "MONDAY", 1, 2025, 1, "STUDY", nil, nil, false, time.Now(), time.Now()).
		AddRow("a-2", "room-2", "sub-2", "t-2", "TUESDAY", 3, 2025, 1, "STUDY", nil, nil, true, time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("FROM teaching_assignments WHERE teacher_id = ANY($1) AND academic_year = $2 AND term = $3")).
		WithArgs(sqlmock.AnyArg(), 2025, 1).
		WillReturnRows(rows)

	assignments, err := repo.ListByTeachers(context.Background(), []string{"t-1", "t-2"}, 2025, 1)
	require.NoError(t, err)
	assert.Len(t, assignments, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListByTeachersEmpty(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	assignments, err := repo.ListByTeachers(context.Background(), nil, 2025, 1)
	require.NoError(t, err)
	assert.Nil(t, assignments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryBulkCreate(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teaching_assignments")).
		WithArgs(sqlmock.AnyArg(), "room-1", "sub-1", "t-1", "MONDAY", 1, 2025, 1, "STUDY", nil, nil, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teaching_assignments")).
		WithArgs(sqlmock.AnyArg(), "room-1", "sub-2", "t-2", "MONDAY", 2, 2025, 1, "STUDY", nil, nil, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	batch := []models.Assignment{
		{ClassroomID: strPtr("room-1"), SubjectID: strPtr("sub-1"), TeacherID: strPtr("t-1"), DayOfWeek: "MONDAY", SlotID: 1, AcademicYear: 2025, Term: 1, ActivityType: models.ActivityStudy},
		{ClassroomID: strPtr("room-1"), SubjectID: strPtr("sub-2"), TeacherID: strPtr("t-2"), DayOfWeek: "MONDAY", SlotID: 2, AcademicYear: 2025, Term: 1, ActivityType: models.ActivityStudy},
	}

	require.NoError(t, repo.BulkCreate(context.Background(), batch))
	assert.NotEmpty(t, batch[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryBulkCreateEmptyBatch(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	require.NoError(t, repo.BulkCreate(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryBulkCreateRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teaching_assignments")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	batch := []models.Assignment{
		{ClassroomID: strPtr("room-1"), SubjectID: strPtr("sub-1"), DayOfWeek: "MONDAY", SlotID: 1, AcademicYear: 2025, Term: 1, ActivityType: models.ActivityStudy},
	}

	require.Error(t, repo.BulkCreate(context.Background(), batch))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteUnlockedByClassroom(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teaching_assignments WHERE classroom_id = $1 AND academic_year = $2 AND term = $3 AND is_locked = FALSE")).
		WithArgs("room-1", 2025, 1).
		WillReturnResult(sqlmock.NewResult(0, 6))

	deleted, err := repo.DeleteUnlockedByClassroom(context.Background(), "room-1", 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindTeacherSlotNoRows(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT a.id, a.classroom_id").
		WithArgs("t-1", "MONDAY", 1, 2025, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	detail, err := repo.FindTeacherSlot(context.Background(), "t-1", "MONDAY", 1, 2025, 1)
	require.NoError(t, err)
	assert.Nil(t, detail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteBySlot(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teaching_assignments WHERE day_of_week = $1 AND slot_id = $2 AND academic_year = $3 AND term = $4")).
		WithArgs("FRIDAY", 7, 2025, 1).
		WillReturnResult(sqlmock.NewResult(0, 12))

	deleted, err := repo.DeleteBySlot(context.Background(), "FRIDAY", 7, 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
