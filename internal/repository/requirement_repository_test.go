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

func newRequirementRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRequirementRepositoryListByClassroomTerm(t *testing.T) {
	db, mock, cleanup := newRequirementRepoMock(t)
	defer cleanup()
	repo := NewRequirementRepository(db)

	rows := sqlmock.NewRows([]string{"id", "classroom_id", "subject_id", "teacher_id", "periods_per_week", "major_group", "academic_year", "term", "created_at", "updated_at"}).
		AddRow("req-1", "room-1", "sub-1", "t-1", 3, nil, 2025, 1, time.Now(), time.Now()).
		AddRow("req-2", "room-1", "sub-2", nil, 2, "SCIENCE", 2025, 1, time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("FROM course_requirements WHERE classroom_id = $1 AND academic_year = $2 AND term = $3 ORDER BY created_at ASC, id ASC")).
		WithArgs("room-1", 2025, 1).
		WillReturnRows(rows)

	requirements, err := repo.ListByClassroomTerm(context.Background(), "room-1", 2025, 1)
	require.NoError(t, err)
	require.Len(t, requirements, 2)
	assert.Equal(t, 3, requirements[0].PeriodsPerWeek)
	assert.Nil(t, requirements[1].TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequirementRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRequirementRepoMock(t)
	defer cleanup()
	repo := NewRequirementRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_requirements")).
		WithArgs(sqlmock.AnyArg(), "room-1", "sub-1", "t-1", 4, nil, 2025, 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	requirement := &models.CourseRequirement{
		ClassroomID:    "room-1",
		SubjectID:      "sub-1",
		TeacherID:      strPtr("t-1"),
		PeriodsPerWeek: 4,
		AcademicYear:   2025,
		Term:           1,
	}

	require.NoError(t, repo.Create(context.Background(), requirement))
	assert.NotEmpty(t, requirement.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequirementRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRequirementRepoMock(t)
	defer cleanup()
	repo := NewRequirementRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_requirements WHERE id = $1")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "req-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
