package models

import "time"

// CourseRequirement declares how many periods per week a subject must be
// taught in a classroom during a term. The teacher is optional while staffing
// is undecided.
type CourseRequirement struct {
	ID             string    `db:"id" json:"id"`
	ClassroomID    string    `db:"classroom_id" json:"classroom_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	TeacherID      *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	PeriodsPerWeek int       `db:"periods_per_week" json:"periods_per_week"`
	MajorGroup     *string   `db:"major_group" json:"major_group,omitempty"`
	AcademicYear   int       `db:"academic_year" json:"academic_year"`
	Term           int       `db:"term" json:"term"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// RequirementDetail joins a requirement with display names.
type RequirementDetail struct {
	CourseRequirement
	ClassroomName string  `db:"classroom_name" json:"classroom_name"`
	SubjectCode   string  `db:"subject_code" json:"subject_code"`
	SubjectName   string  `db:"subject_name" json:"subject_name"`
	TeacherName   *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// RequirementFilter captures list criteria for course requirements.
type RequirementFilter struct {
	ClassroomID  string
	SubjectID    string
	TeacherID    string
	AcademicYear int
	Term         int
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
