package models

import "time"

// ActivityType distinguishes what occupies a timetable cell.
type ActivityType string

const (
	ActivityStudy    ActivityType = "STUDY"
	ActivityActivity ActivityType = "ACTIVITY"
	ActivityMeeting  ActivityType = "MEETING"
)

// Valid reports whether the activity type is one of the known values.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityStudy, ActivityActivity, ActivityMeeting:
		return true
	}
	return false
}

// Assignment is one occupied timetable cell: a subject (or meeting) taught in
// a classroom at a fixed day and period within a term. Meeting rows have no
// classroom or subject and carry a note instead.
type Assignment struct {
	ID           string       `db:"id" json:"id"`
	ClassroomID  *string      `db:"classroom_id" json:"classroom_id,omitempty"`
	SubjectID    *string      `db:"subject_id" json:"subject_id,omitempty"`
	TeacherID    *string      `db:"teacher_id" json:"teacher_id,omitempty"`
	DayOfWeek    string       `db:"day_of_week" json:"day_of_week"`
	SlotID       int          `db:"slot_id" json:"slot_id"`
	AcademicYear int          `db:"academic_year" json:"academic_year"`
	Term         int          `db:"term" json:"term"`
	ActivityType ActivityType `db:"activity_type" json:"activity_type"`
	MajorGroup   *string      `db:"major_group" json:"major_group,omitempty"`
	Note         *string      `db:"note" json:"note,omitempty"`
	IsLocked     bool         `db:"is_locked" json:"is_locked"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// AssignmentDetail joins an assignment with display names for views, exports
// and conflict messages.
type AssignmentDetail struct {
	Assignment
	ClassroomName *string `db:"classroom_name" json:"classroom_name,omitempty"`
	SubjectCode   *string `db:"subject_code" json:"subject_code,omitempty"`
	SubjectName   *string `db:"subject_name" json:"subject_name,omitempty"`
	TeacherName   *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// PlacementConflictError is returned when a manual placement collides with
// existing assignments. Entries carry what already occupies the slot so the
// caller can name the other classroom.
type PlacementConflictError struct {
	Type    string             `json:"type"`
	Message string             `json:"message"`
	Entries []AssignmentDetail `json:"entries,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *PlacementConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// AssignmentFilter captures list criteria for assignments.
type AssignmentFilter struct {
	ClassroomID  string
	TeacherIDs   []string
	DayOfWeek    string
	SlotID       *int
	AcademicYear int
	Term         int
	IsLocked     *bool
}
