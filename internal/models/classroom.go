package models

import "time"

// Classroom represents a homeroom class (e.g. "M.4/1") that owns a timetable.
type Classroom struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	GradeYear *int      `db:"grade_year" json:"grade_year,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassroomFilter captures filtering options for listing classrooms.
type ClassroomFilter struct {
	Search    string
	GradeYear *int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
