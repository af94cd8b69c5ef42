package models

import "time"

// AcademicSettings is the single-row record holding the active school term.
// Scheduler requests fall back to it when year/term are omitted.
type AcademicSettings struct {
	ID           string    `db:"id" json:"id"`
	AcademicYear int       `db:"academic_year" json:"academic_year"`
	Term         int       `db:"term" json:"term"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
