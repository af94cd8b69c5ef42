package dto

import "github.com/sakchai-dev/timetable-api/internal/models"

// Auto-schedule run modes.
const (
	ModeReset = "reset"
	ModeFill  = "fill"
)

// AutoScheduleRequest runs the placement engine for one classroom and term.
// Year and term fall back to the active academic settings when zero.
type AutoScheduleRequest struct {
	ClassroomID  string `json:"classroomId" validate:"required"`
	AcademicYear int    `json:"academicYear" validate:"omitempty,min=2000"`
	Term         int    `json:"term" validate:"omitempty,min=1,max=3"`
	Mode         string `json:"mode" validate:"required,oneof=reset fill"`
	Confirm      bool   `json:"confirm"`
}

// AutoScheduleResponse reports the outcome of a placement run.
type AutoScheduleResponse struct {
	ClassroomID          string `json:"classroomId"`
	AcademicYear         int    `json:"academicYear"`
	Term                 int    `json:"term"`
	Mode                 string `json:"mode"`
	RequiresConfirmation bool   `json:"requiresConfirmation"`
	RowsToDelete         int    `json:"rowsToDelete,omitempty"`
	DeletedCount         int    `json:"deletedCount"`
	PlacedCount          int    `json:"placedCount"`
	UnplacedCount        int    `json:"unplacedCount"`
	TotalTasks           int    `json:"totalTasks"`
}

// ManualPlacementRequest places one subject into one timetable cell.
type ManualPlacementRequest struct {
	ClassroomID  string  `json:"classroomId" validate:"required"`
	SubjectID    string  `json:"subjectId" validate:"required"`
	TeacherID    *string `json:"teacherId" validate:"omitempty,uuid4"`
	DayOfWeek    string  `json:"dayOfWeek" validate:"required"`
	SlotID       int     `json:"slotId" validate:"required,min=1"`
	AcademicYear int     `json:"academicYear" validate:"omitempty,min=2000"`
	Term         int     `json:"term" validate:"omitempty,min=1,max=3"`
	MajorGroup   *string `json:"majorGroup"`
	IsLocked     bool    `json:"isLocked"`
	AllowShared  bool    `json:"allowShared"`
}

// ClearScheduleRequest deletes the unlocked rows of a classroom's timetable.
type ClearScheduleRequest struct {
	ClassroomID  string `json:"classroomId" validate:"required"`
	AcademicYear int    `json:"academicYear" validate:"omitempty,min=2000"`
	Term         int    `json:"term" validate:"omitempty,min=1,max=3"`
	Confirm      bool   `json:"confirm"`
}

// ClearScheduleResponse previews or reports an unlocked-row wipe.
type ClearScheduleResponse struct {
	ClassroomID          string `json:"classroomId"`
	RequiresConfirmation bool   `json:"requiresConfirmation"`
	RowsToDelete         int    `json:"rowsToDelete,omitempty"`
	DeletedCount         int    `json:"deletedCount"`
}

// GlobalPlacementRequest writes one activity into the same slot of every
// classroom, optionally clearing whatever occupied that slot first.
type GlobalPlacementRequest struct {
	SubjectID    string  `json:"subjectId" validate:"required"`
	TeacherID    *string `json:"teacherId"`
	DayOfWeek    string  `json:"dayOfWeek" validate:"required"`
	SlotID       int     `json:"slotId" validate:"required,min=1"`
	AcademicYear int     `json:"academicYear" validate:"omitempty,min=2000"`
	Term         int     `json:"term" validate:"omitempty,min=1,max=3"`
	MajorGroup   *string `json:"majorGroup"`
	DeleteOld    bool    `json:"deleteOld"`
	Confirm      bool    `json:"confirm"`
}

// GlobalPlacementResponse previews or reports a whole-school slot write.
type GlobalPlacementResponse struct {
	RequiresConfirmation bool `json:"requiresConfirmation"`
	ClassroomsAffected   int  `json:"classroomsAffected"`
	DeletedCount         int  `json:"deletedCount"`
	PlacedCount          int  `json:"placedCount"`
}

// MeetingLockRequest blocks one slot for a scope of teachers with a locked
// meeting entry.
type MeetingLockRequest struct {
	Scope        string  `json:"scope" validate:"required,oneof=self department all"`
	TeacherID    string  `json:"teacherId" validate:"required"`
	DayOfWeek    string  `json:"dayOfWeek" validate:"required"`
	SlotID       int     `json:"slotId" validate:"required,min=1"`
	AcademicYear int     `json:"academicYear" validate:"omitempty,min=2000"`
	Term         int     `json:"term" validate:"omitempty,min=1,max=3"`
	Note         *string `json:"note"`
	Confirm      bool    `json:"confirm"`
}

// MeetingLockResponse previews or reports a meeting lock.
type MeetingLockResponse struct {
	RequiresConfirmation bool `json:"requiresConfirmation"`
	TeachersAffected     int  `json:"teachersAffected"`
	DeletedCount         int  `json:"deletedCount"`
	LockedCount          int  `json:"lockedCount"`
}

// MeetingFreeRequest removes the scope's rows from one slot.
type MeetingFreeRequest struct {
	Scope        string `json:"scope" validate:"required,oneof=self department all"`
	TeacherID    string `json:"teacherId" validate:"required"`
	DayOfWeek    string `json:"dayOfWeek" validate:"required"`
	SlotID       int    `json:"slotId" validate:"required,min=1"`
	AcademicYear int    `json:"academicYear" validate:"omitempty,min=2000"`
	Term         int    `json:"term" validate:"omitempty,min=1,max=3"`
	Confirm      bool   `json:"confirm"`
}

// TimetableCell is one day/slot intersection of a rendered grid.
type TimetableCell struct {
	DayOfWeek string                    `json:"dayOfWeek"`
	SlotID    int                       `json:"slotId"`
	Entries   []models.AssignmentDetail `json:"entries"`
}

// TimetableGridResponse is the rendered weekly grid for a classroom or teacher.
// Cached is set when the response came from Redis; it travels in response meta
// rather than the body.
type TimetableGridResponse struct {
	Grid         models.TimeGrid `json:"grid"`
	AcademicYear int             `json:"academicYear"`
	Term         int             `json:"term"`
	Cells        []TimetableCell `json:"cells"`
	Cached       bool            `json:"-"`
}
