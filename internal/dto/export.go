package dto

import "github.com/sakchai-dev/timetable-api/internal/models"

// ExportRequest captures POST /exports payload.
type ExportRequest struct {
	Scope        models.ExportScope  `json:"scope" validate:"required,oneof=classroom teacher"`
	TargetID     string              `json:"targetId" validate:"required"`
	AcademicYear int                 `json:"academicYear" validate:"omitempty,min=2000"`
	Term         int                 `json:"term" validate:"omitempty,min=1,max=3"`
	Format       models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ExportStatus `json:"status"`
}

// ExportStatusResponse exposes job state and the signed download URL once done.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
