package service

import (
	"context"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// Activity actions written to the audit log.
const (
	ActionBulkUpload          = "bulk_upload"
	ActionBooksIssued         = "books_issued"
	ActionDepartmentAdded     = "department_added"
	ActionDepartmentEdited    = "department_edited"
	ActionDepartmentDeleted   = "department_deleted"
	ActionStudentAdded        = "student_added"
	ActionStudentEdited       = "student_edited"
	ActionStudentDeleted      = "student_deleted"
	ActionEnrollmentBackfill  = "enrollment_backfill"
	ActionPurgeStudents       = "purge_students"
	ActionPendingGenerated    = "pending_generated"
	ActionRequirementsUpdated = "requirements_updated"
)

// AuditService is the activity log sink. Record never fails the caller: an
// audit write error is logged and dropped.
type AuditService interface {
	Record(ctx context.Context, actor Actor, action, description string, details map[string]any)
	Recent(ctx context.Context, limit int) ([]dto.ActivityResponse, error)
}

type auditService struct {
	repo repository.ActivityLogRepository
}

func NewAuditService(repo repository.ActivityLogRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, actor Actor, action, description string, details map[string]any) {
	entry := &model.ActivityLog{
		UserID:      actor.ref(),
		Action:      action,
		Description: description,
		Timestamp:   time.Now(),
	}
	if len(details) > 0 {
		entry.Details = datatypes.JSONMap(details)
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("audit: failed to record activity")
	}
}

func (s *auditService) Recent(ctx context.Context, limit int) ([]dto.ActivityResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	entries, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ActivityResponse, len(entries))
	for i, e := range entries {
		var uid *string
		if e.UserID != nil {
			id := e.UserID.String()
			uid = &id
		}
		out[i] = dto.ActivityResponse{
			ID:          e.ID.String(),
			UserID:      uid,
			Action:      e.Action,
			Description: e.Description,
			Details:     map[string]interface{}(e.Details),
			Timestamp:   e.Timestamp.Format(time.RFC3339),
		}
	}
	return out, nil
}
