package service

import (
	"context"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"
)

type AuditStore interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	GetByUserID(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error)
}

// AuditService writes the audit trail. Writes are best-effort: a failure is
// logged and never fails the operation being audited.
type AuditService struct {
	repo AuditStore
}

func NewAuditService(repo AuditStore) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) Log(ctx context.Context, userID int64, action, category string, details map[string]any) {
	s.write(ctx, &domain.AuditLog{
		UserID:   userID,
		Action:   action,
		Category: category,
		Details:  details,
	})
}

// LogTask records a task mutation.
func (s *AuditService) LogTask(ctx context.Context, userID int64, action string, taskID int64, details map[string]any) {
	if details == nil {
		details = make(map[string]any)
	}
	details["task_id"] = taskID
	s.Log(ctx, userID, action, domain.AuditCategoryTask, details)
}

// LogLogin records a login along with the client address.
func (s *AuditService) LogLogin(ctx context.Context, userID int64, method, ip, userAgent string) {
	s.write(ctx, &domain.AuditLog{
		UserID:    userID,
		Action:    domain.AuditActionLogin,
		Category:  domain.AuditCategoryAuth,
		Details:   map[string]any{"method": method},
		IP:        ip,
		UserAgent: userAgent,
	})
}

func (s *AuditService) GetUserAuditLogs(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.GetByUserID(ctx, userID, limit)
}

func (s *AuditService) write(ctx context.Context, entry *domain.AuditLog) {
	if s == nil || s.repo == nil {
		return
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logger.FromContext(ctx).Error("failed to create audit log", "error", err, "action", entry.Action, "user_id", entry.UserID)
	}
}
