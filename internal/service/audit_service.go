package service

import (
	"context"
	"fmt"

	"salesledger/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserRole   string `json:"user_role"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, filter repository.AuditFilter) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	audit repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(deps Deps) AuditService {
	return &auditService{audit: deps.Repos.Audit}
}

// GetAuditLogs returns the newest entries first, optionally narrowed by action or entity
func (s *auditService) GetAuditLogs(ctx context.Context, filter repository.AuditFilter) ([]AuditLogResponse, int64, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	logs, total, err := s.audit.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		userID := "System"
		if l.UserID != nil {
			userID = l.UserID.String()
		}
		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			UserRole:   l.UserRole,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return res, total, nil
}
