package services

import (
	"context"

	"papermerge/models"
	"papermerge/repositories"
)

type AuditPageOutput struct {
	Items      []models.AuditLog `json:"items"`
	PageNumber int               `json:"page_number"`
	PageSize   int               `json:"page_size"`
	NumPages   int               `json:"num_pages"`
	TotalItems int64             `json:"total_items"`
}

type AuditLogService interface {
	List(ctx context.Context, tableName string, page, size int) (AuditPageOutput, error)
}

type auditLogService struct {
	auditLog repositories.AuditLogRepository
}

func NewAuditLogService(auditLog repositories.AuditLogRepository) AuditLogService {
	return &auditLogService{auditLog: auditLog}
}

func (s *auditLogService) List(ctx context.Context, tableName string, page, size int) (AuditPageOutput, error) {
	page, size = clampPage(page, size)
	items, total, err := s.auditLog.List(ctx, nil, tableName, page, size)
	if err != nil {
		return AuditPageOutput{}, errInternal("failed to list audit log", err)
	}
	return AuditPageOutput{
		Items:      items,
		PageNumber: page,
		PageSize:   size,
		NumPages:   numPages(total, size),
		TotalItems: total,
	}, nil
}
