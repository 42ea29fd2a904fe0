package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/repository"
	"github.com/google/uuid"
)

// AuditLogService records every mutating operation for the audit trail.
type AuditLogService interface {
	RecordAction(ctx context.Context, userID string, action string, resourceType string, resourceID string, details interface{}) error
	FindByResource(resourceType, resourceID string) ([]*model.AuditLogModel, error)
	FindByUser(userID string, limit int) ([]*model.AuditLogModel, error)
}

type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService creates an audit log service.
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
	}
}

// RecordAction writes one audit row. Request metadata (request id, IP, user
// agent) is taken from the context when the request-log middleware put it there.
func (s *auditLogService) RecordAction(
	ctx context.Context,
	userID string,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	requestID := ""
	if v := ctx.Value("request_id"); v != nil {
		if s, ok := v.(string); ok {
			requestID = s
		}
	}
	ip := ""
	if v := ctx.Value("ip"); v != nil {
		if s, ok := v.(string); ok {
			ip = s
		}
	}
	userAgent := ""
	if v := ctx.Value("user_agent"); v != nil {
		if s, ok := v.(string); ok {
			userAgent = s
		}
	}

	row := &model.AuditLogModel{
		ID:           uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    requestID,
		IP:           ip,
		UserAgent:    userAgent,
		Details:      detailsJSON,
		CreatedAt:    time.Now(),
	}
	return s.auditRepo.Save(row)
}

func (s *auditLogService) FindByResource(resourceType, resourceID string) ([]*model.AuditLogModel, error) {
	return s.auditRepo.FindByResource(resourceType, resourceID)
}

func (s *auditLogService) FindByUser(userID string, limit int) ([]*model.AuditLogModel, error) {
	return s.auditRepo.FindByUser(userID, limit)
}
