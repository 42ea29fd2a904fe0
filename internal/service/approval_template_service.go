package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/repository"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/workflow"
	"github.com/google/uuid"
)

// ApprovalTemplateService manages reusable approval-chain skeletons. A
// template never carries execution state; BuildChain resets every entry to
// pending when the chain is materialized onto a document.
type ApprovalTemplateService interface {
	Create(ctx context.Context, actor workflow.Actor, req *SaveTemplateRequest) (*TemplateView, error)
	Update(ctx context.Context, actor workflow.Actor, id string, req *SaveTemplateRequest) (*TemplateView, error)
	Get(id string) (*TemplateView, error)
	List() ([]*TemplateView, error)
	Delete(ctx context.Context, actor workflow.Actor, id string) error
	// Materialize builds a concrete pending chain from a stored template.
	Materialize(id string) ([]workflow.ApprovalEntry, error)
}

// SaveTemplateRequest creates or replaces a template.
type SaveTemplateRequest struct {
	Name        string                   `json:"name" binding:"required"`
	Description string                   `json:"description"`
	Department  string                   `json:"department"`
	Entries     []workflow.TemplateEntry `json:"entries" binding:"required"`
}

// TemplateView is the decoded template returned to callers.
type TemplateView struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Department  string                   `json:"department"`
	Entries     []workflow.TemplateEntry `json:"entries"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

type approvalTemplateService struct {
	repo        repository.ApprovalTemplateRepository
	auditLogSvc AuditLogService
}

// NewApprovalTemplateService creates a template service.
func NewApprovalTemplateService(repo repository.ApprovalTemplateRepository, auditLogSvc AuditLogService) ApprovalTemplateService {
	return &approvalTemplateService{
		repo:        repo,
		auditLogSvc: auditLogSvc,
	}
}

func validateTemplateEntries(entries []workflow.TemplateEntry) error {
	if len(entries) == 0 {
		return workflow.NewValidationError("template must contain at least one entry")
	}
	for i, e := range entries {
		if strings.TrimSpace(e.UserID) == "" {
			return workflow.NewValidationError("entry %d: user is required", i+1)
		}
		if e.Type != workflow.ApprovalTypeMengetahui && e.Type != workflow.ApprovalTypeMenyetujui {
			return workflow.NewValidationError("entry %d: unknown approval type %q", i+1, e.Type)
		}
	}
	return nil
}

func (s *approvalTemplateService) Create(ctx context.Context, actor workflow.Actor, req *SaveTemplateRequest) (*TemplateView, error) {
	if err := validateTemplateEntries(req.Entries); err != nil {
		return nil, err
	}

	data, err := json.Marshal(req.Entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template: %w", err)
	}

	now := time.Now()
	m := &model.ApprovalTemplateModel{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Department:  req.Department,
		Data:        data,
		CreatedBy:   actor.ID,
		UpdatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Save(m); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "create", "template", m.ID, map[string]interface{}{
			"name":    m.Name,
			"entries": len(req.Entries),
		})
	}
	return s.view(m)
}

func (s *approvalTemplateService) Update(ctx context.Context, actor workflow.Actor, id string, req *SaveTemplateRequest) (*TemplateView, error) {
	if err := validateTemplateEntries(req.Entries); err != nil {
		return nil, err
	}

	m, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(req.Entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template: %w", err)
	}

	m.Name = strings.TrimSpace(req.Name)
	m.Description = req.Description
	m.Department = req.Department
	m.Data = data
	m.UpdatedBy = actor.ID
	m.UpdatedAt = time.Now()
	if err := s.repo.Save(m); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "update", "template", m.ID, map[string]interface{}{
			"name":    m.Name,
			"entries": len(req.Entries),
		})
	}
	return s.view(m)
}

func (s *approvalTemplateService) Get(id string) (*TemplateView, error) {
	m, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return s.view(m)
}

func (s *approvalTemplateService) List() ([]*TemplateView, error) {
	rows, err := s.repo.FindAll()
	if err != nil {
		return nil, err
	}
	views := make([]*TemplateView, 0, len(rows))
	for _, m := range rows {
		v, err := s.view(m)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *approvalTemplateService) Delete(ctx context.Context, actor workflow.Actor, id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "delete", "template", id, nil)
	}
	return nil
}

func (s *approvalTemplateService) Materialize(id string) ([]workflow.ApprovalEntry, error) {
	m, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	var entries []workflow.TemplateEntry
	if err := json.Unmarshal(m.Data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", id, err)
	}
	return workflow.BuildChain(entries), nil
}

func (s *approvalTemplateService) view(m *model.ApprovalTemplateModel) (*TemplateView, error) {
	var entries []workflow.TemplateEntry
	if err := json.Unmarshal(m.Data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", m.ID, err)
	}
	return &TemplateView{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Department:  m.Department,
		Entries:     entries,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}
