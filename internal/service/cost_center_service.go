package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/metrics"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/repository"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CostCenterService manages budget buckets and their append-only ledger.
// The balance column is a cached projection; every change appends a ledger
// row in the same transaction.
type CostCenterService interface {
	Create(ctx context.Context, actor workflow.Actor, req *CreateCostCenterRequest) (*model.CostCenterModel, error)
	Get(id string) (*model.CostCenterModel, error)
	List() ([]*model.CostCenterModel, error)
	// ApplyAdjustment credits or debits a cost center with a mandatory reason.
	ApplyAdjustment(ctx context.Context, actor workflow.Actor, id string, delta int64, reason string) (*model.CostCenterHistoryModel, error)
	// History returns ledger rows newest-first for audit display.
	History(id string) ([]*model.CostCenterHistoryModel, error)
	// DebitForMR fires the budget debit inside the caller's transaction. The
	// unique (mr_id, kind) index makes a retried transition a ConflictError
	// instead of a second debit.
	DebitForMR(tx *gorm.DB, mr *workflow.MaterialRequest) error
}

// CreateCostCenterRequest creates a budget bucket.
type CreateCostCenterRequest struct {
	Code          string `json:"code" binding:"required"`
	Name          string `json:"name" binding:"required"`
	CompanyCode   string `json:"company_code"`
	InitialBudget int64  `json:"initial_budget"`
}

type costCenterService struct {
	db          *gorm.DB
	repo        repository.CostCenterRepository
	auditLogSvc AuditLogService
}

// NewCostCenterService creates a cost center service.
func NewCostCenterService(db *gorm.DB, repo repository.CostCenterRepository, auditLogSvc AuditLogService) CostCenterService {
	return &costCenterService{
		db:          db,
		repo:        repo,
		auditLogSvc: auditLogSvc,
	}
}

func (s *costCenterService) Create(ctx context.Context, actor workflow.Actor, req *CreateCostCenterRequest) (*model.CostCenterModel, error) {
	if req.InitialBudget < 0 {
		return nil, workflow.NewValidationError("initial budget cannot be negative")
	}

	now := time.Now()
	cc := &model.CostCenterModel{
		ID:            uuid.New().String(),
		Code:          strings.TrimSpace(req.Code),
		Name:          strings.TrimSpace(req.Name),
		CompanyCode:   req.CompanyCode,
		InitialBudget: req.InitialBudget,
		CurrentBudget: req.InitialBudget,
		CreatedBy:     actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := cc.Validate(); err != nil {
		return nil, workflow.NewValidationError("%s", err.Error())
	}
	if err := s.repo.Create(cc); err != nil {
		return nil, fmt.Errorf("failed to create cost center: %w", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "create", "cost_center", cc.ID, map[string]interface{}{
			"code":           cc.Code,
			"initial_budget": cc.InitialBudget,
		})
	}
	return cc, nil
}

func (s *costCenterService) Get(id string) (*model.CostCenterModel, error) {
	return s.repo.FindByID(id)
}

func (s *costCenterService) List() ([]*model.CostCenterModel, error) {
	return s.repo.FindAll()
}

func (s *costCenterService) ApplyAdjustment(ctx context.Context, actor workflow.Actor, id string, delta int64, reason string) (*model.CostCenterHistoryModel, error) {
	if !workflow.CanTransition(actor, nil, workflow.TransitionAdjustBudget) {
		return nil, workflow.NewAuthorizationError("only an administrator may adjust a budget")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, workflow.NewValidationError("adjustment reason is required")
	}
	if delta == 0 {
		return nil, workflow.NewValidationError("adjustment amount cannot be zero")
	}

	row := &model.CostCenterHistoryModel{
		ID:           uuid.New().String(),
		CostCenterID: id,
		ChangeAmount: delta,
		Description:  reason,
		CausedBy:     actor.ID,
		Kind:         model.LedgerKindAdjustment,
		CreatedAt:    time.Now(),
	}

	// the balance snapshot comes from the relative update inside the
	// transaction, never from a read taken before it
	err := s.db.Transaction(func(tx *gorm.DB) error {
		balance, err := s.repo.AdjustBudget(tx, id, delta)
		if err != nil {
			return err
		}
		row.NewBudget = balance
		if err := s.repo.AppendHistory(tx, row); err != nil {
			return fmt.Errorf("failed to append ledger row: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, actor.ID, "adjust_budget", "cost_center", id, map[string]interface{}{
			"delta":      delta,
			"new_budget": row.NewBudget,
			"reason":     reason,
		})
	}
	return row, nil
}

func (s *costCenterService) History(id string) ([]*model.CostCenterHistoryModel, error) {
	return s.repo.History(id)
}

func (s *costCenterService) DebitForMR(tx *gorm.DB, mr *workflow.MaterialRequest) error {
	amount := mr.CostEstimation
	balance, err := s.repo.AdjustBudget(tx, mr.CostCenterID, -amount)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("cost center %s not found: %w", mr.CostCenterID, err)
		}
		return fmt.Errorf("failed to update budget: %w", err)
	}

	mrID := mr.ID
	row := &model.CostCenterHistoryModel{
		ID:           uuid.New().String(),
		CostCenterID: mr.CostCenterID,
		ChangeAmount: -amount,
		NewBudget:    balance,
		Description:  fmt.Sprintf("budget debit for %s", mr.KodeMR),
		CausedBy:     mr.CreatedBy,
		MRID:         &mrID,
		Kind:         model.LedgerKindMRDebit,
		CreatedAt:    time.Now(),
	}
	// a duplicate debit trips the unique (mr_id, kind) index here and rolls
	// the balance change back with the caller's transaction
	if err := s.repo.AppendHistory(tx, row); err != nil {
		return workflow.NewConflictError("budget for %s already debited or ledger write failed: %v", mr.KodeMR, err)
	}

	metrics.RecordBudgetDebit(amount)
	return nil
}
