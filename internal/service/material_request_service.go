package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/metrics"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/notify"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/repository"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/websocket"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaterialRequestService drives the MR lifecycle: creation, validation with a
// committed approval chain, strictly ordered approvals, the budget debit on
// the Waiting PO transition, item fulfillment and BAST closure. Every status
// transition re-reads the document and saves through a compare-and-swap, so
// two racing operators cannot both win the same pending slot.
type MaterialRequestService interface {
	Create(ctx context.Context, actor workflow.Actor, req *CreateMRRequest) (*MaterialRequestView, error)
	Get(id string) (*MaterialRequestView, error)
	List(filter *repository.MaterialRequestFilter) ([]*MaterialRequestView, error)
	Update(ctx context.Context, actor workflow.Actor, id string, req *UpdateMRRequest) (*MaterialRequestView, error)
	Delete(ctx context.Context, actor workflow.Actor, id string) error

	Validate(ctx context.Context, actor workflow.Actor, id string, req *ValidateMRRequest) (*MaterialRequestView, error)
	RejectValidation(ctx context.Context, actor workflow.Actor, id string, reason string) (*MaterialRequestView, error)
	Approve(ctx context.Context, actor workflow.Actor, id string, req *ApproveMRRequest) (*MaterialRequestView, error)
	Reject(ctx context.Context, actor workflow.Actor, id string, note string) (*MaterialRequestView, error)
	CloseWithBAST(ctx context.Context, actor workflow.Actor, id string, bast *workflow.Attachment) (*MaterialRequestView, error)

	UpdateItemStatus(ctx context.Context, actor workflow.Actor, id string, req *UpdateItemStatusRequest) (*MaterialRequestView, error)
	AddDiscussion(ctx context.Context, actor workflow.Actor, id string, message string) (*MaterialRequestView, error)
	AddAttachment(ctx context.Context, actor workflow.Actor, id string, att workflow.Attachment) (*MaterialRequestView, error)
	RemoveAttachment(ctx context.Context, actor workflow.Actor, id string, path string) (*MaterialRequestView, error)
	ReassignCostCenter(ctx context.Context, actor workflow.Actor, id string, req *ReassignCostCenterRequest) (*MaterialRequestView, error)
	StateHistory(id string) ([]*model.StateHistoryModel, error)
}

// MaterialRequestView is the decoded aggregate with its derived fields.
type MaterialRequestView struct {
	*workflow.MaterialRequest
	Prioritas workflow.Priority `json:"prioritas"`
	Version   int               `json:"version"`
}

// CreateMRRequest creates a material request in Pending Validation.
type CreateMRRequest struct {
	Orders     []workflow.OrderItem `json:"orders" binding:"required"`
	DueDate    time.Time            `json:"due_date" binding:"required"`
	Remarks    string               `json:"remarks"`
	TujuanSite string               `json:"tujuan_site" binding:"required"`
	Department string               `json:"department"`
	Company    string               `json:"company_code"`
}

// UpdateMRRequest edits the fields that stay mutable during the pending
// stages. Nil fields are left untouched.
type UpdateMRRequest struct {
	Orders  *[]workflow.OrderItem `json:"orders"`
	DueDate *time.Time            `json:"due_date"`
	Remarks *string               `json:"remarks"`
	Level   *string               `json:"level"`
}

// ValidateMRRequest assigns the cost center and commits the approval chain.
// Entries, when present, replace the template content after the validator
// reordered, removed or retyped slots.
type ValidateMRRequest struct {
	CostCenterID string                   `json:"cost_center_id" binding:"required"`
	TemplateID   string                   `json:"template_id"`
	Entries      []workflow.TemplateEntry `json:"entries"`
}

// ApproveMRRequest records one approval, optionally saving edits atomically
// with the decision.
type ApproveMRRequest struct {
	Note string           `json:"note"`
	Edit *UpdateMRRequest `json:"edit"`
}

// UpdateItemStatusRequest moves one line item through its fulfillment states.
type UpdateItemStatusRequest struct {
	ItemIndex  int                 `json:"item_index"`
	Status     workflow.ItemStatus `json:"status" binding:"required"`
	StatusNote string              `json:"status_note"`
}

// ReassignCostCenterRequest is the privileged cost-center correction.
type ReassignCostCenterRequest struct {
	CostCenterID string `json:"cost_center_id" binding:"required"`
	Reason       string `json:"reason" binding:"required"`
}

type materialRequestService struct {
	db          *gorm.DB
	mrRepo      repository.MaterialRequestRepository
	poRepo      repository.PurchaseOrderRepository
	seqRepo     repository.SequenceRepository
	historyRepo repository.StateHistoryRepository
	ccSvc       CostCenterService
	templateSvc ApprovalTemplateService
	auditLogSvc AuditLogService
	notifier    notify.Notifier
	hub         *websocket.Hub
}

// NewMaterialRequestService wires the MR workflow service.
func NewMaterialRequestService(
	db *gorm.DB,
	mrRepo repository.MaterialRequestRepository,
	poRepo repository.PurchaseOrderRepository,
	seqRepo repository.SequenceRepository,
	historyRepo repository.StateHistoryRepository,
	ccSvc CostCenterService,
	templateSvc ApprovalTemplateService,
	auditLogSvc AuditLogService,
	notifier notify.Notifier,
	hub *websocket.Hub,
) MaterialRequestService {
	return &materialRequestService{
		db:          db,
		mrRepo:      mrRepo,
		poRepo:      poRepo,
		seqRepo:     seqRepo,
		historyRepo: historyRepo,
		ccSvc:       ccSvc,
		templateSvc: templateSvc,
		auditLogSvc: auditLogSvc,
		notifier:    notifier,
		hub:         hub,
	}
}

func decodeMR(m *model.MaterialRequestModel) (*workflow.MaterialRequest, error) {
	var mr workflow.MaterialRequest
	if err := json.Unmarshal(m.Data, &mr); err != nil {
		return nil, fmt.Errorf("failed to decode material request %s: %w", m.ID, err)
	}
	return &mr, nil
}

func encodeMR(mr *workflow.MaterialRequest, version int) (*model.MaterialRequestModel, error) {
	data, err := json.Marshal(mr)
	if err != nil {
		return nil, fmt.Errorf("failed to encode material request %s: %w", mr.ID, err)
	}
	var costCenterID *string
	if mr.CostCenterID != "" {
		costCenterID = &mr.CostCenterID
	}
	dueDate := mr.DueDate
	return &model.MaterialRequestModel{
		ID:             mr.ID,
		KodeMR:         mr.KodeMR,
		Status:         string(mr.Status),
		Level:          mr.Level,
		CostCenterID:   costCenterID,
		Department:     mr.Department,
		CompanyCode:    mr.CompanyCode,
		TujuanSite:     mr.TujuanSite,
		CostEstimation: mr.CostEstimation,
		DueDate:        &dueDate,
		CreatedBy:      mr.CreatedBy,
		Version:        version,
		Data:           data,
		CreatedAt:      mr.CreatedAt,
		UpdatedAt:      mr.UpdatedAt,
	}, nil
}

func mrView(mr *workflow.MaterialRequest, version int) *MaterialRequestView {
	return &MaterialRequestView{
		MaterialRequest: mr,
		Prioritas:       mr.Prioritas(time.Now()),
		Version:         version,
	}
}

func (s *materialRequestService) load(id string) (*workflow.MaterialRequest, int, error) {
	m, err := s.mrRepo.FindByID(id)
	if err != nil {
		return nil, 0, err
	}
	mr, err := decodeMR(m)
	if err != nil {
		return nil, 0, err
	}
	return mr, m.Version, nil
}

// save persists the aggregate through the version gate, appending a state
// history row when the status changed.
func (s *materialRequestService) save(tx *gorm.DB, mr *workflow.MaterialRequest, expectedVersion int, fromStatus workflow.MRStatus, actor workflow.Actor, reason string) error {
	mr.UpdatedAt = time.Now()
	m, err := encodeMR(mr, expectedVersion)
	if err != nil {
		return err
	}
	if err := s.mrRepo.CompareAndSwap(tx, m, expectedVersion); err != nil {
		return err
	}
	if fromStatus != mr.Status {
		row := &model.StateHistoryModel{
			ID:           uuid.New().String(),
			DocumentType: model.DocumentTypeMR,
			DocumentID:   mr.ID,
			FromStatus:   string(fromStatus),
			ToStatus:     string(mr.Status),
			Reason:       reason,
			Operator:     actor.ID,
			CreatedAt:    time.Now(),
		}
		if err := s.historyRepo.Save(tx, row); err != nil {
			return fmt.Errorf("failed to record state history: %w", err)
		}
	}
	return nil
}

func (s *materialRequestService) publish(mr *workflow.MaterialRequest, eventType string, actor workflow.Actor) {
	if s.hub == nil {
		return
	}
	s.hub.PublishEvent(websocket.Event{
		Type:         eventType,
		DocumentType: model.DocumentTypeMR,
		DocumentID:   mr.ID,
		Kode:         mr.KodeMR,
		Status:       string(mr.Status),
		ActorID:      actor.ID,
	})
}

func (s *materialRequestService) audit(ctx context.Context, actor workflow.Actor, action, id string, details interface{}) {
	if s.auditLogSvc == nil {
		return
	}
	_ = s.auditLogSvc.RecordAction(ctx, actor.ID, action, model.DocumentTypeMR, id, details)
}

func applyMREdit(mr *workflow.MaterialRequest, req *UpdateMRRequest) error {
	if req.Orders != nil {
		orders := *req.Orders
		for i := range orders {
			// fulfillment state and PO references are never edited here
			if orders[i].Status == "" {
				orders[i].Status = workflow.ItemStatusPending
			}
		}
		mr.Orders = orders
	}
	if req.DueDate != nil {
		mr.DueDate = *req.DueDate
	}
	if req.Remarks != nil {
		mr.Remarks = *req.Remarks
	}
	if req.Level != nil {
		mr.Level = *req.Level
	}
	mr.RecomputeEstimation()
	return mr.ValidateForSubmission()
}

func (s *materialRequestService) Create(ctx context.Context, actor workflow.Actor, req *CreateMRRequest) (*MaterialRequestView, error) {
	department := req.Department
	if department == "" {
		department = actor.Department
	}
	company := req.Company
	if company == "" {
		company = actor.Company
	}
	if strings.TrimSpace(department) == "" {
		return nil, workflow.NewValidationError("department is required")
	}
	if req.DueDate.IsZero() {
		return nil, workflow.NewValidationError("due date is required")
	}

	now := time.Now()
	orders := make([]workflow.OrderItem, len(req.Orders))
	copy(orders, req.Orders)
	for i := range orders {
		orders[i].Status = workflow.ItemStatusPending
		orders[i].StatusNote = ""
		orders[i].PORefs = nil
	}

	mr := &workflow.MaterialRequest{
		ID:            uuid.New().String(),
		Status:        workflow.MRStatusPendingValidation,
		Orders:        orders,
		DueDate:       req.DueDate,
		Remarks:       req.Remarks,
		Department:    department,
		CompanyCode:   company,
		TujuanSite:    req.TujuanSite,
		CreatedBy:     actor.ID,
		CreatedByName: actor.Name,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	mr.RecomputeEstimation()
	if err := mr.ValidateForSubmission(); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		seq, err := s.seqRepo.Next(tx, workflow.SequenceScopeMR(department, req.TujuanSite))
		if err != nil {
			return fmt.Errorf("failed to allocate document code: %w", err)
		}
		mr.KodeMR = workflow.FormatKodeMR(department, req.TujuanSite, seq)

		m, err := encodeMR(mr, 1)
		if err != nil {
			return err
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordDocumentCreated(model.DocumentTypeMR)
	s.audit(ctx, actor, "create", mr.ID, map[string]interface{}{
		"kode_mr":         mr.KodeMR,
		"cost_estimation": mr.CostEstimation,
		"items":           len(mr.Orders),
	})
	s.publish(mr, "created", actor)
	return mrView(mr, 1), nil
}

func (s *materialRequestService) Get(id string) (*MaterialRequestView, error) {
	mr, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	return mrView(mr, version), nil
}

func (s *materialRequestService) List(filter *repository.MaterialRequestFilter) ([]*MaterialRequestView, error) {
	rows, err := s.mrRepo.FindByFilter(filter)
	if err != nil {
		return nil, err
	}
	views := make([]*MaterialRequestView, 0, len(rows))
	for _, m := range rows {
		mr, err := decodeMR(m)
		if err != nil {
			return nil, err
		}
		views = append(views, mrView(mr, m.Version))
	}
	return views, nil
}

func (s *materialRequestService) Update(ctx context.Context, actor workflow.Actor, id string, req *UpdateMRRequest) (*MaterialRequestView, error) {
	mr, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanTransition(actor, mr, workflow.TransitionEdit) {
		return nil, workflow.NewAuthorizationError("you may not edit %s in its current state", mr.KodeMR)
	}
	if err := applyMREdit(mr, req); err != nil {
		return nil, err
	}
	if err := s.save(nil, mr, version, mr.Status, actor, ""); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "update", mr.ID, map[string]interface{}{"kode_mr": mr.KodeMR})
	return mrView(mr, version+1), nil
}

func (s *materialRequestService) Delete(ctx context.Context, actor workflow.Actor, id string) error {
	mr, _, err := s.load(id)
	if err != nil {
		return err
	}
	if !workflow.CanTransition(actor, mr, workflow.TransitionDelete) {
		return workflow.NewAuthorizationError("only the requester may delete %s, and only before validation", mr.KodeMR)
	}
	if err := s.mrRepo.Delete(nil, id); err != nil {
		return err
	}
	s.audit(ctx, actor, "delete", id, map[string]interface{}{"kode_mr": mr.KodeMR})
	return nil
}

func (s *materialRequestService) Validate(ctx context.Context, actor workflow.Actor, id string, req *ValidateMRRequest) (*MaterialRequestView, error) {
	mr, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanTransition(actor, mr, workflow.TransitionValidate) {
		return nil, workflow.NewAuthorizationError("your role may not validate material requests")
	}
	if mr.Status != workflow.MRStatusPendingValidation {
		return nil, workflow.NewConflictError("material request %s is no longer pending validation", mr.KodeMR)
	}

	var chain []workflow.ApprovalEntry
	if len(req.Entries) > 0 {
		chain = workflow.BuildChain(req.Entries)
	} else if req.TemplateID != "" {
		chain, err = s.templateSvc.Materialize(req.TemplateID)
		if err != nil {
			return nil, err
		}
	}
	if err := workflow.ValidateChain(chain); err != nil {
		return nil, err
	}

	if _, err := s.ccSvc.Get(req.CostCenterID); err != nil {
		return nil, workflow.NewValidationError("cost center %s not found", req.CostCenterID)
	}

	mr.RecomputeEstimation()
	if err := mr.ValidateForSubmission(); err != nil {
		return nil, err
	}

	fromStatus := mr.Status
	mr.CostCenterID = req.CostCenterID
	mr.Approvals = chain
	mr.Status = workflow.MRStatusPendingApproval

	if err := s.save(nil, mr, version, fromStatus, actor, "validated"); err != nil {
		return nil, err
	}

	metrics.RecordApproval(model.DocumentTypeMR, "validate")
	s.audit(ctx, actor, "validate", mr.ID, map[string]interface{}{
		"kode_mr":        mr.KodeMR,
		"cost_center_id": mr.CostCenterID,
		"chain_length":   len(chain),
	})
	s.publish(mr, "status_changed", actor)
	if next, ok := workflow.NextPending(mr.Approvals); ok && s.notifier != nil {
		s.notifier.Notify(next.UserID, fmt.Sprintf("Approval needed: %s", mr.KodeMR), map[string]interface{}{
			"kode_mr": mr.KodeMR,
			"status":  string(mr.Status),
		})
	}
	return mrView(mr, version+1), nil
}

func (s *materialRequestService) RejectValidation(ctx context.Context, actor workflow.Actor, id string, reason string) (*MaterialRequestView, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, workflow.NewValidationError("rejection reason is required")
	}

	mr, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanTransition(actor, mr, workflow.TransitionRejectValidation) {
		return nil, workflow.NewAuthorizationError("your role may not reject validation")
	}
	if mr.Status != workflow.MRStatusPendingValidation {
		return nil, workflow.NewConflictError("material request %s is no longer pending validation", mr.KodeMR)
	}

	fromStatus := mr.Status
	mr.Status = workflow.MRStatusRejected
	mr.AddDiscussion(actor.ID, actor.Name, fmt.Sprintf("Validation rejected: %s", reason), true, time.Now())

	if err := s.save(nil, mr, version, fromStatus, actor, reason); err != nil {
		return nil, err
	}

	metrics.RecordApproval(model.DocumentTypeMR, "reject_validation")
	s.audit(ctx, actor, "reject_validation", mr.ID, map[string]interface{}{
		"kode_mr": mr.KodeMR,
		"reason":  reason,
	})
	s.publish(mr, "status_changed", actor)
	if s.notifier != nil {
		s.notifier.Notify(mr.CreatedBy, fmt.Sprintf("Material request %s rejected", mr.KodeMR), map[string]interface{}{
			"kode_mr": mr.KodeMR,
			"reason":  reason,
		})
	}
	return mrView(mr, version+1), nil
}

func (s *materialRequestService) Approve(ctx context.Context, actor workflow.Actor, id string, req *ApproveMRRequest) (*MaterialRequestView, error) {
	mr, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if mr.Status != workflow.MRStatusPendingApproval {
		return nil, workflow.NewConflictError("material request %s is not pending approval", mr.KodeMR)
	}
	if !workflow.CanTransition(actor, mr, workflow.TransitionApprove) {
		return nil, workflow.NewAuthorizationError("you hold no slot on this approval chain")
	}

	idx, err := workflow.ActionableIndex(mr.Approvals, actor.ID)
	if err != nil {
		return nil, err
	}

	// edits travel with the decision: if the save fails, neither lands
	if req.Edit != nil {
		if err := applyMREdit(mr, req.Edit); err != nil {
			return nil, err
		}
	}

	fromStatus := mr.Status
	done := workflow.ApplyApproval(mr.Approvals, idx, req.Note, time.Now())
	if done {
		if !mr.Status.CanTransitionTo(workflow.MRStatusWaitingPO) {
			return nil, workflow.NewConflictError("material request %s cannot move to Waiting PO", mr.KodeMR)
		}
		mr.Status = workflow.MRStatusWaitingPO
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.save(tx, mr, version, fromStatus, actor, "approved"); err != nil {
			return err
		}
		if done {
			// the debit rides the same transaction: a failed debit blocks
			// the Waiting PO transition entirely
			return s.ccSvc.DebitForMR(tx, mr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordApproval(model.DocumentTypeMR, "approve")
	s.audit(ctx, actor, "approve", mr.ID, map[string]interface{}{
		"kode_mr": mr.KodeMR,
		"slot":    idx,
		"final":   done,
	})
	if done {
		s.publish(mr, "status_changed", actor)
		if s.notifier != nil {
			s.notifier.Notify(mr.CreatedBy, fmt.Sprintf("Material request %s fully approved", mr.KodeMR), map[string]interface{}{
				"kode_mr": mr.KodeMR,
				"status":  string(mr.Status),
			})
		}
	} else if next, ok := workflow.NextPending(mr.Approvals); ok && s.notifier != nil {
		s.notifier.Notify(next.UserID, fmt.Sprintf("Approval needed: %s", mr.KodeMR), map[string]interface{}{
			"kode_mr": mr.KodeMR,
			"status":  string(mr.Status),
		})
	}
	return mrView(mr, version+1), nil
}

func (s *materialRequestService) Reject(ctx context.Context, actor workflow.Actor, id string, note string) (*MaterialRequestView, error) {
	if strings.TrimSpace(note) == "" {
		return nil, workflow.NewValidationError("rejection note is required")
	}

	mr, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if mr.Status != workflow.MRStatusPendingApproval {
		return nil, workflow.NewConflictError("material request %s is not pending approval", mr.KodeMR)
	}
	if !workflow.CanTransition(actor, mr, workflow.TransitionReject) {
		return nil, workflow.NewAuthorizationError("you hold no slot on this approval chain")
	}

	idx, err := workflow.ActionableIndex(mr.Approvals, actor.ID)
	if err != nil {
		return nil, err
	}

	fromStatus := mr.Status
	workflow.ApplyRejection(mr.Approvals, idx, note, time.Now())
	mr.Status = workflow.MRStatusRejected
	mr.AddDiscussion(actor.ID, actor.Name, fmt.Sprintf("Approval rejected: %s", note), true, time.Now())

	if err := s.save(nil, mr, version, fromStatus, actor, note); err != nil {
		return nil, err
	}

	metrics.RecordApproval(model.DocumentTypeMR, "reject")
	s.audit(ctx, actor, "reject", mr.ID, map[string]interface{}{
		"kode_mr": mr.KodeMR,
		"slot":    idx,
		"note":    note,
	})
	s.publish(mr, "status_changed", actor)
	if s.notifier != nil {
		s.notifier.Notify(mr.CreatedBy, fmt.Sprintf("Material request %s rejected", mr.KodeMR), map[string]interface{}{
			"kode_mr": mr.KodeMR,
			"reason":  note,
		})
	}
	return mrView(mr, version+1), nil
}

// CloseWithBAST completes the MR and cascades completion to every linked PO
// in one transaction. If any active PO cannot be closed the whole operation
// rolls back with a CascadeError; rejected POs are left as they are.
func (s *materialRequestService) CloseWithBAST(ctx context.Context, actor workflow.Actor, id string, bast *workflow.Attachment) (*MaterialRequestView, error) {
	mr, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanTransition(actor, mr, workflow.TransitionCloseBAST) {
		return nil, workflow.NewAuthorizationError("only the original requester may close %s", mr.KodeMR)
	}
	if !mr.Status.CanTransitionTo(workflow.MRStatusCompleted) {
		return nil, workflow.NewConflictError("material request %s cannot be closed from status %s", mr.KodeMR, mr.Status)
	}

	fromStatus := mr.Status
	now := time.Now()
	if bast != nil {
		if bast.Type == "" {
			bast.Type = "bast"
		}
		mr.Attachments = append(mr.Attachments, *bast)
	}
	mr.Status = workflow.MRStatusCompleted
	mr.AddDiscussion(actor.ID, actor.Name, "BAST uploaded, document closed", true, now)

	var closedPOs []string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		poRows, err := s.poRepo.FindByMRID(mr.ID)
		if err != nil {
			return fmt.Errorf("failed to list linked purchase orders: %w", err)
		}

		var failed []string
		for _, row := range poRows {
			po, err := decodePO(row)
			if err != nil {
				return err
			}
			switch po.Status {
			case workflow.POStatusCompleted, workflow.POStatusRejected:
				continue
			}
			if !po.Status.CanTransitionTo(workflow.POStatusCompleted) {
				failed = append(failed, po.KodePO)
				continue
			}

			poFrom := po.Status
			po.Status = workflow.POStatusCompleted
			po.AddDiscussion(actor.ID, actor.Name, fmt.Sprintf("Closed together with %s", mr.KodeMR), true, now)
			po.UpdatedAt = now
			pm, err := encodePO(po, row.Version)
			if err != nil {
				return err
			}
			if err := s.poRepo.CompareAndSwap(tx, pm, row.Version); err != nil {
				return err
			}
			hist := &model.StateHistoryModel{
				ID:           uuid.New().String(),
				DocumentType: model.DocumentTypePO,
				DocumentID:   po.ID,
				FromStatus:   string(poFrom),
				ToStatus:     string(po.Status),
				Reason:       fmt.Sprintf("cascading close from %s", mr.KodeMR),
				Operator:     actor.ID,
				CreatedAt:    now,
			}
			if err := s.historyRepo.Save(tx, hist); err != nil {
				return err
			}
			closedPOs = append(closedPOs, po.KodePO)
		}
		if len(failed) > 0 {
			return &workflow.CascadeError{
				Message: fmt.Sprintf("cannot close %s: linked purchase orders are still in flight", mr.KodeMR),
				Failed:  failed,
			}
		}

		return s.save(tx, mr, version, fromStatus, actor, "BAST closure")
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordApproval(model.DocumentTypeMR, "close")
	s.audit(ctx, actor, "close", mr.ID, map[string]interface{}{
		"kode_mr":    mr.KodeMR,
		"closed_pos": closedPOs,
	})
	s.publish(mr, "status_changed", actor)
	if s.notifier != nil {
		for _, e := range mr.Approvals {
			s.notifier.Notify(e.UserID, fmt.Sprintf("Material request %s completed", mr.KodeMR), map[string]interface{}{
				"kode_mr": mr.KodeMR,
			})
		}
	}
	return mrView(mr, version+1), nil
}

func (s *materialRequestService) UpdateItemStatus(ctx context.Context, actor workflow.Actor, id string, req *UpdateItemStatusRequest) (*MaterialRequestView, error) {
	mr, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanTransition(actor, mr, workflow.TransitionUpdateItem) {
		return nil, workflow.NewAuthorizationError("your role may not update item fulfillment")
	}
	if req.ItemIndex < 0 || req.ItemIndex >= len(mr.Orders) {
		return nil, workflow.NewValidationError("item index %d out of range", req.ItemIndex)
	}

	item := &mr.Orders[req.ItemIndex]
	if !item.Status.CanTransitionTo(req.Status) {
		return nil, workflow.NewValidationError("item cannot move from %s to %s", item.Status, req.Status)
	}
	if req.Status == workflow.ItemStatusCancelled && strings.TrimSpace(req.StatusNote) == "" {
		return nil, workflow.NewValidationError("cancelling an item requires a status note")
	}

	item.Status = req.Status
	if req.StatusNote != "" {
		item.StatusNote = req.StatusNote
	}

	// goods received on the last open item: the document moves on to BAST
	fromStatus := mr.Status
	if mr.Status == workflow.MRStatusWaitingPO && mr.AllItemsSettled() {
		mr.Status = workflow.MRStatusPendingBAST
	}

	if err := s.save(nil, mr, version, fromStatus, actor, "all items settled"); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "update_item", mr.ID, map[string]interface{}{
		"kode_mr":    mr.KodeMR,
		"item_index": req.ItemIndex,
		"status":     string(req.Status),
	})
	if fromStatus != mr.Status {
		s.publish(mr, "status_changed", actor)
		if s.notifier != nil {
			s.notifier.Notify(mr.CreatedBy, fmt.Sprintf("Material request %s ready for BAST", mr.KodeMR), map[string]interface{}{
				"kode_mr": mr.KodeMR,
				"status":  string(mr.Status),
			})
		}
	}
	return mrView(mr, version+1), nil
}

func (s *materialRequestService) AddDiscussion(ctx context.Context, actor workflow.Actor, id string, message string) (*MaterialRequestView, error) {
	if strings.TrimSpace(message) == "" {
		return nil, workflow.NewValidationError("message is required")
	}

	mr, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	mr.AddDiscussion(actor.ID, actor.Name, message, false, time.Now())
	if err := s.save(nil, mr, version, mr.Status, actor, ""); err != nil {
		return nil, err
	}
	return mrView(mr, version+1), nil
}

func (s *materialRequestService) AddAttachment(ctx context.Context, actor workflow.Actor, id string, att workflow.Attachment) (*MaterialRequestView, error) {
	mr, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if actor.Role != workflow.RoleAdmin && actor.Role != workflow.RolePurchasing && mr.CreatedBy != actor.ID {
		return nil, workflow.NewAuthorizationError("you may not attach files to %s", mr.KodeMR)
	}
	mr.Attachments = append(mr.Attachments, att)
	if err := s.save(nil, mr, version, mr.Status, actor, ""); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "add_attachment", mr.ID, map[string]interface{}{
		"kode_mr": mr.KodeMR,
		"path":    att.Path,
	})
	return mrView(mr, version+1), nil
}

func (s *materialRequestService) RemoveAttachment(ctx context.Context, actor workflow.Actor, id string, path string) (*MaterialRequestView, error) {
	mr, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if actor.Role != workflow.RoleAdmin && actor.Role != workflow.RolePurchasing && mr.CreatedBy != actor.ID {
		return nil, workflow.NewAuthorizationError("you may not remove files from %s", mr.KodeMR)
	}

	kept := mr.Attachments[:0]
	removed := false
	for _, a := range mr.Attachments {
		if a.Path == path {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	if !removed {
		return nil, workflow.NewValidationError("attachment %s not found", path)
	}
	mr.Attachments = kept

	if err := s.save(nil, mr, version, mr.Status, actor, ""); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "remove_attachment", mr.ID, map[string]interface{}{
		"kode_mr": mr.KodeMR,
		"path":    path,
	})
	return mrView(mr, version+1), nil
}

// ReassignCostCenter is the privileged correction path: normal validation
// never changes a committed cost center. It does not move an already-fired
// debit; the administrator reconciles the ledgers with explicit adjustments.
func (s *materialRequestService) ReassignCostCenter(ctx context.Context, actor workflow.Actor, id string, req *ReassignCostCenterRequest) (*MaterialRequestView, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, workflow.NewValidationError("reassignment reason is required")
	}

	mr, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanTransition(actor, mr, workflow.TransitionReassignCC) {
		return nil, workflow.NewAuthorizationError("only an administrator may reassign a cost center")
	}
	if mr.Status.IsTerminal() {
		return nil, workflow.NewConflictError("material request %s is already closed", mr.KodeMR)
	}
	if _, err := s.ccSvc.Get(req.CostCenterID); err != nil {
		return nil, workflow.NewValidationError("cost center %s not found", req.CostCenterID)
	}

	previous := mr.CostCenterID
	mr.CostCenterID = req.CostCenterID
	mr.AddDiscussion(actor.ID, actor.Name, fmt.Sprintf("Cost center reassigned: %s", req.Reason), true, time.Now())

	if err := s.save(nil, mr, version, mr.Status, actor, ""); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "reassign_cost_center", mr.ID, map[string]interface{}{
		"kode_mr": mr.KodeMR,
		"from":    previous,
		"to":      req.CostCenterID,
		"reason":  req.Reason,
	})
	return mrView(mr, version+1), nil
}

func (s *materialRequestService) StateHistory(id string) ([]*model.StateHistoryModel, error) {
	return s.historyRepo.FindByDocument(model.DocumentTypeMR, id)
}
