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

// PurchaseOrderService drives the PO lifecycle. The validate/approve/reject
// mechanics mirror the MR service; a fully approved PO lands on Pending BAST
// because the PO itself is the procurement instrument. POs created against an
// MR move the matched MR items to On Process and record the PO code on them
// in the same transaction.
type PurchaseOrderService interface {
	Create(ctx context.Context, actor workflow.Actor, req *CreatePORequest) (*PurchaseOrderView, error)
	Get(id string) (*PurchaseOrderView, error)
	List(filter *repository.PurchaseOrderFilter) ([]*PurchaseOrderView, error)
	ListByMR(mrID string) ([]*PurchaseOrderView, error)
	Update(ctx context.Context, actor workflow.Actor, id string, req *UpdatePORequest) (*PurchaseOrderView, error)
	Delete(ctx context.Context, actor workflow.Actor, id string) error

	Submit(ctx context.Context, actor workflow.Actor, id string) (*PurchaseOrderView, error)
	Validate(ctx context.Context, actor workflow.Actor, id string, req *ValidatePORequest) (*PurchaseOrderView, error)
	RejectValidation(ctx context.Context, actor workflow.Actor, id string, reason string) (*PurchaseOrderView, error)
	Approve(ctx context.Context, actor workflow.Actor, id string, note string) (*PurchaseOrderView, error)
	Reject(ctx context.Context, actor workflow.Actor, id string, note string) (*PurchaseOrderView, error)
	MarkOrdered(ctx context.Context, actor workflow.Actor, id string) (*PurchaseOrderView, error)
	CloseWithBAST(ctx context.Context, actor workflow.Actor, id string, bast *workflow.Attachment) (*PurchaseOrderView, error)

	AddDiscussion(ctx context.Context, actor workflow.Actor, id string, message string) (*PurchaseOrderView, error)
	AddAttachment(ctx context.Context, actor workflow.Actor, id string, att workflow.Attachment) (*PurchaseOrderView, error)
	StateHistory(id string) ([]*model.StateHistoryModel, error)
}

// PurchaseOrderView is the decoded aggregate with its version stamp.
type PurchaseOrderView struct {
	*workflow.PurchaseOrder
	Version int `json:"version"`
}

// CreatePORequest creates a purchase order. MRID empty means a repeat order
// with no material request linkage. Draft keeps the PO editable before it is
// submitted for validation.
type CreatePORequest struct {
	MRID          string            `json:"mr_id"`
	Items         []workflow.POItem `json:"items" binding:"required"`
	Discount      int64             `json:"discount"`
	TaxMode       workflow.TaxMode  `json:"tax_mode"`
	TaxPercent    float64           `json:"tax_percent"`
	TaxManual     int64             `json:"tax_manual"`
	Postage       int64             `json:"postage"`
	PaymentTerm   string            `json:"payment_term"`
	VendorDetails string            `json:"vendor_details"`
	Notes         string            `json:"notes"`
	TujuanSite    string            `json:"tujuan_site" binding:"required"`
	Draft         bool              `json:"draft"`
}

// UpdatePORequest edits a draft PO. Nil fields are left untouched.
type UpdatePORequest struct {
	Items         *[]workflow.POItem `json:"items"`
	Discount      *int64             `json:"discount"`
	TaxMode       *workflow.TaxMode  `json:"tax_mode"`
	TaxPercent    *float64           `json:"tax_percent"`
	TaxManual     *int64             `json:"tax_manual"`
	Postage       *int64             `json:"postage"`
	PaymentTerm   *string            `json:"payment_term"`
	VendorDetails *string            `json:"vendor_details"`
	Notes         *string            `json:"notes"`
}

// ValidatePORequest commits the approval chain on a PO.
type ValidatePORequest struct {
	TemplateID string                   `json:"template_id"`
	Entries    []workflow.TemplateEntry `json:"entries"`
}

type purchaseOrderService struct {
	db          *gorm.DB
	poRepo      repository.PurchaseOrderRepository
	mrRepo      repository.MaterialRequestRepository
	seqRepo     repository.SequenceRepository
	historyRepo repository.StateHistoryRepository
	templateSvc ApprovalTemplateService
	auditLogSvc AuditLogService
	notifier    notify.Notifier
	hub         *websocket.Hub
}

// NewPurchaseOrderService wires the PO workflow service.
func NewPurchaseOrderService(
	db *gorm.DB,
	poRepo repository.PurchaseOrderRepository,
	mrRepo repository.MaterialRequestRepository,
	seqRepo repository.SequenceRepository,
	historyRepo repository.StateHistoryRepository,
	templateSvc ApprovalTemplateService,
	auditLogSvc AuditLogService,
	notifier notify.Notifier,
	hub *websocket.Hub,
) PurchaseOrderService {
	return &purchaseOrderService{
		db:          db,
		poRepo:      poRepo,
		mrRepo:      mrRepo,
		seqRepo:     seqRepo,
		historyRepo: historyRepo,
		templateSvc: templateSvc,
		auditLogSvc: auditLogSvc,
		notifier:    notifier,
		hub:         hub,
	}
}

func decodePO(m *model.PurchaseOrderModel) (*workflow.PurchaseOrder, error) {
	var po workflow.PurchaseOrder
	if err := json.Unmarshal(m.Data, &po); err != nil {
		return nil, fmt.Errorf("failed to decode purchase order %s: %w", m.ID, err)
	}
	return &po, nil
}

func encodePO(po *workflow.PurchaseOrder, version int) (*model.PurchaseOrderModel, error) {
	data, err := json.Marshal(po)
	if err != nil {
		return nil, fmt.Errorf("failed to encode purchase order %s: %w", po.ID, err)
	}
	var mrID *string
	if po.MRID != "" {
		v := po.MRID
		mrID = &v
	}
	return &model.PurchaseOrderModel{
		ID:          po.ID,
		KodePO:      po.KodePO,
		MRID:        mrID,
		Status:      string(po.Status),
		TotalPrice:  po.TotalPrice,
		CompanyCode: po.CompanyCode,
		CreatedBy:   po.CreatedBy,
		Version:     version,
		Data:        data,
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
	}, nil
}

func poView(po *workflow.PurchaseOrder, version int) *PurchaseOrderView {
	return &PurchaseOrderView{PurchaseOrder: po, Version: version}
}

func (s *purchaseOrderService) load(id string) (*workflow.PurchaseOrder, int, error) {
	m, err := s.poRepo.FindByID(id)
	if err != nil {
		return nil, 0, err
	}
	po, err := decodePO(m)
	if err != nil {
		return nil, 0, err
	}
	return po, m.Version, nil
}

func (s *purchaseOrderService) save(tx *gorm.DB, po *workflow.PurchaseOrder, expectedVersion int, fromStatus workflow.POStatus, actor workflow.Actor, reason string) error {
	po.UpdatedAt = time.Now()
	m, err := encodePO(po, expectedVersion)
	if err != nil {
		return err
	}
	if err := s.poRepo.CompareAndSwap(tx, m, expectedVersion); err != nil {
		return err
	}
	if fromStatus != po.Status {
		row := &model.StateHistoryModel{
			ID:           uuid.New().String(),
			DocumentType: model.DocumentTypePO,
			DocumentID:   po.ID,
			FromStatus:   string(fromStatus),
			ToStatus:     string(po.Status),
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

func (s *purchaseOrderService) publish(po *workflow.PurchaseOrder, eventType string, actor workflow.Actor) {
	if s.hub == nil {
		return
	}
	s.hub.PublishEvent(websocket.Event{
		Type:         eventType,
		DocumentType: model.DocumentTypePO,
		DocumentID:   po.ID,
		Kode:         po.KodePO,
		Status:       string(po.Status),
		ActorID:      actor.ID,
	})
}

func (s *purchaseOrderService) audit(ctx context.Context, actor workflow.Actor, action, id string, details interface{}) {
	if s.auditLogSvc == nil {
		return
	}
	_ = s.auditLogSvc.RecordAction(ctx, actor.ID, action, model.DocumentTypePO, id, details)
}

func (s *purchaseOrderService) Create(ctx context.Context, actor workflow.Actor, req *CreatePORequest) (*PurchaseOrderView, error) {
	if !workflow.CanTransition(actor, &workflow.PurchaseOrder{CreatedBy: actor.ID}, workflow.TransitionCreatePO) {
		return nil, workflow.NewAuthorizationError("your role may not create purchase orders")
	}

	taxMode := req.TaxMode
	if taxMode == "" {
		taxMode = workflow.TaxModePercent
	}
	switch taxMode {
	case workflow.TaxModePercent, workflow.TaxModeManual, workflow.TaxModeIncluded:
	default:
		return nil, workflow.NewValidationError("unknown tax mode %q", taxMode)
	}

	now := time.Now()
	status := workflow.POStatusPendingValidation
	if req.Draft {
		status = workflow.POStatusDraft
	}

	po := &workflow.PurchaseOrder{
		ID:            uuid.New().String(),
		Status:        status,
		Items:         append([]workflow.POItem(nil), req.Items...),
		Discount:      req.Discount,
		TaxMode:       taxMode,
		TaxPercent:    req.TaxPercent,
		TaxManual:     req.TaxManual,
		Postage:       req.Postage,
		PaymentTerm:   req.PaymentTerm,
		VendorDetails: req.VendorDetails,
		Notes:         req.Notes,
		CompanyCode:   actor.Company,
		CreatedBy:     actor.ID,
		CreatedByName: actor.Name,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	po.RecomputeTotals()
	if err := po.ValidateForSubmission(); err != nil {
		return nil, err
	}

	// resolve the MR linkage outside the transaction, link inside it
	var mrModel *model.MaterialRequestModel
	var mr *workflow.MaterialRequest
	if req.MRID != "" {
		var err error
		mrModel, err = s.mrRepo.FindByID(req.MRID)
		if err != nil {
			return nil, workflow.NewValidationError("material request %s not found", req.MRID)
		}
		mr, err = decodeMR(mrModel)
		if err != nil {
			return nil, err
		}
		if mr.Status != workflow.MRStatusWaitingPO {
			return nil, workflow.NewConflictError("material request %s is not waiting for a purchase order", mr.KodeMR)
		}
		for i, it := range po.Items {
			if it.MRItem == nil {
				continue
			}
			if *it.MRItem < 0 || *it.MRItem >= len(mr.Orders) {
				return nil, workflow.NewValidationError("item %d references an unknown material request line", i+1)
			}
		}
		po.MRID = mr.ID
		po.KodeMR = mr.KodeMR
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		seq, err := s.seqRepo.Next(tx, workflow.SequenceScopePO(req.TujuanSite))
		if err != nil {
			return fmt.Errorf("failed to allocate document code: %w", err)
		}
		po.KodePO = workflow.FormatKodePO(req.TujuanSite, seq)

		m, err := encodePO(po, 1)
		if err != nil {
			return err
		}
		if err := s.poRepo.Create(tx, m); err != nil {
			return err
		}

		if mr != nil {
			for _, it := range po.Items {
				if it.MRItem == nil {
					continue
				}
				item := &mr.Orders[*it.MRItem]
				if item.Status == workflow.ItemStatusPending {
					item.Status = workflow.ItemStatusOnProcess
				}
				item.AddPORef(po.KodePO)
			}
			mr.UpdatedAt = time.Now()
			mm, err := encodeMR(mr, mrModel.Version)
			if err != nil {
				return err
			}
			return s.mrRepo.CompareAndSwap(tx, mm, mrModel.Version)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordDocumentCreated(model.DocumentTypePO)
	s.audit(ctx, actor, "create", po.ID, map[string]interface{}{
		"kode_po":     po.KodePO,
		"mr_id":       po.MRID,
		"total_price": po.TotalPrice,
	})
	s.publish(po, "created", actor)
	return poView(po, 1), nil
}

func (s *purchaseOrderService) Get(id string) (*PurchaseOrderView, error) {
	po, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	return poView(po, version), nil
}

func (s *purchaseOrderService) List(filter *repository.PurchaseOrderFilter) ([]*PurchaseOrderView, error) {
	rows, err := s.poRepo.FindByFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.views(rows)
}

func (s *purchaseOrderService) ListByMR(mrID string) ([]*PurchaseOrderView, error) {
	rows, err := s.poRepo.FindByMRID(mrID)
	if err != nil {
		return nil, err
	}
	return s.views(rows)
}

func (s *purchaseOrderService) views(rows []*model.PurchaseOrderModel) ([]*PurchaseOrderView, error) {
	views := make([]*PurchaseOrderView, 0, len(rows))
	for _, m := range rows {
		po, err := decodePO(m)
		if err != nil {
			return nil, err
		}
		views = append(views, poView(po, m.Version))
	}
	return views, nil
}

func (s *purchaseOrderService) Update(ctx context.Context, actor workflow.Actor, id string, req *UpdatePORequest) (*PurchaseOrderView, error) {
	po, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanTransition(actor, po, workflow.TransitionEdit) {
		return nil, workflow.NewAuthorizationError("you may not edit %s in its current state", po.KodePO)
	}

	if req.Items != nil {
		po.Items = *req.Items
	}
	if req.Discount != nil {
		po.Discount = *req.Discount
	}
	if req.TaxMode != nil {
		// a manually entered tax value survives mode flips; only the
		// effective tax changes
		po.TaxMode = *req.TaxMode
	}
	if req.TaxPercent != nil {
		po.TaxPercent = *req.TaxPercent
	}
	if req.TaxManual != nil {
		po.TaxManual = *req.TaxManual
	}
	if req.Postage != nil {
		po.Postage = *req.Postage
	}
	if req.PaymentTerm != nil {
		po.PaymentTerm = *req.PaymentTerm
	}
	if req.VendorDetails != nil {
		po.VendorDetails = *req.VendorDetails
	}
	if req.Notes != nil {
		po.Notes = *req.Notes
	}
	po.RecomputeTotals()
	if err := po.ValidateForSubmission(); err != nil {
		return nil, err
	}

	if err := s.save(nil, po, version, po.Status, actor, ""); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "update", po.ID, map[string]interface{}{"kode_po": po.KodePO})
	return poView(po, version+1), nil
}

func (s *purchaseOrderService) Delete(ctx context.Context, actor workflow.Actor, id string) error {
	po, _, err := s.load(id)
	if err != nil {
		return err
	}
	if !workflow.CanTransition(actor, po, workflow.TransitionDelete) {
		return workflow.NewAuthorizationError("only the creator may delete %s, and only while it is a draft", po.KodePO)
	}
	if err := s.poRepo.Delete(nil, id); err != nil {
		return err
	}
	s.audit(ctx, actor, "delete", id, map[string]interface{}{"kode_po": po.KodePO})
	return nil
}

func (s *purchaseOrderService) Submit(ctx context.Context, actor workflow.Actor, id string) (*PurchaseOrderView, error) {
	po, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if po.CreatedBy != actor.ID && actor.Role != workflow.RoleAdmin {
		return nil, workflow.NewAuthorizationError("only the creator may submit %s", po.KodePO)
	}
	if !po.Status.CanTransitionTo(workflow.POStatusPendingValidation) {
		return nil, workflow.NewConflictError("purchase order %s cannot be submitted from status %s", po.KodePO, po.Status)
	}
	if err := po.ValidateForSubmission(); err != nil {
		return nil, err
	}

	fromStatus := po.Status
	po.Status = workflow.POStatusPendingValidation
	if err := s.save(nil, po, version, fromStatus, actor, "submitted"); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "submit", po.ID, map[string]interface{}{"kode_po": po.KodePO})
	s.publish(po, "status_changed", actor)
	return poView(po, version+1), nil
}

func (s *purchaseOrderService) Validate(ctx context.Context, actor workflow.Actor, id string, req *ValidatePORequest) (*PurchaseOrderView, error) {
	po, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanTransition(actor, po, workflow.TransitionValidate) {
		return nil, workflow.NewAuthorizationError("your role may not validate purchase orders")
	}
	if po.Status != workflow.POStatusPendingValidation {
		return nil, workflow.NewConflictError("purchase order %s is no longer pending validation", po.KodePO)
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

	po.RecomputeTotals()
	if err := po.ValidateForSubmission(); err != nil {
		return nil, err
	}

	fromStatus := po.Status
	po.Approvals = chain
	po.Status = workflow.POStatusPendingApproval
	if err := s.save(nil, po, version, fromStatus, actor, "validated"); err != nil {
		return nil, err
	}

	metrics.RecordApproval(model.DocumentTypePO, "validate")
	s.audit(ctx, actor, "validate", po.ID, map[string]interface{}{
		"kode_po":      po.KodePO,
		"chain_length": len(chain),
	})
	s.publish(po, "status_changed", actor)
	if next, ok := workflow.NextPending(po.Approvals); ok && s.notifier != nil {
		s.notifier.Notify(next.UserID, fmt.Sprintf("Approval needed: %s", po.KodePO), map[string]interface{}{
			"kode_po": po.KodePO,
			"status":  string(po.Status),
		})
	}
	return poView(po, version+1), nil
}

func (s *purchaseOrderService) RejectValidation(ctx context.Context, actor workflow.Actor, id string, reason string) (*PurchaseOrderView, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, workflow.NewValidationError("rejection reason is required")
	}

	po, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanTransition(actor, po, workflow.TransitionRejectValidation) {
		return nil, workflow.NewAuthorizationError("your role may not reject validation")
	}
	if po.Status != workflow.POStatusPendingValidation {
		return nil, workflow.NewConflictError("purchase order %s is no longer pending validation", po.KodePO)
	}

	fromStatus := po.Status
	po.Status = workflow.POStatusRejected
	po.AddDiscussion(actor.ID, actor.Name, fmt.Sprintf("Validation rejected: %s", reason), true, time.Now())

	if err := s.save(nil, po, version, fromStatus, actor, reason); err != nil {
		return nil, err
	}

	metrics.RecordApproval(model.DocumentTypePO, "reject_validation")
	s.audit(ctx, actor, "reject_validation", po.ID, map[string]interface{}{
		"kode_po": po.KodePO,
		"reason":  reason,
	})
	s.publish(po, "status_changed", actor)
	if s.notifier != nil {
		s.notifier.Notify(po.CreatedBy, fmt.Sprintf("Purchase order %s rejected", po.KodePO), map[string]interface{}{
			"kode_po": po.KodePO,
			"reason":  reason,
		})
	}
	return poView(po, version+1), nil
}

func (s *purchaseOrderService) Approve(ctx context.Context, actor workflow.Actor, id string, note string) (*PurchaseOrderView, error) {
	po, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if po.Status != workflow.POStatusPendingApproval {
		return nil, workflow.NewConflictError("purchase order %s is not pending approval", po.KodePO)
	}
	if !workflow.CanTransition(actor, po, workflow.TransitionApprove) {
		return nil, workflow.NewAuthorizationError("you hold no slot on this approval chain")
	}

	idx, err := workflow.ActionableIndex(po.Approvals, actor.ID)
	if err != nil {
		return nil, err
	}

	fromStatus := po.Status
	done := workflow.ApplyApproval(po.Approvals, idx, note, time.Now())
	if done {
		po.Status = workflow.POStatusPendingBAST
	}

	if err := s.save(nil, po, version, fromStatus, actor, "approved"); err != nil {
		return nil, err
	}

	metrics.RecordApproval(model.DocumentTypePO, "approve")
	s.audit(ctx, actor, "approve", po.ID, map[string]interface{}{
		"kode_po": po.KodePO,
		"slot":    idx,
		"final":   done,
	})
	if done {
		s.publish(po, "status_changed", actor)
		if s.notifier != nil {
			s.notifier.Notify(po.CreatedBy, fmt.Sprintf("Purchase order %s fully approved", po.KodePO), map[string]interface{}{
				"kode_po": po.KodePO,
				"status":  string(po.Status),
			})
		}
	} else if next, ok := workflow.NextPending(po.Approvals); ok && s.notifier != nil {
		s.notifier.Notify(next.UserID, fmt.Sprintf("Approval needed: %s", po.KodePO), map[string]interface{}{
			"kode_po": po.KodePO,
			"status":  string(po.Status),
		})
	}
	return poView(po, version+1), nil
}

func (s *purchaseOrderService) Reject(ctx context.Context, actor workflow.Actor, id string, note string) (*PurchaseOrderView, error) {
	if strings.TrimSpace(note) == "" {
		return nil, workflow.NewValidationError("rejection note is required")
	}

	po, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if po.Status != workflow.POStatusPendingApproval {
		return nil, workflow.NewConflictError("purchase order %s is not pending approval", po.KodePO)
	}
	if !workflow.CanTransition(actor, po, workflow.TransitionReject) {
		return nil, workflow.NewAuthorizationError("you hold no slot on this approval chain")
	}

	idx, err := workflow.ActionableIndex(po.Approvals, actor.ID)
	if err != nil {
		return nil, err
	}

	fromStatus := po.Status
	workflow.ApplyRejection(po.Approvals, idx, note, time.Now())
	po.Status = workflow.POStatusRejected
	po.AddDiscussion(actor.ID, actor.Name, fmt.Sprintf("Approval rejected: %s", note), true, time.Now())

	if err := s.save(nil, po, version, fromStatus, actor, note); err != nil {
		return nil, err
	}

	metrics.RecordApproval(model.DocumentTypePO, "reject")
	s.audit(ctx, actor, "reject", po.ID, map[string]interface{}{
		"kode_po": po.KodePO,
		"slot":    idx,
		"note":    note,
	})
	s.publish(po, "status_changed", actor)
	if s.notifier != nil {
		s.notifier.Notify(po.CreatedBy, fmt.Sprintf("Purchase order %s rejected", po.KodePO), map[string]interface{}{
			"kode_po": po.KodePO,
			"reason":  note,
		})
	}
	return poView(po, version+1), nil
}

func (s *purchaseOrderService) MarkOrdered(ctx context.Context, actor workflow.Actor, id string) (*PurchaseOrderView, error) {
	po, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanTransition(actor, po, workflow.TransitionMarkOrdered) {
		return nil, workflow.NewAuthorizationError("your role may not mark purchase orders as ordered")
	}
	if !po.Status.CanTransitionTo(workflow.POStatusOrdered) {
		return nil, workflow.NewConflictError("purchase order %s cannot be marked ordered from status %s", po.KodePO, po.Status)
	}

	fromStatus := po.Status
	po.Status = workflow.POStatusOrdered
	if err := s.save(nil, po, version, fromStatus, actor, "sent to vendor"); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "mark_ordered", po.ID, map[string]interface{}{"kode_po": po.KodePO})
	s.publish(po, "status_changed", actor)
	return poView(po, version+1), nil
}

func (s *purchaseOrderService) CloseWithBAST(ctx context.Context, actor workflow.Actor, id string, bast *workflow.Attachment) (*PurchaseOrderView, error) {
	po, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanTransition(actor, po, workflow.TransitionCloseBAST) {
		return nil, workflow.NewAuthorizationError("only the creator may close %s", po.KodePO)
	}
	if !po.Status.CanTransitionTo(workflow.POStatusCompleted) {
		return nil, workflow.NewConflictError("purchase order %s cannot be closed from status %s", po.KodePO, po.Status)
	}

	fromStatus := po.Status
	now := time.Now()
	if bast != nil {
		if bast.Type == "" {
			bast.Type = "bast"
		}
		po.Attachments = append(po.Attachments, *bast)
	}
	po.Status = workflow.POStatusCompleted
	po.AddDiscussion(actor.ID, actor.Name, "BAST uploaded, document closed", true, now)

	if err := s.save(nil, po, version, fromStatus, actor, "BAST closure"); err != nil {
		return nil, err
	}

	metrics.RecordApproval(model.DocumentTypePO, "close")
	s.audit(ctx, actor, "close", po.ID, map[string]interface{}{"kode_po": po.KodePO})
	s.publish(po, "status_changed", actor)
	return poView(po, version+1), nil
}

func (s *purchaseOrderService) AddDiscussion(ctx context.Context, actor workflow.Actor, id string, message string) (*PurchaseOrderView, error) {
	if strings.TrimSpace(message) == "" {
		return nil, workflow.NewValidationError("message is required")
	}

	po, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	po.AddDiscussion(actor.ID, actor.Name, message, false, time.Now())
	if err := s.save(nil, po, version, po.Status, actor, ""); err != nil {
		return nil, err
	}
	return poView(po, version+1), nil
}

func (s *purchaseOrderService) AddAttachment(ctx context.Context, actor workflow.Actor, id string, att workflow.Attachment) (*PurchaseOrderView, error) {
	po, version, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if actor.Role != workflow.RoleAdmin && actor.Role != workflow.RolePurchasing && po.CreatedBy != actor.ID {
		return nil, workflow.NewAuthorizationError("you may not attach files to %s", po.KodePO)
	}
	if att.Type == "" {
		att.Type = "po"
	}
	po.Attachments = append(po.Attachments, att)
	if err := s.save(nil, po, version, po.Status, actor, ""); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "add_attachment", po.ID, map[string]interface{}{
		"kode_po": po.KodePO,
		"path":    att.Path,
		"type":    att.Type,
	})
	return poView(po, version+1), nil
}

func (s *purchaseOrderService) StateHistory(id string) ([]*model.StateHistoryModel, error) {
	return s.historyRepo.FindByDocument(model.DocumentTypePO, id)
}
