package workflow

import (
	"strings"
	"time"
)

// ApprovalType distinguishes the two sign-off kinds used on approval chains.
type ApprovalType string

const (
	ApprovalTypeMengetahui ApprovalType = "Mengetahui"
	ApprovalTypeMenyetujui ApprovalType = "Menyetujui"
)

// ApprovalStatus is the per-entry execution state of an approval chain.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// ApprovalEntry is one sign-off slot in a document's approval chain.
type ApprovalEntry struct {
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	Department  string         `json:"department"`
	Type        ApprovalType   `json:"type"`
	Status      ApprovalStatus `json:"status"`
	Note        string         `json:"note,omitempty"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
}

// OrderItem is one requested line item on a material request.
type OrderItem struct {
	Name          string     `json:"name"`
	PartNumber    string     `json:"part_number,omitempty"`
	Qty           int64      `json:"qty"`
	UOM           string     `json:"uom"`
	EstimasiHarga int64      `json:"estimasi_harga"` // unit price estimate, rupiah
	URL           string     `json:"url,omitempty"`
	Note          string     `json:"note,omitempty"`
	Status        ItemStatus `json:"status"`
	StatusNote    string     `json:"status_note,omitempty"`
	PORefs        []string   `json:"po_refs,omitempty"` // append-only kode_po references
}

// EstimatedTotal returns qty multiplied by the unit price estimate.
func (it *OrderItem) EstimatedTotal() int64 {
	return it.Qty * it.EstimasiHarga
}

// AddPORef appends a PO reference unless it is already recorded.
// References are never removed, even when the PO is later rejected.
func (it *OrderItem) AddPORef(kodePO string) {
	for _, ref := range it.PORefs {
		if ref == kodePO {
			return
		}
	}
	it.PORefs = append(it.PORefs, kodePO)
}

// Attachment is an uploaded file reference, stored in the blob store and
// namespaced by document code.
type Attachment struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"` // e.g. "po", "finance", "bast"
}

// Discussion is one entry of the append-only comment log on a document.
type Discussion struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Message   string    `json:"message"`
	System    bool      `json:"system,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MaterialRequest is the MR aggregate. It is created once and mutated in
// place through its status lifecycle; line items, approvals, attachments
// and discussions are embedded sub-documents.
type MaterialRequest struct {
	ID             string          `json:"id"`
	KodeMR         string          `json:"kode_mr"`
	Status         MRStatus        `json:"status"`
	Level          string          `json:"level,omitempty"` // logistics marker, e.g. "OPEN 1"
	CostCenterID   string          `json:"cost_center_id,omitempty"`
	Orders         []OrderItem     `json:"orders"`
	Approvals      []ApprovalEntry `json:"approvals"`
	Attachments    []Attachment    `json:"attachments,omitempty"`
	Discussions    []Discussion    `json:"discussions,omitempty"`
	CostEstimation int64           `json:"cost_estimation"`
	DueDate        time.Time       `json:"due_date"`
	Remarks        string          `json:"remarks,omitempty"`
	Department     string          `json:"department"`
	CompanyCode    string          `json:"company_code"`
	TujuanSite     string          `json:"tujuan_site"`
	CreatedBy      string          `json:"created_by"`
	CreatedByName  string          `json:"created_by_name"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// RecomputeEstimation recalculates cost_estimation from the line items.
// The field is never edited independently.
func (mr *MaterialRequest) RecomputeEstimation() {
	mr.CostEstimation = CostEstimation(mr.Orders)
}

// Prioritas derives the current priority band from the due date.
func (mr *MaterialRequest) Prioritas(now time.Time) Priority {
	return PriorityFor(mr.DueDate, now)
}

// AllItemsSettled reports whether every line item reached a terminal
// fulfillment state. A settled MR in Waiting PO is ready for BAST.
func (mr *MaterialRequest) AllItemsSettled() bool {
	if len(mr.Orders) == 0 {
		return false
	}
	for _, it := range mr.Orders {
		if it.Status != ItemStatusFulfilled && it.Status != ItemStatusCancelled {
			return false
		}
	}
	return true
}

// AddDiscussion appends an entry to the comment log.
func (mr *MaterialRequest) AddDiscussion(userID, userName, message string, system bool, now time.Time) {
	mr.Discussions = append(mr.Discussions, Discussion{
		UserID:    userID,
		UserName:  userName,
		Message:   message,
		System:    system,
		CreatedAt: now,
	})
}

// ValidateForSubmission checks the invariants an MR must satisfy before it
// can enter the approval flow.
func (mr *MaterialRequest) ValidateForSubmission() error {
	if len(mr.Orders) == 0 {
		return NewValidationError("material request must contain at least one item")
	}
	for i, it := range mr.Orders {
		if strings.TrimSpace(it.Name) == "" {
			return NewValidationError("item %d: name is required", i+1)
		}
		if it.Qty <= 0 {
			return NewValidationError("item %d: qty must be positive", i+1)
		}
		if it.EstimasiHarga <= 0 {
			return NewValidationError("item %d: estimated price must be positive", i+1)
		}
	}
	return nil
}

// DocStatus implements Document.
func (mr *MaterialRequest) DocStatus() string { return string(mr.Status) }

// OwnerID implements Document.
func (mr *MaterialRequest) OwnerID() string { return mr.CreatedBy }

// Chain implements Document.
func (mr *MaterialRequest) Chain() []ApprovalEntry { return mr.Approvals }

// TaxMode selects how the PO tax component is derived.
type TaxMode string

const (
	TaxModePercent  TaxMode = "percent"  // tax = subtotal * rate
	TaxModeManual   TaxMode = "manual"   // tax entered as an absolute value
	TaxModeIncluded TaxMode = "included" // prices already include tax
)

// POItem is one line item on a purchase order.
type POItem struct {
	BarangID   string `json:"barang_id,omitempty"`
	PartNumber string `json:"part_number,omitempty"`
	Name       string `json:"name"`
	Qty        int64  `json:"qty"`
	UOM        string `json:"uom"`
	Price      int64  `json:"price"`
	TotalPrice int64  `json:"total_price"` // qty * price, recomputed
	VendorName string `json:"vendor_name,omitempty"`
	MRItem     *int   `json:"mr_item,omitempty"` // index of the MR item this line fulfills
}

// PurchaseOrder is the PO aggregate, structurally analogous to the MR.
type PurchaseOrder struct {
	ID            string          `json:"id"`
	KodePO        string          `json:"kode_po"`
	MRID          string          `json:"mr_id,omitempty"` // empty for repeat orders
	KodeMR        string          `json:"kode_mr,omitempty"`
	Status        POStatus        `json:"status"`
	Items         []POItem        `json:"items"`
	Approvals     []ApprovalEntry `json:"approvals"`
	Attachments   []Attachment    `json:"attachments,omitempty"`
	Discussions   []Discussion    `json:"discussions,omitempty"`
	Discount      int64           `json:"discount"`
	TaxMode       TaxMode         `json:"tax_mode"`
	TaxPercent    float64         `json:"tax_percent"`
	TaxManual     int64           `json:"tax_manual"` // kept across mode flips
	Tax           int64           `json:"tax"`        // effective tax, recomputed
	Postage       int64           `json:"postage"`
	TotalPrice    int64           `json:"total_price"` // recomputed
	PaymentTerm   string          `json:"payment_term,omitempty"`
	VendorDetails string          `json:"vendor_details,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CompanyCode   string          `json:"company_code,omitempty"`
	CreatedBy     string          `json:"created_by"`
	CreatedByName string          `json:"created_by_name"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// RecomputeTotals recalculates every derived financial field on the PO.
// Called after any item or financial-field change.
func (po *PurchaseOrder) RecomputeTotals() {
	for i := range po.Items {
		po.Items[i].TotalPrice = po.Items[i].Qty * po.Items[i].Price
	}
	subtotal := POSubtotal(po.Items)
	po.Tax = EffectiveTax(po.TaxMode, subtotal, po.TaxPercent, po.TaxManual)
	po.TotalPrice = subtotal - po.Discount + po.Tax + po.Postage
}

// AddDiscussion appends an entry to the comment log.
func (po *PurchaseOrder) AddDiscussion(userID, userName, message string, system bool, now time.Time) {
	po.Discussions = append(po.Discussions, Discussion{
		UserID:    userID,
		UserName:  userName,
		Message:   message,
		System:    system,
		CreatedAt: now,
	})
}

// ValidateForSubmission checks the invariants a PO must satisfy before it
// can enter the approval flow.
func (po *PurchaseOrder) ValidateForSubmission() error {
	if len(po.Items) == 0 {
		return NewValidationError("purchase order must contain at least one item")
	}
	for i, it := range po.Items {
		if strings.TrimSpace(it.Name) == "" {
			return NewValidationError("item %d: name is required", i+1)
		}
		if it.Qty <= 0 {
			return NewValidationError("item %d: qty must be positive", i+1)
		}
		if it.Price <= 0 {
			return NewValidationError("item %d: price must be positive", i+1)
		}
	}
	return nil
}

// DocStatus implements Document.
func (po *PurchaseOrder) DocStatus() string { return string(po.Status) }

// OwnerID implements Document.
func (po *PurchaseOrder) OwnerID() string { return po.CreatedBy }

// Chain implements Document.
func (po *PurchaseOrder) Chain() []ApprovalEntry { return po.Approvals }
