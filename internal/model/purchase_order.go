package model

import (
	"errors"
	"time"
)

// PurchaseOrderModel is the persisted PO aggregate, same shape as the MR:
// serialized document plus indexed columns plus an optimistic version stamp.
// MRID is null for repeat orders that are not tied to a material request.
type PurchaseOrderModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	KodePO      string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	MRID        *string   `gorm:"type:varchar(64);index"`
	Status      string    `gorm:"type:varchar(32);not null;index"`
	TotalPrice  int64     `gorm:"not null;default:0"`
	CompanyCode string    `gorm:"type:varchar(32);index"`
	CreatedBy   string    `gorm:"type:varchar(64);index"`
	Version     int       `gorm:"not null;default:1"`
	Data        []byte    `gorm:"type:jsonb;not null"` // serialized workflow.PurchaseOrder
	CreatedAt   time.Time `gorm:"not null;index"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// Validate checks the persisted model.
func (m *PurchaseOrderModel) Validate() error {
	if m.ID == "" {
		return errors.New("purchase order ID is required")
	}
	if m.KodePO == "" {
		return errors.New("kode_po is required")
	}
	if m.Status == "" {
		return errors.New("status is required")
	}
	if len(m.Data) == 0 {
		return errors.New("document data is required")
	}
	return nil
}
