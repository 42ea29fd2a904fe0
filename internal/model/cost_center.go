package model

import (
	"errors"
	"time"
)

// CostCenterModel is a budget bucket. CurrentBudget is a cached projection:
// it always equals InitialBudget plus the sum of the history change amounts,
// and is only mutated together with an appended history row.
type CostCenterModel struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)"`
	Code          string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name          string    `gorm:"type:varchar(255);not null"`
	CompanyCode   string    `gorm:"type:varchar(32);index"`
	InitialBudget int64     `gorm:"not null"`
	CurrentBudget int64     `gorm:"not null"`
	CreatedBy     string    `gorm:"type:varchar(64)"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (CostCenterModel) TableName() string {
	return "cost_centers"
}

// Validate checks the persisted model.
func (m *CostCenterModel) Validate() error {
	if m.ID == "" {
		return errors.New("cost center ID is required")
	}
	if m.Code == "" {
		return errors.New("cost center code is required")
	}
	if m.Name == "" {
		return errors.New("cost center name is required")
	}
	return nil
}

// History row kinds.
const (
	LedgerKindMRDebit    = "mr_debit"
	LedgerKindAdjustment = "adjustment"
)

// CostCenterHistoryModel is one immutable row of the append-only ledger.
// The unique index on (mr_id, kind) is the exactly-once guard for the
// budget debit trigger: a retried Waiting-PO transition cannot produce a
// second mr_debit row for the same MR.
type CostCenterHistoryModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	CostCenterID string    `gorm:"type:varchar(64);not null;index"`
	ChangeAmount int64     `gorm:"not null"` // signed
	NewBudget    int64     `gorm:"not null"` // post-change snapshot
	Description  string    `gorm:"type:text;not null"`
	CausedBy     string    `gorm:"type:varchar(64);not null"`
	MRID         *string   `gorm:"type:varchar(64);uniqueIndex:ux_ledger_mr_kind"`
	Kind         string    `gorm:"type:varchar(32);not null;uniqueIndex:ux_ledger_mr_kind"`
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName sets the table name.
func (CostCenterHistoryModel) TableName() string {
	return "cost_center_history"
}

// Validate checks the persisted model.
func (m *CostCenterHistoryModel) Validate() error {
	if m.ID == "" {
		return errors.New("history ID is required")
	}
	if m.CostCenterID == "" {
		return errors.New("cost center ID is required")
	}
	if m.Description == "" {
		return errors.New("description is required")
	}
	if m.Kind == "" {
		return errors.New("kind is required")
	}
	return nil
}
