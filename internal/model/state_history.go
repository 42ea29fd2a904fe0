package model

import (
	"errors"
	"time"
)

// Document types recorded in state history and audit logs.
const (
	DocumentTypeMR = "mr"
	DocumentTypePO = "po"
)

// StateHistoryModel records one document-level status change, appended in
// the same transaction as the change itself.
type StateHistoryModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	DocumentType string    `gorm:"type:varchar(8);not null;index:idx_state_history_doc"`
	DocumentID   string    `gorm:"type:varchar(64);not null;index:idx_state_history_doc"`
	FromStatus   string    `gorm:"type:varchar(32)"`
	ToStatus     string    `gorm:"type:varchar(32);not null"`
	Reason       string    `gorm:"type:text"`
	Operator     string    `gorm:"type:varchar(64);not null"`
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName sets the table name.
func (StateHistoryModel) TableName() string {
	return "state_history"
}

// Validate checks the persisted model.
func (m *StateHistoryModel) Validate() error {
	if m.ID == "" {
		return errors.New("history ID is required")
	}
	if m.DocumentType == "" || m.DocumentID == "" {
		return errors.New("document reference is required")
	}
	if m.ToStatus == "" {
		return errors.New("to status is required")
	}
	if m.Operator == "" {
		return errors.New("operator is required")
	}
	return nil
}
