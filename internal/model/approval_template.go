package model

import (
	"errors"
	"time"
)

// ApprovalTemplateModel is a reusable approval-chain skeleton. Data holds
// the serialized ordered entry list ([]workflow.TemplateEntry); execution
// state never lives here.
type ApprovalTemplateModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	Name        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Description string    `gorm:"type:text"`
	Department  string    `gorm:"type:varchar(64);index"`
	Data        []byte    `gorm:"type:jsonb;not null"`
	CreatedBy   string    `gorm:"type:varchar(64)"`
	UpdatedBy   string    `gorm:"type:varchar(64)"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (ApprovalTemplateModel) TableName() string {
	return "approval_templates"
}

// Validate checks the persisted model.
func (m *ApprovalTemplateModel) Validate() error {
	if m.ID == "" {
		return errors.New("template ID is required")
	}
	if m.Name == "" {
		return errors.New("template name is required")
	}
	if len(m.Data) == 0 {
		return errors.New("template data is required")
	}
	return nil
}
