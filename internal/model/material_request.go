package model

import (
	"errors"
	"time"
)

// MaterialRequestModel is the persisted MR aggregate: the full document is
// serialized into Data, frequently filtered fields are mirrored as indexed
// columns, and Version is the optimistic-concurrency stamp every state
// transition compares against.
type MaterialRequestModel struct {
	ID             string     `gorm:"primaryKey;type:varchar(64)"`
	KodeMR         string     `gorm:"type:varchar(64);not null;uniqueIndex"`
	Status         string     `gorm:"type:varchar(32);not null;index"`
	Level          string     `gorm:"type:varchar(32)"`
	CostCenterID   *string    `gorm:"type:varchar(64);index"`
	Department     string     `gorm:"type:varchar(64);index"`
	CompanyCode    string     `gorm:"type:varchar(32);index"`
	TujuanSite     string     `gorm:"type:varchar(64)"`
	CostEstimation int64      `gorm:"not null;default:0"`
	DueDate        *time.Time `gorm:"index"`
	CreatedBy      string     `gorm:"type:varchar(64);index"`
	Version        int        `gorm:"not null;default:1"`
	Data           []byte     `gorm:"type:jsonb;not null"` // serialized workflow.MaterialRequest
	CreatedAt      time.Time  `gorm:"not null;index"`
	UpdatedAt      time.Time  `gorm:"not null"`
}

// TableName sets the table name.
func (MaterialRequestModel) TableName() string {
	return "material_requests"
}

// Validate checks the persisted model.
func (m *MaterialRequestModel) Validate() error {
	if m.ID == "" {
		return errors.New("material request ID is required")
	}
	if m.KodeMR == "" {
		return errors.New("kode_mr is required")
	}
	if m.Status == "" {
		return errors.New("status is required")
	}
	if len(m.Data) == 0 {
		return errors.New("document data is required")
	}
	return nil
}
