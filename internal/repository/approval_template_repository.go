package repository

import (
	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"gorm.io/gorm"
)

// ApprovalTemplateRepository persists approval-chain templates.
type ApprovalTemplateRepository interface {
	Save(m *model.ApprovalTemplateModel) error
	FindByID(id string) (*model.ApprovalTemplateModel, error)
	FindAll() ([]*model.ApprovalTemplateModel, error)
	Delete(id string) error
}

type approvalTemplateRepository struct {
	db *gorm.DB
}

// NewApprovalTemplateRepository creates a template repository.
func NewApprovalTemplateRepository(db *gorm.DB) ApprovalTemplateRepository {
	return &approvalTemplateRepository{db: db}
}

func (r *approvalTemplateRepository) Save(m *model.ApprovalTemplateModel) error {
	return r.db.Save(m).Error
}

func (r *approvalTemplateRepository) FindByID(id string) (*model.ApprovalTemplateModel, error) {
	var m model.ApprovalTemplateModel
	if err := r.db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *approvalTemplateRepository) FindAll() ([]*model.ApprovalTemplateModel, error) {
	var rows []*model.ApprovalTemplateModel
	err := r.db.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *approvalTemplateRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.ApprovalTemplateModel{}).Error
}
