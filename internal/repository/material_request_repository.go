package repository

import (
	"errors"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/workflow"
	"gorm.io/gorm"
)

// MaterialRequestRepository persists MR aggregates.
type MaterialRequestRepository interface {
	Create(m *model.MaterialRequestModel) error
	FindByID(id string) (*model.MaterialRequestModel, error)
	FindByKode(kode string) (*model.MaterialRequestModel, error)
	FindByFilter(filter *MaterialRequestFilter) ([]*model.MaterialRequestModel, error)
	// CompareAndSwap updates the row only when its version still equals
	// expectedVersion, bumping the version on success. A stale version is a
	// ConflictError; no partial write happens.
	CompareAndSwap(tx *gorm.DB, m *model.MaterialRequestModel, expectedVersion int) error
	Delete(tx *gorm.DB, id string) error
}

// MaterialRequestFilter narrows MR listings.
type MaterialRequestFilter struct {
	Status       *string
	Department   *string
	CompanyCode  *string
	CostCenterID *string
	CreatedBy    *string
}

type materialRequestRepository struct {
	db *gorm.DB
}

// NewMaterialRequestRepository creates an MR repository.
func NewMaterialRequestRepository(db *gorm.DB) MaterialRequestRepository {
	return &materialRequestRepository{db: db}
}

func (r *materialRequestRepository) Create(m *model.MaterialRequestModel) error {
	return r.db.Create(m).Error
}

func (r *materialRequestRepository) FindByID(id string) (*model.MaterialRequestModel, error) {
	var m model.MaterialRequestModel
	if err := r.db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *materialRequestRepository) FindByKode(kode string) (*model.MaterialRequestModel, error) {
	var m model.MaterialRequestModel
	if err := r.db.Where("kode_mr = ?", kode).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *materialRequestRepository) FindByFilter(filter *MaterialRequestFilter) ([]*model.MaterialRequestModel, error) {
	var rows []*model.MaterialRequestModel
	query := r.db.Model(&model.MaterialRequestModel{})

	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.Department != nil {
			query = query.Where("department = ?", *filter.Department)
		}
		if filter.CompanyCode != nil {
			query = query.Where("company_code = ?", *filter.CompanyCode)
		}
		if filter.CostCenterID != nil {
			query = query.Where("cost_center_id = ?", *filter.CostCenterID)
		}
		if filter.CreatedBy != nil {
			query = query.Where("created_by = ?", *filter.CreatedBy)
		}
	}

	err := query.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *materialRequestRepository) CompareAndSwap(tx *gorm.DB, m *model.MaterialRequestModel, expectedVersion int) error {
	if tx == nil {
		tx = r.db
	}
	m.Version = expectedVersion + 1
	res := tx.Model(&model.MaterialRequestModel{}).
		Where("id = ? AND version = ?", m.ID, expectedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return workflow.NewConflictError("material request %s changed since last read, please refresh", m.KodeMR)
	}
	return nil
}

func (r *materialRequestRepository) Delete(tx *gorm.DB, id string) error {
	if tx == nil {
		tx = r.db
	}
	res := tx.Where("id = ?", id).Delete(&model.MaterialRequestModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("material request not found")
	}
	return nil
}
