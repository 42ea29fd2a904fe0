package repository

import (
	"errors"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/workflow"
	"gorm.io/gorm"
)

// PurchaseOrderRepository persists PO aggregates.
type PurchaseOrderRepository interface {
	Create(tx *gorm.DB, m *model.PurchaseOrderModel) error
	FindByID(id string) (*model.PurchaseOrderModel, error)
	FindByKode(kode string) (*model.PurchaseOrderModel, error)
	FindByMRID(mrID string) ([]*model.PurchaseOrderModel, error)
	FindByFilter(filter *PurchaseOrderFilter) ([]*model.PurchaseOrderModel, error)
	// CompareAndSwap semantics match the MR repository.
	CompareAndSwap(tx *gorm.DB, m *model.PurchaseOrderModel, expectedVersion int) error
	Delete(tx *gorm.DB, id string) error
}

// PurchaseOrderFilter narrows PO listings.
type PurchaseOrderFilter struct {
	Status      *string
	MRID        *string
	CompanyCode *string
	CreatedBy   *string
}

type purchaseOrderRepository struct {
	db *gorm.DB
}

// NewPurchaseOrderRepository creates a PO repository.
func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepository{db: db}
}

func (r *purchaseOrderRepository) Create(tx *gorm.DB, m *model.PurchaseOrderModel) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(m).Error
}

func (r *purchaseOrderRepository) FindByID(id string) (*model.PurchaseOrderModel, error) {
	var m model.PurchaseOrderModel
	if err := r.db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *purchaseOrderRepository) FindByKode(kode string) (*model.PurchaseOrderModel, error) {
	var m model.PurchaseOrderModel
	if err := r.db.Where("kode_po = ?", kode).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *purchaseOrderRepository) FindByMRID(mrID string) ([]*model.PurchaseOrderModel, error) {
	var rows []*model.PurchaseOrderModel
	err := r.db.Where("mr_id = ?", mrID).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *purchaseOrderRepository) FindByFilter(filter *PurchaseOrderFilter) ([]*model.PurchaseOrderModel, error) {
	var rows []*model.PurchaseOrderModel
	query := r.db.Model(&model.PurchaseOrderModel{})

	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.MRID != nil {
			query = query.Where("mr_id = ?", *filter.MRID)
		}
		if filter.CompanyCode != nil {
			query = query.Where("company_code = ?", *filter.CompanyCode)
		}
		if filter.CreatedBy != nil {
			query = query.Where("created_by = ?", *filter.CreatedBy)
		}
	}

	err := query.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *purchaseOrderRepository) CompareAndSwap(tx *gorm.DB, m *model.PurchaseOrderModel, expectedVersion int) error {
	if tx == nil {
		tx = r.db
	}
	m.Version = expectedVersion + 1
	res := tx.Model(&model.PurchaseOrderModel{}).
		Where("id = ? AND version = ?", m.ID, expectedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return workflow.NewConflictError("purchase order %s changed since last read, please refresh", m.KodePO)
	}
	return nil
}

func (r *purchaseOrderRepository) Delete(tx *gorm.DB, id string) error {
	if tx == nil {
		tx = r.db
	}
	res := tx.Where("id = ?", id).Delete(&model.PurchaseOrderModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("purchase order not found")
	}
	return nil
}
