package repository

import (
	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"gorm.io/gorm"
)

// CostCenterRepository persists cost centers and their append-only ledger.
type CostCenterRepository interface {
	Create(m *model.CostCenterModel) error
	FindByID(id string) (*model.CostCenterModel, error)
	FindByCode(code string) (*model.CostCenterModel, error)
	FindAll() ([]*model.CostCenterModel, error)
	// AdjustBudget applies a relative delta to the cached balance and returns
	// the post-update value. The write is relative so concurrent debits
	// serialize on the row instead of overwriting each other; callers append
	// the matching history row in the same transaction.
	AdjustBudget(tx *gorm.DB, id string, delta int64) (int64, error)
	AppendHistory(tx *gorm.DB, row *model.CostCenterHistoryModel) error
	// History returns ledger rows newest-first for audit display.
	History(costCenterID string) ([]*model.CostCenterHistoryModel, error)
}

type costCenterRepository struct {
	db *gorm.DB
}

// NewCostCenterRepository creates a cost center repository.
func NewCostCenterRepository(db *gorm.DB) CostCenterRepository {
	return &costCenterRepository{db: db}
}

func (r *costCenterRepository) Create(m *model.CostCenterModel) error {
	return r.db.Create(m).Error
}

func (r *costCenterRepository) FindByID(id string) (*model.CostCenterModel, error) {
	var m model.CostCenterModel
	if err := r.db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *costCenterRepository) FindByCode(code string) (*model.CostCenterModel, error) {
	var m model.CostCenterModel
	if err := r.db.Where("code = ?", code).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *costCenterRepository) FindAll() ([]*model.CostCenterModel, error) {
	var rows []*model.CostCenterModel
	err := r.db.Order("code ASC").Find(&rows).Error
	return rows, err
}

func (r *costCenterRepository) AdjustBudget(tx *gorm.DB, id string, delta int64) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	res := tx.Model(&model.CostCenterModel{}).
		Where("id = ?", id).
		Update("current_budget", gorm.Expr("current_budget + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	// the update holds the row lock, so this read is the serialized balance
	var m model.CostCenterModel
	if err := tx.Select("current_budget").Where("id = ?", id).Take(&m).Error; err != nil {
		return 0, err
	}
	return m.CurrentBudget, nil
}

func (r *costCenterRepository) AppendHistory(tx *gorm.DB, row *model.CostCenterHistoryModel) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(row).Error
}

func (r *costCenterRepository) History(costCenterID string) ([]*model.CostCenterHistoryModel, error) {
	var rows []*model.CostCenterHistoryModel
	err := r.db.Where("cost_center_id = ?", costCenterID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
