package repository

import (
	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"gorm.io/gorm"
)

// SequenceRepository hands out monotonically increasing per-scope counters
// for document codes.
type SequenceRepository interface {
	// Next increments and returns the counter for scope. The increment is a
	// single atomic UPDATE so concurrent callers never observe the same
	// value; a consumed value is never reused.
	Next(tx *gorm.DB, scope string) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository creates a sequence repository.
func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) Next(tx *gorm.DB, scope string) (int64, error) {
	if tx == nil {
		tx = r.db
	}

	res := tx.Model(&model.DocumentSequenceModel{}).
		Where("scope = ?", scope).
		Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// first code for this scope; a concurrent first-create loses on the
		// primary key and falls back to the increment path
		row := &model.DocumentSequenceModel{Scope: scope, Value: 1}
		if err := tx.Create(row).Error; err != nil {
			res = tx.Model(&model.DocumentSequenceModel{}).
				Where("scope = ?", scope).
				Update("value", gorm.Expr("value + 1"))
			if res.Error != nil {
				return 0, res.Error
			}
		} else {
			return 1, nil
		}
	}

	var row model.DocumentSequenceModel
	if err := tx.Where("scope = ?", scope).First(&row).Error; err != nil {
		return 0, err
	}
	return row.Value, nil
}
