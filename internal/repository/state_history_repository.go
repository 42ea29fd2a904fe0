package repository

import (
	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"gorm.io/gorm"
)

// StateHistoryRepository persists document status-change rows.
type StateHistoryRepository interface {
	Save(tx *gorm.DB, row *model.StateHistoryModel) error
	FindByDocument(docType, docID string) ([]*model.StateHistoryModel, error)
}

type stateHistoryRepository struct {
	db *gorm.DB
}

// NewStateHistoryRepository creates a state history repository.
func NewStateHistoryRepository(db *gorm.DB) StateHistoryRepository {
	return &stateHistoryRepository{db: db}
}

func (r *stateHistoryRepository) Save(tx *gorm.DB, row *model.StateHistoryModel) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(row).Error
}

func (r *stateHistoryRepository) FindByDocument(docType, docID string) ([]*model.StateHistoryModel, error) {
	var rows []*model.StateHistoryModel
	err := r.db.Where("document_type = ? AND document_id = ?", docType, docID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
