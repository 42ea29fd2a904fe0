package repository

import (
	"time"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"gorm.io/gorm"
)

// NotificationRepository persists the notifier outbox.
type NotificationRepository interface {
	Save(row *model.NotificationModel) error
	MarkSent(id string) error
	MarkFailed(id string, lastError string) error
	FindPending(limit int) ([]*model.NotificationModel, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a notification outbox repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Save(row *model.NotificationModel) error {
	return r.db.Create(row).Error
}

func (r *notificationRepository) MarkSent(id string) error {
	return r.db.Model(&model.NotificationModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.NotificationStatusSent,
			"updated_at": time.Now(),
		}).Error
}

func (r *notificationRepository) MarkFailed(id string, lastError string) error {
	return r.db.Model(&model.NotificationModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.NotificationStatusFailed,
			"last_error":  lastError,
			"retry_count": gorm.Expr("retry_count + 1"),
			"updated_at":  time.Now(),
		}).Error
}

func (r *notificationRepository) FindPending(limit int) ([]*model.NotificationModel, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []*model.NotificationModel
	err := r.db.Where("status = ?", model.NotificationStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
