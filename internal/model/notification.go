package model

import (
	"errors"
	"time"
)

// Notification statuses.
const (
	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
)

// NotificationModel is one outbox row for the fire-and-forget notifier.
// Delivery is best-effort: failures never roll back the state transition
// that produced the notification.
type NotificationModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)"`
	Recipient  string    `gorm:"type:varchar(255);not null;index"`
	Subject    string    `gorm:"type:varchar(255);not null"`
	Data       []byte    `gorm:"type:jsonb;not null"` // template data for the mail gateway
	Status     string    `gorm:"type:varchar(32);not null;default:'pending';index"`
	RetryCount int       `gorm:"not null;default:0"`
	LastError  string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null;index"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (NotificationModel) TableName() string {
	return "notifications"
}

// Validate checks the persisted model.
func (m *NotificationModel) Validate() error {
	if m.ID == "" {
		return errors.New("notification ID is required")
	}
	if m.Recipient == "" {
		return errors.New("recipient is required")
	}
	if m.Subject == "" {
		return errors.New("subject is required")
	}
	if m.Status == "" {
		m.Status = NotificationStatusPending
	}
	return nil
}
