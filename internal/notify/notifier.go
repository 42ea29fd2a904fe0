package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/metrics"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Notifier delivers email notifications through an HTTP mail gateway.
// Delivery is fire-and-forget: every request is persisted to an outbox and
// pushed by a worker pool; a failed delivery is recorded and never rolls
// back the state transition that produced it.
type Notifier interface {
	Notify(to, subject string, data map[string]interface{})
	Close()
}

type gatewayNotifier struct {
	repo       repository.NotificationRepository
	httpClient *http.Client
	gatewayURL string
	logger     *logrus.Logger
	queue      chan *model.NotificationModel
	stop       chan struct{}
}

// NewNotifier creates a notifier with the given number of delivery workers.
func NewNotifier(db *gorm.DB, gatewayURL string, workers int, logger *logrus.Logger) Notifier {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	n := &gatewayNotifier{
		repo:       repository.NewNotificationRepository(db),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		gatewayURL: gatewayURL,
		logger:     logger,
		queue:      make(chan *model.NotificationModel, 1000),
		stop:       make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		go n.worker()
	}

	return n
}

func (n *gatewayNotifier) Notify(to, subject string, data map[string]interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		n.logger.WithError(err).Warn("failed to marshal notification data")
		return
	}

	row := &model.NotificationModel{
		ID:        uuid.New().String(),
		Recipient: to,
		Subject:   subject,
		Data:      payload,
		Status:    model.NotificationStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := n.repo.Save(row); err != nil {
		n.logger.WithError(err).Warn("failed to persist notification")
		return
	}

	select {
	case n.queue <- row:
	default:
		// queue full; the row stays pending in the outbox for later retry
		n.logger.WithFields(logrus.Fields{
			"recipient": to,
			"subject":   subject,
		}).Warn("notification queue full, left in outbox")
	}
}

func (n *gatewayNotifier) Close() {
	close(n.stop)
}

func (n *gatewayNotifier) worker() {
	for {
		select {
		case row := <-n.queue:
			n.deliver(row)
		case <-n.stop:
			return
		}
	}
}

func (n *gatewayNotifier) deliver(row *model.NotificationModel) {
	if n.gatewayURL == "" {
		// no gateway configured, e.g. local development
		_ = n.repo.MarkSent(row.ID)
		return
	}

	body := map[string]interface{}{
		"to":      row.Recipient,
		"subject": row.Subject,
		"data":    json.RawMessage(row.Data),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		n.fail(row, err)
		return
	}

	resp, err := n.httpClient.Post(n.gatewayURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		n.fail(row, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.fail(row, fmt.Errorf("mail gateway returned %d", resp.StatusCode))
		return
	}

	if err := n.repo.MarkSent(row.ID); err != nil {
		n.logger.WithError(err).Warn("failed to mark notification sent")
	}
	metrics.RecordNotification("sent")
}

func (n *gatewayNotifier) fail(row *model.NotificationModel, cause error) {
	n.logger.WithFields(logrus.Fields{
		"recipient": row.Recipient,
		"subject":   row.Subject,
	}).WithError(cause).Warn("notification delivery failed")
	if err := n.repo.MarkFailed(row.ID, cause.Error()); err != nil {
		n.logger.WithError(err).Warn("failed to mark notification failed")
	}
	metrics.RecordNotification("failed")
}

// NopNotifier discards notifications. Used in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(string, string, map[string]interface{}) {}
func (NopNotifier) Close()                                        {}
