package notify

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/database"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func waitForStatus(t *testing.T, db *gorm.DB, recipient, status string) *model.NotificationModel {
	t.Helper()
	var row model.NotificationModel
	require.Eventually(t, func() bool {
		err := db.Where("recipient = ?", recipient).First(&row).Error
		return err == nil && row.Status == status
	}, 2*time.Second, 20*time.Millisecond)
	return &row
}

func TestNotifyDeliversThroughGateway(t *testing.T) {
	db := newTestDB(t)

	received := make(chan struct{}, 1)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		received <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	n := NewNotifier(db, gateway.URL, 2, logrus.New())
	defer n.Close()

	n.Notify("rina@example.com", "MR approved", map[string]interface{}{"kode_mr": "IT-HO-0001"})

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("gateway never called")
	}
	row := waitForStatus(t, db, "rina@example.com", model.NotificationStatusSent)
	assert.Equal(t, "MR approved", row.Subject)
}

func TestNotifyRecordsGatewayFailure(t *testing.T) {
	db := newTestDB(t)

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer gateway.Close()

	n := NewNotifier(db, gateway.URL, 1, logrus.New())
	defer n.Close()

	n.Notify("rina@example.com", "MR approved", nil)

	row := waitForStatus(t, db, "rina@example.com", model.NotificationStatusFailed)
	assert.Contains(t, row.LastError, "502")
}

// An empty gateway URL short-circuits delivery but still drains the outbox.
func TestNotifyWithoutGatewayMarksSent(t *testing.T) {
	db := newTestDB(t)

	n := NewNotifier(db, "", 1, nil)
	defer n.Close()

	n.Notify("rina@example.com", "local dev", nil)
	waitForStatus(t, db, "rina@example.com", model.NotificationStatusSent)
}
