package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/provider"
	"github.com/shipflow-next/internal/queue"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *models.Shipment) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Seller{},
		&models.Order{},
		&models.Shipment{},
		&models.TrackingEvent{},
		&models.BucketMapping{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	seller := models.Seller{Name: "Acme", Email: "acme-worker@example.com", Status: constants.SellerStatusActive}
	if err := db.Create(&seller).Error; err != nil {
		t.Fatalf("create seller failed: %v", err)
	}
	order := models.Order{
		OrderNo: "SO-4001", SellerID: seller.ID,
		CustomerName: "Ravi", CustomerPhone: "9000000002",
		PaymentMethod: constants.PaymentMethodCOD,
		Status:        constants.OrderStatusNew,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	shipment := models.Shipment{
		OrderID: order.ID, SellerID: seller.ID,
		AWB: "AWB-W-1", CourierName: "BLUEDART",
		CurrentBucket: models.BucketAwaitingPickup,
		Status:        constants.ShipmentStatusNew,
	}
	if err := db.Create(&shipment).Error; err != nil {
		t.Fatalf("create shipment failed: %v", err)
	}
	mapping := models.BucketMapping{
		CourierName: "BLUEDART", StatusCode: "IT",
		Bucket: models.BucketInTransit, StatusLabel: "IN TRANSIT",
		IsMapped: true, IsActive: true,
	}
	if err := db.Create(&mapping).Error; err != nil {
		t.Fatalf("seed mapping failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.Redis.Enabled = false
	cfg.Queue.Enabled = false
	cfg.Notification.Enabled = false
	cfg.Tracking.ResolverCacheEnabled = false
	container, err := provider.NewContainer(cfg)
	if err != nil {
		t.Fatalf("build container failed: %v", err)
	}
	return NewConsumer(container), &shipment
}

func newTask(t *testing.T, taskType string, payload interface{}) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(taskType, body)
}

func TestHandleTrackingEventApplies(t *testing.T) {
	consumer, shipment := setupConsumerTest(t)

	task := newTask(t, queue.TaskTrackingEvent, queue.TrackingEventPayload{
		AWB:         "AWB-W-1",
		CourierName: "BLUEDART",
		StatusCode:  "IT",
		Source:      constants.TrackingSourceWebhook,
		EventTime:   time.Now(),
	})
	if err := consumer.handleTrackingEvent(context.Background(), task); err != nil {
		t.Fatalf("handle tracking event failed: %v", err)
	}

	var reloaded models.Shipment
	if err := models.DB.First(&reloaded, shipment.ID).Error; err != nil {
		t.Fatalf("reload shipment failed: %v", err)
	}
	if reloaded.CurrentBucket != models.BucketInTransit {
		t.Fatalf("expected in transit, got %d", reloaded.CurrentBucket)
	}
}

func TestHandleTrackingEventUnknownShipmentDropped(t *testing.T) {
	consumer, _ := setupConsumerTest(t)

	task := newTask(t, queue.TaskTrackingEvent, queue.TrackingEventPayload{
		AWB:         "NO-SUCH-AWB",
		CourierName: "BLUEDART",
		StatusCode:  "IT",
	})
	// 终态错误不触发重试
	if err := consumer.handleTrackingEvent(context.Background(), task); err != nil {
		t.Fatalf("terminal error should be dropped, got %v", err)
	}
}

func TestHandleTrackingEventMalformedPayloadDropped(t *testing.T) {
	consumer, _ := setupConsumerTest(t)
	task := asynq.NewTask(queue.TaskTrackingEvent, []byte("{not json"))
	if err := consumer.handleTrackingEvent(context.Background(), task); err != nil {
		t.Fatalf("malformed payload should be dropped, got %v", err)
	}
}

func TestHandleNotificationDisabledNoop(t *testing.T) {
	consumer, shipment := setupConsumerTest(t)

	task := newTask(t, queue.TaskNotificationDispatch, queue.NotificationPayload{
		EventType:  constants.NotificationEventPickedUp,
		Recipient:  constants.NotificationRecipientCustomer,
		ShipmentID: shipment.ID,
		OrderID:    shipment.OrderID,
	})
	if err := consumer.handleNotificationDispatch(context.Background(), task); err != nil {
		t.Fatalf("disabled notification should be noop, got %v", err)
	}
}
