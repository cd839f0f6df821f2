package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/queue"
	"github.com/shipflow-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// fakeCache 进程内 JSONCache 实现，测试用
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string][]byte{}}
}

func (f *fakeCache) Enabled() bool { return true }

func (f *fakeCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[key] = raw
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.store, key)
	}
	return nil
}

func (f *fakeCache) FlushPrefix(_ context.Context, keyPrefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.store {
		if len(key) >= len(keyPrefix) && key[:len(keyPrefix)] == keyPrefix {
			delete(f.store, key)
		}
	}
	return nil
}

// recordingEnqueuer 记录投递的通知任务，测试用
type recordingEnqueuer struct {
	mu       sync.Mutex
	payloads []queue.NotificationPayload
}

func (r *recordingEnqueuer) EnqueueNotification(payload queue.NotificationPayload, _ ...asynq.Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
	return nil
}

func (r *recordingEnqueuer) all() []queue.NotificationPayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]queue.NotificationPayload, len(r.payloads))
	copy(out, r.payloads)
	return out
}

type trackingFixture struct {
	db       *gorm.DB
	tracking *TrackingService
	resolver *BucketResolver
	enqueuer *recordingEnqueuer
	shipment *models.Shipment
	order    *models.Order
}

func setupTrackingTest(t *testing.T) *trackingFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:tracking_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	seller := models.Seller{Name: "Acme", Email: "acme@example.com", Phone: "9000000001", Status: constants.SellerStatusActive}
	if err := db.Create(&seller).Error; err != nil {
		t.Fatalf("create seller failed: %v", err)
	}
	order := models.Order{
		OrderNo:       "SO-1001",
		SellerID:      seller.ID,
		CustomerName:  "Ravi",
		CustomerPhone: "9000000002",
		PaymentMethod: constants.PaymentMethodCOD,
		Status:        constants.OrderStatusNew,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	shipment := models.Shipment{
		OrderID:       order.ID,
		SellerID:      seller.ID,
		AWB:           "AWB123",
		CourierName:   "BLUEDART",
		CurrentBucket: models.BucketAwaitingPickup,
		Status:        constants.ShipmentStatusNew,
	}
	if err := db.Create(&shipment).Error; err != nil {
		t.Fatalf("create shipment failed: %v", err)
	}

	// 预置映射表
	mappings := []models.BucketMapping{
		{CourierName: "BLUEDART", StatusCode: "PU", Bucket: models.BucketPickedUp, StatusLabel: "PICKED UP", IsMapped: true, IsActive: true},
		{CourierName: "BLUEDART", StatusCode: "IT", Bucket: models.BucketInTransit, StatusLabel: "IN TRANSIT", IsMapped: true, IsActive: true},
		{CourierName: "BLUEDART", StatusCode: "OFD", Bucket: models.BucketOutForDelivery, StatusLabel: "OUT FOR DELIVERY", IsMapped: true, IsActive: true},
		{CourierName: "BLUEDART", StatusCode: "DLVD", Bucket: models.BucketDelivered, StatusLabel: "DELIVERED", IsMapped: true, IsActive: true},
		{CourierName: "BLUEDART", StatusCode: "UD", Bucket: models.BucketNDR, StatusLabel: "UNDELIVERED", IsMapped: true, IsActive: true},
	}
	for i := range mappings {
		if err := db.Create(&mappings[i]).Error; err != nil {
			t.Fatalf("seed mapping failed: %v", err)
		}
	}

	mappingRepo := repository.NewBucketMappingRepository(db)
	resolver := NewBucketResolver(mappingRepo, newFakeCache(), true)
	enqueuer := &recordingEnqueuer{}
	tracking := NewTrackingService(
		db,
		repository.NewShipmentRepository(db),
		repository.NewTrackingEventRepository(db),
		repository.NewOrderRepository(db),
		resolver,
		enqueuer,
		newFakeCache(),
		time.Minute,
	)
	return &trackingFixture{
		db:       db,
		tracking: tracking,
		resolver: resolver,
		enqueuer: enqueuer,
		shipment: &shipment,
		order:    &order,
	}
}

func (f *trackingFixture) ingest(t *testing.T, statusCode string, eventTime time.Time) *ApplyResult {
	t.Helper()
	result, err := f.tracking.Ingest(context.Background(), IngestInput{
		ShipmentID:  f.shipment.ID,
		CourierName: "BLUEDART",
		StatusCode:  statusCode,
		Source:      constants.TrackingSourceWebhook,
		EventTime:   eventTime,
	})
	if err != nil {
		t.Fatalf("ingest %s failed: %v", statusCode, err)
	}
	return result
}

func (f *trackingFixture) currentShipment(t *testing.T) *models.Shipment {
	t.Helper()
	var shipment models.Shipment
	if err := f.db.First(&shipment, f.shipment.ID).Error; err != nil {
		t.Fatalf("reload shipment failed: %v", err)
	}
	return &shipment
}

func (f *trackingFixture) currentOrder(t *testing.T) *models.Order {
	t.Helper()
	var order models.Order
	if err := f.db.First(&order, f.order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	return &order
}

func (f *trackingFixture) eventCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	f.db.Model(&models.TrackingEvent{}).Where("shipment_id = ?", f.shipment.ID).Count(&count)
	return count
}

func TestIngestAdvancesMonotonically(t *testing.T) {
	f := setupTrackingTest(t)
	now := time.Now()

	f.ingest(t, "PU", now)
	f.ingest(t, "IT", now.Add(time.Hour))
	f.ingest(t, "OFD", now.Add(2*time.Hour))
	f.ingest(t, "DLVD", now.Add(3*time.Hour))

	shipment := f.currentShipment(t)
	if shipment.CurrentBucket != models.BucketDelivered {
		t.Fatalf("expected delivered, got bucket %d", shipment.CurrentBucket)
	}
	if shipment.DeliveredAt == nil {
		t.Fatalf("delivered_at should be set")
	}
	order := f.currentOrder(t)
	if order.Status != constants.OrderStatusDelivered {
		t.Fatalf("expected order delivered, got %s", order.Status)
	}
}

func TestIngestDuplicateRedelivery(t *testing.T) {
	f := setupTrackingTest(t)
	now := time.Now()

	first := f.ingest(t, "IT", now)
	if !first.Applied {
		t.Fatalf("first delivery should advance")
	}
	second := f.ingest(t, "IT", now)
	if second.Applied {
		t.Fatalf("duplicate delivery should not advance again")
	}

	if f.eventCount(t) != 2 {
		t.Fatalf("expected 2 audit rows, got %d", f.eventCount(t))
	}
	if f.currentShipment(t).CurrentBucket != models.BucketInTransit {
		t.Fatalf("state changed by duplicate")
	}
}

func TestIngestOutOfOrderConverges(t *testing.T) {
	f := setupTrackingTest(t)
	now := time.Now()

	// 晚到的旧事件不回退状态
	f.ingest(t, "IT", now.Add(time.Hour))
	stale := f.ingest(t, "PU", now)
	if stale.Applied {
		t.Fatalf("stale picked up should be inert after in transit")
	}
	if f.currentShipment(t).CurrentBucket != models.BucketInTransit {
		t.Fatalf("expected in transit, got %d", f.currentShipment(t).CurrentBucket)
	}
	if f.eventCount(t) != 2 {
		t.Fatalf("both events should be recorded, got %d", f.eventCount(t))
	}
}

func TestIngestUnmappedStatusInert(t *testing.T) {
	f := setupTrackingTest(t)

	result := f.ingest(t, "X-UNKNOWN-7", time.Now())
	if result.Applied {
		t.Fatalf("unmapped status should not advance")
	}
	if f.currentShipment(t).CurrentBucket != models.BucketAwaitingPickup {
		t.Fatalf("shipment should be untouched")
	}
	if f.eventCount(t) != 1 {
		t.Fatalf("unmapped event should still be recorded")
	}

	// 首次出现的未知状态码落一条未标注占位行
	var mapping models.BucketMapping
	if err := f.db.Where("courier_name = ? AND status_code = ?", "BLUEDART", "X-UNKNOWN-7").
		First(&mapping).Error; err != nil {
		t.Fatalf("placeholder mapping missing: %v", err)
	}
	if mapping.IsMapped || mapping.Bucket != models.BucketUnknown {
		t.Fatalf("placeholder should be unmapped unknown, got %+v", mapping)
	}

	// 再次出现不重复落行
	f.ingest(t, "X-UNKNOWN-7", time.Now())
	var count int64
	f.db.Model(&models.BucketMapping{}).
		Where("courier_name = ? AND status_code = ?", "BLUEDART", "X-UNKNOWN-7").Count(&count)
	if count != 1 {
		t.Fatalf("expected single placeholder row, got %d", count)
	}
}

func TestIngestCanceledOrderNotOverwritten(t *testing.T) {
	f := setupTrackingTest(t)

	now := time.Now()
	if err := f.db.Model(&models.Order{}).Where("id = ?", f.order.ID).
		Updates(map[string]interface{}{"status": constants.OrderStatusCanceled, "canceled_at": &now}).Error; err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}

	result := f.ingest(t, "IT", time.Now())
	if !result.Applied {
		t.Fatalf("shipment should still advance")
	}
	if f.currentOrder(t).Status != constants.OrderStatusCanceled {
		t.Fatalf("canceled order must not be overwritten, got %s", f.currentOrder(t).Status)
	}
}

func TestIngestLockedShipmentStaysLocked(t *testing.T) {
	f := setupTrackingTest(t)
	now := time.Now()

	f.ingest(t, "DLVD", now)
	late := f.ingest(t, "UD", now.Add(time.Hour))
	if late.Applied {
		t.Fatalf("delivered shipment must not move to NDR")
	}
	if f.currentShipment(t).CurrentBucket != models.BucketDelivered {
		t.Fatalf("locked state changed")
	}
}

func TestIngestNDRThenDelivered(t *testing.T) {
	f := setupTrackingTest(t)
	now := time.Now()

	f.ingest(t, "UD", now)
	if f.currentShipment(t).CurrentBucket != models.BucketNDR {
		t.Fatalf("expected NDR")
	}
	// 再派送途中状态保持 NDR
	mid := f.ingest(t, "OFD", now.Add(time.Hour))
	if mid.Applied {
		t.Fatalf("out for delivery must not clear NDR")
	}
	// 再派送成功
	done := f.ingest(t, "DLVD", now.Add(2*time.Hour))
	if !done.Applied {
		t.Fatalf("delivered should supersede NDR")
	}
	if f.currentShipment(t).CurrentBucket != models.BucketDelivered {
		t.Fatalf("expected delivered after NDR")
	}
}

func TestDispatchOnlyOnStateChange(t *testing.T) {
	f := setupTrackingTest(t)
	now := time.Now()

	f.ingest(t, "PU", now)
	f.ingest(t, "PU", now) // 重复，不产生通知
	f.ingest(t, "UD", now.Add(time.Hour))

	payloads := f.enqueuer.all()
	if len(payloads) != 2 {
		t.Fatalf("expected 2 notifications, got %d: %+v", len(payloads), payloads)
	}
	if payloads[0].EventType != constants.NotificationEventPickedUp ||
		payloads[0].Recipient != constants.NotificationRecipientCustomer {
		t.Fatalf("unexpected first notification %+v", payloads[0])
	}
	if payloads[1].EventType != constants.NotificationEventNDRAlert ||
		payloads[1].Recipient != constants.NotificationRecipientSeller {
		t.Fatalf("unexpected NDR notification %+v", payloads[1])
	}
}

func TestApplyDirectSingleMutationPath(t *testing.T) {
	f := setupTrackingTest(t)

	result, err := f.tracking.ApplyDirect(context.Background(), f.shipment.ID, models.BucketCourierAssigned, "courier assigned")
	if err != nil {
		t.Fatalf("apply direct failed: %v", err)
	}
	if !result.Applied || result.NewBucket != models.BucketCourierAssigned {
		t.Fatalf("unexpected result %+v", result)
	}
	if f.currentOrder(t).Status != constants.OrderStatusReadyToShip {
		t.Fatalf("order should be ready_to_ship, got %s", f.currentOrder(t).Status)
	}

	var event models.TrackingEvent
	if err := f.db.Where("shipment_id = ? AND source = ?", f.shipment.ID, constants.TrackingSourceSystem).
		First(&event).Error; err != nil {
		t.Fatalf("system event missing: %v", err)
	}
}

func TestIngestUnknownShipment(t *testing.T) {
	f := setupTrackingTest(t)

	_, err := f.tracking.Ingest(context.Background(), IngestInput{
		ShipmentID:  99999,
		CourierName: "BLUEDART",
		StatusCode:  "IT",
	})
	if err == nil || !IsTerminal(err) {
		t.Fatalf("expected terminal shipment-not-found, got %v", err)
	}
}
