package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_svc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	seller := models.Seller{Name: "Acme", Email: "acme-orders@example.com", Status: constants.SellerStatusActive}
	if err := db.Create(&seller).Error; err != nil {
		t.Fatalf("create seller failed: %v", err)
	}

	mappingRepo := repository.NewBucketMappingRepository(db)
	resolver := NewBucketResolver(mappingRepo, newFakeCache(), true)
	tracking := NewTrackingService(
		db,
		repository.NewShipmentRepository(db),
		repository.NewTrackingEventRepository(db),
		repository.NewOrderRepository(db),
		resolver,
		&recordingEnqueuer{},
		newFakeCache(),
		time.Minute,
	)
	svc := NewOrderService(
		db,
		repository.NewOrderRepository(db),
		repository.NewShipmentRepository(db),
		repository.NewSellerRepository(db),
		tracking,
	)
	return svc, db
}

func createTestOrder(t *testing.T, svc *OrderService, orderNo string) *models.Order {
	t.Helper()
	order, err := svc.Create(CreateOrderInput{
		OrderNo:       orderNo,
		SellerID:      1,
		CustomerName:  "Ravi",
		CustomerPhone: "9000000002",
		PaymentMethod: constants.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestOrderCreateWithShipment(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	order := createTestOrder(t, svc, "SO-2001")

	if order.Status != constants.OrderStatusNew {
		t.Fatalf("expected new order status, got %s", order.Status)
	}
	if order.Shipment == nil {
		t.Fatalf("shipment should be created with order")
	}
	if order.Shipment.CurrentBucket != models.BucketAwaitingPickup {
		t.Fatalf("shipment should start awaiting pickup, got %d", order.Shipment.CurrentBucket)
	}

	var count int64
	db.Model(&models.Shipment{}).Where("order_id = ?", order.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 shipment, got %d", count)
	}
}

func TestOrderCreateDuplicateOrderNo(t *testing.T) {
	svc, _ := setupOrderServiceTest(t)
	createTestOrder(t, svc, "SO-2002")
	if _, err := svc.Create(CreateOrderInput{
		OrderNo:       "SO-2002",
		SellerID:      1,
		CustomerName:  "Ravi",
		CustomerPhone: "9000000002",
		PaymentMethod: constants.PaymentMethodPrepaid,
	}); err != ErrOrderNoExists {
		t.Fatalf("expected duplicate order no error, got %v", err)
	}
}

func TestOrderCancelLocksShipment(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	order := createTestOrder(t, svc, "SO-2003")

	if err := svc.Cancel(context.Background(), order.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCanceled || reloaded.CanceledAt == nil {
		t.Fatalf("order should be canceled, got %+v", reloaded)
	}

	var shipment models.Shipment
	if err := db.Where("order_id = ?", order.ID).First(&shipment).Error; err != nil {
		t.Fatalf("reload shipment failed: %v", err)
	}
	if shipment.CurrentBucket != models.BucketCanceled {
		t.Fatalf("shipment should be canceled, got %d", shipment.CurrentBucket)
	}

	// 二次取消报已取消
	if err := svc.Cancel(context.Background(), order.ID); err != ErrOrderCanceled {
		t.Fatalf("expected already canceled, got %v", err)
	}
}

func TestOrderCreateUnknownSeller(t *testing.T) {
	svc, _ := setupOrderServiceTest(t)
	if _, err := svc.Create(CreateOrderInput{
		OrderNo:       "SO-2004",
		SellerID:      999,
		CustomerName:  "Ravi",
		CustomerPhone: "9000000002",
		PaymentMethod: constants.PaymentMethodCOD,
	}); err != ErrSellerNotFound {
		t.Fatalf("expected seller not found, got %v", err)
	}
}
