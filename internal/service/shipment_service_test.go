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

func setupShipmentServiceTest(t *testing.T) (*ShipmentService, *gorm.DB, *models.Shipment) {
	t.Helper()
	dsn := fmt.Sprintf("file:shipment_svc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	seller := models.Seller{Name: "Acme", Email: "acme-ship@example.com", Status: constants.SellerStatusActive}
	if err := db.Create(&seller).Error; err != nil {
		t.Fatalf("create seller failed: %v", err)
	}
	order := models.Order{
		OrderNo: "SO-3001", SellerID: seller.ID,
		CustomerName: "Ravi", CustomerPhone: "9000000002",
		PaymentMethod: constants.PaymentMethodPrepaid,
		Status:        constants.OrderStatusNew,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	shipment := models.Shipment{
		OrderID: order.ID, SellerID: seller.ID,
		CurrentBucket: models.BucketAwaitingPickup,
		Status:        constants.ShipmentStatusNew,
	}
	if err := db.Create(&shipment).Error; err != nil {
		t.Fatalf("create shipment failed: %v", err)
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
	svc := NewShipmentService(
		repository.NewShipmentRepository(db),
		repository.NewTrackingEventRepository(db),
		tracking,
	)
	return svc, db, &shipment
}

func TestAssignAWBRoutesThroughApplier(t *testing.T) {
	svc, db, shipment := setupShipmentServiceTest(t)

	updated, err := svc.AssignAWB(context.Background(), shipment.ID, "bluedart", "AWB777")
	if err != nil {
		t.Fatalf("assign awb failed: %v", err)
	}
	if updated.AWB != "AWB777" || updated.CourierName != "BLUEDART" {
		t.Fatalf("awb/courier not set: %+v", updated)
	}
	if updated.CurrentBucket != models.BucketCourierAssigned {
		t.Fatalf("expected courier assigned bucket, got %d", updated.CurrentBucket)
	}

	var order models.Order
	if err := db.First(&order, shipment.OrderID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order.Status != constants.OrderStatusReadyToShip {
		t.Fatalf("order should be ready_to_ship, got %s", order.Status)
	}

	var event models.TrackingEvent
	if err := db.Where("shipment_id = ? AND source = ?", shipment.ID, constants.TrackingSourceSystem).
		First(&event).Error; err != nil {
		t.Fatalf("system event missing: %v", err)
	}
	if !event.Applied {
		t.Fatalf("assign event should be applied")
	}
}

func TestAssignAWBTwiceRejected(t *testing.T) {
	svc, _, shipment := setupShipmentServiceTest(t)

	if _, err := svc.AssignAWB(context.Background(), shipment.ID, "BLUEDART", "AWB777"); err != nil {
		t.Fatalf("first assign failed: %v", err)
	}
	if _, err := svc.AssignAWB(context.Background(), shipment.ID, "BLUEDART", "AWB778"); err != ErrAWBAssigned {
		t.Fatalf("expected awb already assigned, got %v", err)
	}
}

func TestAssignAWBUnknownShipment(t *testing.T) {
	svc, _, _ := setupShipmentServiceTest(t)
	if _, err := svc.AssignAWB(context.Background(), 9999, "BLUEDART", "AWB1"); err != ErrShipmentNotFound {
		t.Fatalf("expected shipment not found, got %v", err)
	}
}
