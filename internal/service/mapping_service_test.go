package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupMappingServiceTest(t *testing.T) (*MappingService, *BucketResolver, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:mapping_svc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.BucketMapping{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	repo := repository.NewBucketMappingRepository(db)
	resolver := NewBucketResolver(repo, newFakeCache(), true)
	return NewMappingService(repo, resolver), resolver, db
}

func TestMappingUpsertFlushesResolverCache(t *testing.T) {
	svc, resolver, _ := setupMappingServiceTest(t)
	ctx := context.Background()

	// 先以未知状态码解析，缓存默认值
	bucket, _, err := resolver.Resolve(ctx, "XPRESSBEES", "OFD")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if bucket != models.BucketUnknown {
		t.Fatalf("expected unknown before curation, got %d", bucket)
	}

	// 人工标注后重新解析应拿到新值
	if _, err := svc.Upsert(ctx, UpsertMappingInput{
		CourierName: "xpressbees",
		StatusCode:  "OFD",
		Bucket:      models.BucketOutForDelivery,
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	bucket, label, err := resolver.Resolve(ctx, "XPRESSBEES", "OFD")
	if err != nil {
		t.Fatalf("resolve after upsert failed: %v", err)
	}
	if bucket != models.BucketOutForDelivery {
		t.Fatalf("expected out for delivery, got %d", bucket)
	}
	if label == "" {
		t.Fatalf("label should default from bucket")
	}
}

func TestMappingUpsertRejectsInvalidBucket(t *testing.T) {
	svc, _, _ := setupMappingServiceTest(t)
	if _, err := svc.Upsert(context.Background(), UpsertMappingInput{
		CourierName: "EKART",
		StatusCode:  "X",
		Bucket:      models.Bucket(42),
	}); err != ErrInvalidBucket {
		t.Fatalf("expected invalid bucket, got %v", err)
	}
}

func TestMappingUnmap(t *testing.T) {
	svc, resolver, db := setupMappingServiceTest(t)
	ctx := context.Background()

	created, err := svc.Upsert(ctx, UpsertMappingInput{
		CourierName: "EKART",
		StatusCode:  "DL",
		Bucket:      models.BucketDelivered,
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := svc.Unmap(ctx, created.ID); err != nil {
		t.Fatalf("unmap failed: %v", err)
	}

	var row models.BucketMapping
	if err := db.First(&row, created.ID).Error; err != nil {
		t.Fatalf("reload mapping failed: %v", err)
	}
	if row.IsMapped || row.Bucket != models.BucketUnknown {
		t.Fatalf("unmap should reset mapping, got %+v", row)
	}

	bucket, _, err := resolver.Resolve(ctx, "EKART", "DL")
	if err != nil {
		t.Fatalf("resolve after unmap failed: %v", err)
	}
	if bucket != models.BucketUnknown {
		t.Fatalf("unmapped code must resolve unknown, got %d", bucket)
	}
}

func TestMappingBulkUpsertSkipsBadItems(t *testing.T) {
	svc, _, _ := setupMappingServiceTest(t)
	count, err := svc.BulkUpsert(context.Background(), []UpsertMappingInput{
		{CourierName: "EKART", StatusCode: "PU", Bucket: models.BucketPickedUp},
		{CourierName: "", StatusCode: "IT", Bucket: models.BucketInTransit},
		{CourierName: "EKART", StatusCode: "IT", Bucket: models.BucketInTransit},
	})
	if err != nil {
		t.Fatalf("bulk upsert failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 succeeded, got %d", count)
	}
}
