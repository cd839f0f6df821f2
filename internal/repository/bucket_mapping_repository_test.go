package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/shipflow-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupMappingRepositoryTest(t *testing.T) (*GormBucketMappingRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:mapping_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.BucketMapping{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewBucketMappingRepository(db), db
}

func TestBucketMappingFindOrCreate(t *testing.T) {
	repo, _ := setupMappingRepositoryTest(t)

	first, err := repo.FindOrCreate("BLUEDART", "UD")
	if err != nil {
		t.Fatalf("find or create failed: %v", err)
	}
	if first == nil || first.ID == 0 {
		t.Fatalf("expected placeholder row, got %+v", first)
	}
	if first.IsMapped || first.Bucket != models.BucketUnknown {
		t.Fatalf("placeholder should be unmapped unknown, got %+v", first)
	}

	second, err := repo.FindOrCreate("BLUEDART", "UD")
	if err != nil {
		t.Fatalf("second find or create failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same row, got %d and %d", first.ID, second.ID)
	}

	var count int64
	repo.db.Model(&models.BucketMapping{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 mapping row, got %d", count)
	}
}

func TestBucketMappingUpsertUpdatesExisting(t *testing.T) {
	repo, _ := setupMappingRepositoryTest(t)

	if _, err := repo.FindOrCreate("DELHIVERY", "DLVD"); err != nil {
		t.Fatalf("seed placeholder failed: %v", err)
	}

	mapping := &models.BucketMapping{
		CourierName: "DELHIVERY",
		StatusCode:  "DLVD",
		Bucket:      models.BucketDelivered,
		StatusLabel: "DELIVERED",
		IsMapped:    true,
		IsActive:    true,
	}
	if err := repo.Upsert(mapping); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := repo.Get("DELHIVERY", "DLVD")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || !got.IsMapped || got.Bucket != models.BucketDelivered {
		t.Fatalf("expected mapped delivered row, got %+v", got)
	}

	var count int64
	repo.db.Model(&models.BucketMapping{}).Count(&count)
	if count != 1 {
		t.Fatalf("upsert should not duplicate rows, got %d", count)
	}
}

func TestBucketMappingListFilters(t *testing.T) {
	repo, db := setupMappingRepositoryTest(t)

	rows := []models.BucketMapping{
		{CourierName: "BLUEDART", StatusCode: "PU", Bucket: models.BucketPickedUp, IsMapped: true, IsActive: true},
		{CourierName: "BLUEDART", StatusCode: "IT", Bucket: models.BucketInTransit, IsMapped: true, IsActive: true},
		{CourierName: "DELHIVERY", StatusCode: "X-99", Bucket: models.BucketUnknown, IsMapped: false, IsActive: true},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed mapping failed: %v", err)
		}
	}

	list, total, err := repo.List(MappingListFilter{Page: 1, PageSize: 10, CourierName: "BLUEDART"})
	if err != nil {
		t.Fatalf("list by courier failed: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("expected 2 bluedart rows, got total=%d len=%d", total, len(list))
	}

	unmapped, total, err := repo.ListUnmapped(1, 10)
	if err != nil {
		t.Fatalf("list unmapped failed: %v", err)
	}
	if total != 1 || len(unmapped) != 1 || unmapped[0].StatusCode != "X-99" {
		t.Fatalf("expected the single unmapped row, got total=%d rows=%+v", total, unmapped)
	}
}
