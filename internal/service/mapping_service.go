package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"
)

// MappingService 状态映射管理服务（后台人工标注入口）。
// 任何写操作成功后都会失效对应的解析缓存。
type MappingService struct {
	mappingRepo repository.BucketMappingRepository
	resolver    *BucketResolver
}

// NewMappingService 创建状态映射管理服务
func NewMappingService(mappingRepo repository.BucketMappingRepository, resolver *BucketResolver) *MappingService {
	return &MappingService{mappingRepo: mappingRepo, resolver: resolver}
}

// UpsertMappingInput 写入映射入参
type UpsertMappingInput struct {
	CourierName       string
	StatusCode        string
	Bucket            models.Bucket
	StatusLabel       string
	StatusDescription string
	IsActive          *bool
}

// List 分页查询映射列表
func (s *MappingService) List(filter repository.MappingListFilter) ([]models.BucketMapping, int64, error) {
	filter.CourierName = NormalizeCourier(filter.CourierName)
	return s.mappingRepo.List(filter)
}

// ListUnmapped 分页查询待标注映射
func (s *MappingService) ListUnmapped(page, pageSize int) ([]models.BucketMapping, int64, error) {
	return s.mappingRepo.ListUnmapped(page, pageSize)
}

// Upsert 写入或更新一条映射并失效解析缓存
func (s *MappingService) Upsert(ctx context.Context, input UpsertMappingInput) (*models.BucketMapping, error) {
	courier := NormalizeCourier(input.CourierName)
	code := strings.TrimSpace(input.StatusCode)
	if courier == "" || code == "" {
		return nil, ErrInvalidInput
	}
	if !input.Bucket.Valid() {
		return nil, ErrInvalidBucket
	}

	label := strings.TrimSpace(input.StatusLabel)
	if label == "" {
		label = input.Bucket.StatusLabel()
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	mapping := &models.BucketMapping{
		CourierName:       courier,
		StatusCode:        code,
		Bucket:            input.Bucket,
		StatusLabel:       label,
		StatusDescription: strings.TrimSpace(input.StatusDescription),
		IsMapped:          input.Bucket != models.BucketUnknown,
		IsActive:          active,
	}
	if err := s.mappingRepo.Upsert(mapping); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMappingStoreUnavailable, err)
	}

	if err := s.resolver.Flush(ctx, courier, code); err != nil {
		logger.Warnw("mapping_cache_flush_failed", "courier", courier, "status_code", code, "error", err)
	}
	return s.mappingRepo.Get(courier, code)
}

// BulkUpsert 批量写入映射，返回成功条数。
// 单条失败不中断整批，失败项记日志后跳过。
func (s *MappingService) BulkUpsert(ctx context.Context, inputs []UpsertMappingInput) (int, error) {
	if len(inputs) == 0 {
		return 0, ErrInvalidInput
	}
	succeeded := 0
	for _, input := range inputs {
		if _, err := s.Upsert(ctx, input); err != nil {
			logger.Warnw("mapping_bulk_upsert_item_failed",
				"courier", input.CourierName, "status_code", input.StatusCode, "error", err)
			continue
		}
		succeeded++
	}
	return succeeded, nil
}

// Unmap 取消一条映射的标注（软性回退，不删行）
func (s *MappingService) Unmap(ctx context.Context, id uint) error {
	mapping, err := s.mappingRepo.GetByID(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMappingStoreUnavailable, err)
	}
	if mapping == nil {
		return ErrMappingNotFound
	}
	if err := s.mappingRepo.Updates(id, map[string]interface{}{
		"is_mapped": false,
		"bucket":    models.BucketUnknown,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrMappingStoreUnavailable, err)
	}
	if err := s.resolver.Flush(ctx, mapping.CourierName, mapping.StatusCode); err != nil {
		logger.Warnw("mapping_cache_flush_failed",
			"courier", mapping.CourierName, "status_code", mapping.StatusCode, "error", err)
	}
	return nil
}

// SetActive 启用或停用一条映射
func (s *MappingService) SetActive(ctx context.Context, id uint, active bool) error {
	mapping, err := s.mappingRepo.GetByID(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMappingStoreUnavailable, err)
	}
	if mapping == nil {
		return ErrMappingNotFound
	}
	if err := s.mappingRepo.Updates(id, map[string]interface{}{"is_active": active}); err != nil {
		return fmt.Errorf("%w: %v", ErrMappingStoreUnavailable, err)
	}
	if err := s.resolver.Flush(ctx, mapping.CourierName, mapping.StatusCode); err != nil {
		logger.Warnw("mapping_cache_flush_failed",
			"courier", mapping.CourierName, "status_code", mapping.StatusCode, "error", err)
	}
	return nil
}

// FlushCache 失效单个状态码的解析缓存
func (s *MappingService) FlushCache(ctx context.Context, courierName, statusCode string) error {
	return s.resolver.Flush(ctx, courierName, statusCode)
}

// FlushAllCache 失效全部解析缓存
func (s *MappingService) FlushAllCache(ctx context.Context) error {
	return s.resolver.FlushAll(ctx)
}
