package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"
)

// JSONCache 服务层使用的缓存接口，由 cache.Cache 满足
type JSONCache interface {
	Enabled() bool
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	FlushPrefix(ctx context.Context, keyPrefix string) error
}

// resolvedMapping 解析结果的缓存形态
type resolvedMapping struct {
	Bucket      models.Bucket `json:"bucket"`
	StatusLabel string        `json:"status_label"`
}

// BucketResolver 状态码解析器。
// 把 (快递商, 原始状态码) 解析成 bucket；未知状态码落一条
// 未标注占位行并按未知返回，存储故障时报错而不是猜测。
type BucketResolver struct {
	mappingRepo  repository.BucketMappingRepository
	cache        JSONCache
	cacheEnabled bool
}

// NewBucketResolver 创建状态码解析器
func NewBucketResolver(mappingRepo repository.BucketMappingRepository, cache JSONCache, cacheEnabled bool) *BucketResolver {
	return &BucketResolver{
		mappingRepo:  mappingRepo,
		cache:        cache,
		cacheEnabled: cacheEnabled,
	}
}

// Resolve 解析状态码，返回 bucket 与状态文案。
// 缓存命中不落库；未命中读库并回填，缓存项不设过期，
// 由映射变更时显式失效。
func (s *BucketResolver) Resolve(ctx context.Context, courierName, statusCode string) (models.Bucket, string, error) {
	courier := NormalizeCourier(courierName)
	code := strings.TrimSpace(statusCode)
	if courier == "" || code == "" {
		return models.BucketUnknown, "", ErrInvalidInput
	}

	cacheKey := resolverCacheKey(courier, code)
	if s.cacheUsable() {
		var cached resolvedMapping
		hit, err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warnw("bucket_resolver_cache_read_failed",
				"courier", courier, "status_code", code, "error", err)
		} else if hit {
			return cached.Bucket, cached.StatusLabel, nil
		}
	}

	mapping, err := s.mappingRepo.FindOrCreate(courier, code)
	if err != nil {
		return models.BucketUnknown, "", fmt.Errorf("%w: %v", ErrMappingStoreUnavailable, err)
	}

	bucket := mapping.EffectiveBucket()
	label := mapping.StatusLabel
	if bucket == models.BucketUnknown {
		label = ""
	}

	if s.cacheUsable() {
		if err := s.cache.SetJSON(ctx, cacheKey, resolvedMapping{Bucket: bucket, StatusLabel: label}, 0); err != nil {
			logger.Warnw("bucket_resolver_cache_write_failed",
				"courier", courier, "status_code", code, "error", err)
		}
	}
	return bucket, label, nil
}

// Flush 失效单个状态码的缓存项
func (s *BucketResolver) Flush(ctx context.Context, courierName, statusCode string) error {
	if !s.cacheUsable() {
		return nil
	}
	courier := NormalizeCourier(courierName)
	code := strings.TrimSpace(statusCode)
	return s.cache.Del(ctx, resolverCacheKey(courier, code))
}

// FlushAll 失效全部解析缓存
func (s *BucketResolver) FlushAll(ctx context.Context) error {
	if !s.cacheUsable() {
		return nil
	}
	return s.cache.FlushPrefix(ctx, constants.CacheKeyBucketMapping)
}

func (s *BucketResolver) cacheUsable() bool {
	return s.cacheEnabled && s.cache != nil && s.cache.Enabled()
}

func resolverCacheKey(courier, code string) string {
	return fmt.Sprintf("%s:%s:%s", constants.CacheKeyBucketMapping, courier, code)
}

// NormalizeCourier 统一快递商名称格式（去空格、大写）
func NormalizeCourier(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
