package repository

import (
	"errors"

	"github.com/shipflow-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BucketMappingRepository 状态映射数据访问接口
type BucketMappingRepository interface {
	Get(courierName, statusCode string) (*models.BucketMapping, error)
	GetByID(id uint) (*models.BucketMapping, error)
	FindOrCreate(courierName, statusCode string) (*models.BucketMapping, error)
	Upsert(mapping *models.BucketMapping) error
	Updates(id uint, updates map[string]interface{}) error
	List(filter MappingListFilter) ([]models.BucketMapping, int64, error)
	ListUnmapped(page, pageSize int) ([]models.BucketMapping, int64, error)
	WithTx(tx *gorm.DB) *GormBucketMappingRepository
}

// GormBucketMappingRepository GORM 实现
type GormBucketMappingRepository struct {
	db *gorm.DB
}

// NewBucketMappingRepository 创建状态映射仓库
func NewBucketMappingRepository(db *gorm.DB) *GormBucketMappingRepository {
	return &GormBucketMappingRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBucketMappingRepository) WithTx(tx *gorm.DB) *GormBucketMappingRepository {
	if tx == nil {
		return r
	}
	return &GormBucketMappingRepository{db: tx}
}

// Get 按 (快递商, 状态码) 查询映射
func (r *GormBucketMappingRepository) Get(courierName, statusCode string) (*models.BucketMapping, error) {
	var mapping models.BucketMapping
	if err := r.db.Where("courier_name = ? AND status_code = ?", courierName, statusCode).
		First(&mapping).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mapping, nil
}

// GetByID 根据 ID 获取映射
func (r *GormBucketMappingRepository) GetByID(id uint) (*models.BucketMapping, error) {
	var mapping models.BucketMapping
	if err := r.db.First(&mapping, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mapping, nil
}

// FindOrCreate 查询映射，不存在时落一条未标注的占位行。
// 并发首次写入同一状态码时靠唯一索引兜底，冲突后重查。
func (r *GormBucketMappingRepository) FindOrCreate(courierName, statusCode string) (*models.BucketMapping, error) {
	existing, err := r.Get(courierName, statusCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	mapping := models.BucketMapping{
		CourierName: courierName,
		StatusCode:  statusCode,
		Bucket:      models.BucketUnknown,
		IsMapped:    false,
		IsActive:    true,
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "courier_name"}, {Name: "status_code"}},
		DoNothing: true,
	}).Create(&mapping).Error; err != nil {
		return nil, err
	}
	if mapping.ID != 0 {
		return &mapping, nil
	}
	return r.Get(courierName, statusCode)
}

// Upsert 按 (快递商, 状态码) 写入或更新映射
func (r *GormBucketMappingRepository) Upsert(mapping *models.BucketMapping) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "courier_name"}, {Name: "status_code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"bucket", "status_label", "status_description", "is_mapped", "is_active", "updated_at",
		}),
	}).Create(mapping).Error
}

// Updates 更新映射字段
func (r *GormBucketMappingRepository) Updates(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.BucketMapping{}).Where("id = ?", id).Updates(updates).Error
}

// List 分页查询映射列表
func (r *GormBucketMappingRepository) List(filter MappingListFilter) ([]models.BucketMapping, int64, error) {
	query := r.db.Model(&models.BucketMapping{})
	if filter.CourierName != "" {
		query = query.Where("courier_name = ?", filter.CourierName)
	}
	if filter.StatusCode != "" {
		query = query.Where("status_code = ?", filter.StatusCode)
	}
	if filter.Bucket != nil {
		query = query.Where("bucket = ?", *filter.Bucket)
	}
	if filter.IsMapped != nil {
		query = query.Where("is_mapped = ?", *filter.IsMapped)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var mappings []models.BucketMapping
	if err := applyPagination(query.Order("courier_name ASC, status_code ASC"), filter.Page, filter.PageSize).
		Find(&mappings).Error; err != nil {
		return nil, 0, err
	}
	return mappings, total, nil
}

// ListUnmapped 分页查询待标注的映射
func (r *GormBucketMappingRepository) ListUnmapped(page, pageSize int) ([]models.BucketMapping, int64, error) {
	mapped := false
	return r.List(MappingListFilter{
		Page:     page,
		PageSize: pageSize,
		IsMapped: &mapped,
	})
}
