package repository

import (
	"errors"

	"github.com/shipflow-next/internal/models"

	"gorm.io/gorm"
)

// SellerRepository 商家数据访问接口
type SellerRepository interface {
	Create(seller *models.Seller) error
	GetByID(id uint) (*models.Seller, error)
	GetByEmail(email string) (*models.Seller, error)
	List(page, pageSize int) ([]models.Seller, int64, error)
	UpdateStatus(id uint, status string) error
	WithTx(tx *gorm.DB) *GormSellerRepository
}

// GormSellerRepository GORM 实现
type GormSellerRepository struct {
	db *gorm.DB
}

// NewSellerRepository 创建商家仓库
func NewSellerRepository(db *gorm.DB) *GormSellerRepository {
	return &GormSellerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSellerRepository) WithTx(tx *gorm.DB) *GormSellerRepository {
	if tx == nil {
		return r
	}
	return &GormSellerRepository{db: tx}
}

// Create 创建商家
func (r *GormSellerRepository) Create(seller *models.Seller) error {
	return r.db.Create(seller).Error
}

// GetByID 根据 ID 获取商家
func (r *GormSellerRepository) GetByID(id uint) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.First(&seller, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &seller, nil
}

// GetByEmail 根据邮箱获取商家
func (r *GormSellerRepository) GetByEmail(email string) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.Where("email = ?", email).First(&seller).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &seller, nil
}

// List 分页查询商家列表
func (r *GormSellerRepository) List(page, pageSize int) ([]models.Seller, int64, error) {
	var sellers []models.Seller
	var total int64
	query := r.db.Model(&models.Seller{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := applyPagination(query.Order("id DESC"), page, pageSize).
		Find(&sellers).Error; err != nil {
		return nil, 0, err
	}
	return sellers, total, nil
}

// UpdateStatus 更新商家状态
func (r *GormSellerRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Seller{}).Where("id = ?", id).
		Update("status", status).Error
}
