package repository

import (
	"github.com/shipflow-next/internal/models"

	"gorm.io/gorm"
)

// TrackingEventRepository 轨迹事件数据访问接口（仅追加）
type TrackingEventRepository interface {
	Create(event *models.TrackingEvent) error
	ListByShipment(shipmentID uint) ([]models.TrackingEvent, error)
	CountByShipment(shipmentID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormTrackingEventRepository
}

// GormTrackingEventRepository GORM 实现
type GormTrackingEventRepository struct {
	db *gorm.DB
}

// NewTrackingEventRepository 创建轨迹事件仓库
func NewTrackingEventRepository(db *gorm.DB) *GormTrackingEventRepository {
	return &GormTrackingEventRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTrackingEventRepository) WithTx(tx *gorm.DB) *GormTrackingEventRepository {
	if tx == nil {
		return r
	}
	return &GormTrackingEventRepository{db: tx}
}

// Create 写入轨迹事件
func (r *GormTrackingEventRepository) Create(event *models.TrackingEvent) error {
	return r.db.Create(event).Error
}

// ListByShipment 查询运单的全部轨迹事件（按事件时间倒序）
func (r *GormTrackingEventRepository) ListByShipment(shipmentID uint) ([]models.TrackingEvent, error) {
	var events []models.TrackingEvent
	if err := r.db.Where("shipment_id = ?", shipmentID).
		Order("event_time DESC, id DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// CountByShipment 统计运单的轨迹事件数
func (r *GormTrackingEventRepository) CountByShipment(shipmentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.TrackingEvent{}).
		Where("shipment_id = ?", shipmentID).Count(&count).Error
	return count, err
}
