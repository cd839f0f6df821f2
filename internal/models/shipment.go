package models

import (
	"time"

	"gorm.io/gorm"
)

// Shipment 运单表。CurrentBucket/Status 仅由状态应用器在事务内推进，
// 其余代码只读。
type Shipment struct {
	ID            uint           `gorm:"primarykey" json:"id"`                           // 主键
	OrderID       uint           `gorm:"uniqueIndex;not null" json:"order_id"`           // 订单ID（一单一运单）
	SellerID      uint           `gorm:"index;not null" json:"seller_id"`                // 商家ID
	AWB           string         `gorm:"index;type:varchar(64)" json:"awb,omitempty"`    // 运单号（分配前为空）
	CourierName   string         `gorm:"index;type:varchar(64)" json:"courier_name"`     // 快递商名称（大写）
	CurrentBucket Bucket         `gorm:"index;not null;default:0" json:"current_bucket"` // 当前 bucket
	Status        string         `gorm:"index;not null" json:"status"`                   // 当前状态文案
	PickupDate    *time.Time     `json:"pickup_date"`                                    // 揽收日期
	EDD           *time.Time     `json:"edd"`                                            // 预计送达日期
	DeliveredAt   *time.Time     `gorm:"index" json:"delivered_at"`                      // 签收时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间

	// 关联
	Events []TrackingEvent `gorm:"foreignKey:ShipmentID" json:"events,omitempty"` // 轨迹事件
}

// TableName 指定表名
func (Shipment) TableName() string {
	return "shipments"
}
