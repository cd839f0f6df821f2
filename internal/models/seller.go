package models

import (
	"time"

	"gorm.io/gorm"
)

// Seller 商家（租户）表
type Seller struct {
	ID             uint           `gorm:"primarykey" json:"id"`                        // 主键
	Name           string         `gorm:"not null" json:"name"`                        // 商家名称
	Email          string         `gorm:"uniqueIndex;not null" json:"email"`           // 商家邮箱
	Phone          string         `gorm:"type:varchar(32)" json:"phone"`               // 商家电话
	WhatsappOptIn  bool           `gorm:"not null;default:false" json:"whatsapp_opt_in"` // 是否接收 WhatsApp 通知
	WebhookURL     string         `gorm:"type:varchar(500)" json:"webhook_url"`        // 商家侧事件回调地址
	Status         string         `gorm:"index;not null;default:active" json:"status"` // 商家状态
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                                  // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (Seller) TableName() string {
	return "sellers"
}
