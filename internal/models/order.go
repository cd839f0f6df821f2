package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表。Status 由运单 bucket 推导（constants.OrderStatusXxx），
// canceled 为人工终态，之后不再被运单状态覆盖。
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                        // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                        // 订单编号
	SellerID       uint           `gorm:"index;not null" json:"seller_id"`                             // 商家ID
	CustomerName   string         `gorm:"not null" json:"customer_name"`                               // 收件人姓名
	CustomerPhone  string         `gorm:"index;not null" json:"customer_phone"`                        // 收件人电话
	CustomerEmail  string         `gorm:"index" json:"customer_email,omitempty"`                       // 收件人邮箱
	AddressLine    string         `gorm:"type:varchar(500)" json:"address_line"`                       // 收件地址
	City           string         `gorm:"type:varchar(100)" json:"city"`                               // 城市
	Pincode        string         `gorm:"type:varchar(16);index" json:"pincode"`                       // 邮编
	PaymentMethod  string         `gorm:"not null" json:"payment_method"`                              // 支付方式（cod/prepaid）
	CODAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"cod_amount"`     // 到付金额
	ShippingCharge Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_charge"` // 运费
	DeclaredValue  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"declared_value"` // 声明价值
	Status         string         `gorm:"index;not null" json:"status"`                                // 订单状态
	CanceledAt     *time.Time     `gorm:"index" json:"canceled_at"`                                    // 取消时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                     // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间

	// 关联
	Shipment *Shipment `gorm:"foreignKey:OrderID" json:"shipment,omitempty"` // 运单
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
