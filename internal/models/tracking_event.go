package models

import "time"

// TrackingEvent 轨迹事件表（仅追加的审计事实）。
// 每个进入系统的快递事件都落一行，Applied 标记它是否推进了运单；
// 未推进（重复、乱序、未映射）的事件同样保留。
type TrackingEvent struct {
	ID          uint      `gorm:"primarykey" json:"id"`                     // 主键
	ShipmentID  uint      `gorm:"index;not null" json:"shipment_id"`        // 运单ID
	CourierName string    `gorm:"type:varchar(64)" json:"courier_name"`     // 快递商名称（大写）
	StatusCode  string    `gorm:"type:varchar(64)" json:"status_code"`      // 快递商原始状态码
	Bucket      Bucket    `gorm:"not null;default:-1" json:"bucket"`        // 入库时解析出的 bucket
	Status      string    `gorm:"type:varchar(64)" json:"status"`           // 状态文案
	Description string    `gorm:"type:varchar(500)" json:"description"`     // 事件描述
	Location    string    `gorm:"type:varchar(200)" json:"location"`        // 事件发生地
	Source      string    `gorm:"type:varchar(16);index" json:"source"`     // 事件来源（webhook/manual/system）
	EventTime   time.Time `gorm:"index" json:"event_time"`                  // 快递商侧事件时间
	Applied     bool      `gorm:"not null;default:false" json:"applied"`    // 是否推进了运单状态
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                  // 入库时间
}

// TableName 指定表名
func (TrackingEvent) TableName() string {
	return "tracking_events"
}
