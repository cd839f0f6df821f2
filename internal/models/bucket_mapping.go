package models

import "time"

// BucketMapping 快递状态码到 bucket 的映射表。
// (courier_name, status_code) 唯一；首次遇到的未知状态码以
// is_mapped=false 落库等待人工标注，不做硬删除，只停用或取消映射。
type BucketMapping struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                               // 主键
	CourierName       string    `gorm:"uniqueIndex:idx_mapping_courier_code;not null" json:"courier_name"`  // 快递商名称（大写）
	StatusCode        string    `gorm:"uniqueIndex:idx_mapping_courier_code;not null" json:"status_code"`   // 快递商状态码
	Bucket            Bucket    `gorm:"not null;default:-1" json:"bucket"`                                  // 映射到的 bucket
	StatusLabel       string    `gorm:"type:varchar(64)" json:"status_label"`                               // 状态文案
	StatusDescription string    `gorm:"type:varchar(500)" json:"status_description"`                        // 状态说明
	IsMapped          bool      `gorm:"index;not null;default:false" json:"is_mapped"`                      // 是否已人工标注
	IsActive          bool      `gorm:"index;not null;default:true" json:"is_active"`                       // 是否启用
	CreatedAt         time.Time `gorm:"index" json:"created_at"`                                            // 创建时间
	UpdatedAt         time.Time `json:"updated_at"`                                                         // 更新时间
}

// TableName 指定表名
func (BucketMapping) TableName() string {
	return "bucket_mappings"
}

// EffectiveBucket 返回映射生效时的 bucket；未标注或停用时按未知处理
func (m *BucketMapping) EffectiveBucket() Bucket {
	if m == nil || !m.IsMapped || !m.IsActive {
		return BucketUnknown
	}
	return m.Bucket
}
