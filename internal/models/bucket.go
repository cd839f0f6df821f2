package models

import "github.com/shipflow-next/internal/constants"

// Bucket 运单生命周期的规范化阶段编号。
// 各家快递的原始状态码先映射到 bucket，再由 bucket 驱动运单与订单状态推进。
// 数值顺序与物理配送进度一致，旁路终态（NDR/RTO/取消）保留在高位区间。
type Bucket int

const (
	// BucketUnknown 未映射状态码的默认值，永远不推进运单
	BucketUnknown Bucket = -1
	// BucketAwaitingPickup 下单完成等待揽收
	BucketAwaitingPickup Bucket = 0
	// BucketCourierAssigned 已分配快递与运单号
	BucketCourierAssigned Bucket = 1
	// BucketPickedUp 已揽收
	BucketPickedUp Bucket = 2
	// BucketInTransit 运输中
	BucketInTransit Bucket = 3
	// BucketOutForDelivery 派送中
	BucketOutForDelivery Bucket = 4
	// BucketDelivered 已签收
	BucketDelivered Bucket = 5
	// BucketNDR 派送失败待处理（旁路，可被再次派送覆盖）
	BucketNDR Bucket = 6
	// BucketRTO 退回寄件方（旁路终态）
	BucketRTO Bucket = 7
	// BucketCanceled 已取消（旁路终态）
	BucketCanceled Bucket = 8
)

// IsForward 判断是否为正向推进 bucket
func (b Bucket) IsForward() bool {
	return b >= BucketAwaitingPickup && b <= BucketDelivered
}

// IsSideBranch 判断是否为旁路 bucket（NDR/RTO/取消）
func (b Bucket) IsSideBranch() bool {
	return b == BucketNDR || b == BucketRTO || b == BucketCanceled
}

// IsLocked 判断作为当前状态时是否已锁定（不再接受任何推进）
func (b Bucket) IsLocked() bool {
	return b == BucketDelivered || b == BucketRTO || b == BucketCanceled
}

// Supersedes 判断以 b 为新事件 bucket 时，能否推进当前处于 current 的运单。
// 规则集中在这里，调用方不做任何额外比较：
//   - 未映射事件永不推进；
//   - 已签收/RTO/取消 为锁定态，任何事件都不再推进；
//   - 旁路事件（NDR/RTO/取消）可从任意未锁定状态进入；
//   - 正向事件仅在严格大于当前正向 bucket 时推进；
//   - NDR 之后仅允许"已签收"推进（再派送成功），其余正向事件保持 NDR。
func (b Bucket) Supersedes(current Bucket) bool {
	if b == BucketUnknown {
		return false
	}
	if current.IsLocked() {
		return false
	}
	if b.IsSideBranch() {
		return true
	}
	if !b.IsForward() {
		return false
	}
	if current == BucketNDR {
		return b == BucketDelivered
	}
	return b > current
}

// StatusLabel 返回 bucket 对应的运单状态文案
func (b Bucket) StatusLabel() string {
	switch b {
	case BucketAwaitingPickup:
		return constants.ShipmentStatusNew
	case BucketCourierAssigned:
		return constants.ShipmentStatusCourierAssigned
	case BucketPickedUp:
		return constants.ShipmentStatusPickedUp
	case BucketInTransit:
		return constants.ShipmentStatusInTransit
	case BucketOutForDelivery:
		return constants.ShipmentStatusOutForDelivery
	case BucketDelivered:
		return constants.ShipmentStatusDelivered
	case BucketNDR:
		return constants.ShipmentStatusNDR
	case BucketRTO:
		return constants.ShipmentStatusRTO
	case BucketCanceled:
		return constants.ShipmentStatusCanceled
	default:
		return ""
	}
}

// OrderStatus 返回 bucket 推导出的订单状态。
// 推导只依赖 bucket 本身，与运单历史路径无关；第二个返回值
// 为 false 表示该 bucket 不驱动订单状态变化。
func (b Bucket) OrderStatus() (string, bool) {
	switch b {
	case BucketCourierAssigned:
		return constants.OrderStatusReadyToShip, true
	case BucketPickedUp:
		return constants.OrderStatusShipped, true
	case BucketInTransit:
		return constants.OrderStatusInTransit, true
	case BucketOutForDelivery:
		return constants.OrderStatusOutForDelivery, true
	case BucketDelivered:
		return constants.OrderStatusDelivered, true
	case BucketNDR:
		return constants.OrderStatusNDR, true
	case BucketRTO:
		return constants.OrderStatusRTO, true
	case BucketCanceled:
		return constants.OrderStatusCanceled, true
	default:
		return "", false
	}
}

// Valid 判断 bucket 是否为已定义的取值
func (b Bucket) Valid() bool {
	return b == BucketUnknown || (b >= BucketAwaitingPickup && b <= BucketCanceled)
}
