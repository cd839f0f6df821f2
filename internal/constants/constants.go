package constants

// 订单状态常量
const (
	OrderStatusNew            = "new"
	OrderStatusReadyToShip    = "ready_to_ship"
	OrderStatusShipped        = "shipped"
	OrderStatusInTransit      = "in_transit"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusNDR            = "ndr"
	OrderStatusRTO            = "rto"
	OrderStatusCanceled       = "canceled"
)

// 运单状态文案常量（展示用，bucket 才是推进依据）
const (
	ShipmentStatusNew             = "NEW"
	ShipmentStatusCourierAssigned = "COURIER ASSIGNED"
	ShipmentStatusPickedUp        = "PICKED UP"
	ShipmentStatusInTransit       = "IN TRANSIT"
	ShipmentStatusOutForDelivery  = "OUT FOR DELIVERY"
	ShipmentStatusDelivered       = "DELIVERED"
	ShipmentStatusNDR             = "UNDELIVERED"
	ShipmentStatusRTO             = "RTO"
	ShipmentStatusCanceled        = "CANCELLED"
)

// 支付方式常量
const (
	PaymentMethodCOD     = "cod"
	PaymentMethodPrepaid = "prepaid"
)

// 商家状态常量
const (
	SellerStatusActive   = "active"
	SellerStatusDisabled = "disabled"
)

// 通知事件常量
const (
	NotificationEventCourierAssigned = "courier_assigned"
	NotificationEventPickedUp        = "picked_up"
	NotificationEventOutForDelivery  = "out_for_delivery"
	NotificationEventDelivered       = "delivered"
	NotificationEventNDRAlert        = "ndr_seller_alert"
)

// 通知接收方类型常量
const (
	NotificationRecipientCustomer = "customer"
	NotificationRecipientSeller   = "seller"
)

// 队列常量
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"

	TaskTrackingEvent        = "tracking:event"
	TaskNotificationDispatch = "notification:dispatch"
)

// 缓存键常量
const (
	CacheKeyBucketMapping = "bucket_map"
	CacheKeyTrackTimeline = "track"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "sf"
)

// 事件来源常量
const (
	TrackingSourceWebhook = "webhook"
	TrackingSourceManual  = "manual"
	TrackingSourceSystem  = "system"
)
