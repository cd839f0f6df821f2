package service

import "errors"

// 服务层哨兵错误。worker 和 handler 通过 errors.Is 区分
// 终态错误（记日志后丢弃）与瞬态错误（交给队列重试）。
var (
	// ErrInvalidInput 请求参数不合法（终态）
	ErrInvalidInput = errors.New("invalid input")
	// ErrSellerNotFound 商家不存在（终态）
	ErrSellerNotFound = errors.New("seller not found")
	// ErrOrderNotFound 订单不存在（终态）
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNoExists 订单编号已存在（终态）
	ErrOrderNoExists = errors.New("order no already exists")
	// ErrOrderCanceled 订单已取消（终态）
	ErrOrderCanceled = errors.New("order already canceled")
	// ErrShipmentNotFound 运单不存在（终态）
	ErrShipmentNotFound = errors.New("shipment not found")
	// ErrAWBAssigned 运单已分配运单号（终态）
	ErrAWBAssigned = errors.New("awb already assigned")
	// ErrMappingNotFound 状态映射不存在（终态）
	ErrMappingNotFound = errors.New("bucket mapping not found")
	// ErrInvalidBucket bucket 取值不合法（终态）
	ErrInvalidBucket = errors.New("invalid bucket value")
	// ErrMappingStoreUnavailable 映射存储不可用（瞬态，可重试）
	ErrMappingStoreUnavailable = errors.New("bucket mapping store unavailable")
	// ErrApplyFailed 状态应用事务失败（瞬态，可重试）
	ErrApplyFailed = errors.New("tracking apply failed")
	// ErrLoginFailed 账号或密码错误（终态）
	ErrLoginFailed = errors.New("incorrect username or password")
	// ErrNotificationDisabled 通知推送未启用
	ErrNotificationDisabled = errors.New("notification disabled")
)

// IsTerminal 判断错误是否为终态（不应由队列重试）
func IsTerminal(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrSellerNotFound),
		errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrOrderNoExists),
		errors.Is(err, ErrOrderCanceled),
		errors.Is(err, ErrShipmentNotFound),
		errors.Is(err, ErrAWBAssigned),
		errors.Is(err, ErrMappingNotFound),
		errors.Is(err, ErrInvalidBucket),
		errors.Is(err, ErrLoginFailed):
		return true
	}
	return false
}
