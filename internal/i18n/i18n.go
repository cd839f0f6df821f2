package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// LocaleZhCN 简体中文
	LocaleZhCN = "zh-CN"
	// LocaleEnUS 英文
	LocaleEnUS = "en-US"
	// DefaultLocale 默认语言
	DefaultLocale = LocaleEnUS
)

// messages 错误文案目录，按 locale -> key 组织
var messages = map[string]map[string]string{
	LocaleEnUS: {
		"error.invalid_request":           "invalid request",
		"error.unauthorized":              "unauthorized",
		"error.forbidden":                 "forbidden",
		"error.not_found":                 "resource not found",
		"error.internal":                  "internal server error",
		"error.too_many_requests":         "too many requests",
		"error.rate_limit_unavailable":    "rate limiter unavailable",
		"error.jwt_secret_missing":        "jwt secret not configured",
		"error.token_invalid":             "invalid token",
		"error.token_revoked":             "token revoked",
		"error.auth_header_missing":       "authorization header missing",
		"error.auth_header_invalid":       "authorization header invalid",
		"error.login_failed":              "incorrect username or password",
		"error.password_too_short":        "password must be at least 8 characters",
		"error.seller_not_found":          "seller not found",
		"error.order_not_found":           "order not found",
		"error.order_no_exists":           "order number already exists",
		"error.order_canceled":            "order already canceled",
		"error.shipment_not_found":        "shipment not found",
		"error.awb_already_assigned":      "shipment already has an awb",
		"error.mapping_not_found":         "status mapping not found",
		"error.mapping_invalid_bucket":    "invalid bucket value",
		"error.mapping_store_unavailable": "status mapping store unavailable",
		"error.queue_unavailable":         "task queue unavailable",
	},
	LocaleZhCN: {
		"error.invalid_request":           "请求参数错误",
		"error.unauthorized":              "未登录或登录已过期",
		"error.forbidden":                 "没有操作权限",
		"error.not_found":                 "资源不存在",
		"error.internal":                  "服务器内部错误",
		"error.too_many_requests":         "请求过于频繁",
		"error.rate_limit_unavailable":    "限流服务不可用",
		"error.jwt_secret_missing":        "JWT 密钥未配置",
		"error.token_invalid":             "登录凭证无效",
		"error.token_revoked":             "登录凭证已失效",
		"error.auth_header_missing":       "缺少认证头",
		"error.auth_header_invalid":       "认证头格式错误",
		"error.login_failed":              "账号或密码错误",
		"error.password_too_short":        "密码长度至少 8 位",
		"error.seller_not_found":          "商家不存在",
		"error.order_not_found":           "订单不存在",
		"error.order_no_exists":           "订单编号已存在",
		"error.order_canceled":            "订单已取消",
		"error.shipment_not_found":        "运单不存在",
		"error.awb_already_assigned":      "运单已分配运单号",
		"error.mapping_not_found":         "状态映射不存在",
		"error.mapping_invalid_bucket":    "bucket 取值无效",
		"error.mapping_store_unavailable": "状态映射存储不可用",
		"error.queue_unavailable":         "任务队列不可用",
	},
}

// ResolveLocale 从请求头解析客户端语言
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	header := c.GetHeader("Accept-Language")
	if header == "" {
		return DefaultLocale
	}
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch {
		case strings.HasPrefix(strings.ToLower(tag), "zh"):
			return LocaleZhCN
		case strings.HasPrefix(strings.ToLower(tag), "en"):
			return LocaleEnUS
		}
	}
	return DefaultLocale
}

// T 返回指定 locale 下 key 的文案；未命中时回退默认语言，再回退 key 本身
func T(locale, key string) string {
	if catalog, ok := messages[locale]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 带参数格式化文案
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
