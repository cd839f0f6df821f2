package public

import "github.com/shipflow-next/internal/provider"

// Handler 公共接口处理器入口（webhook、下单、运单查询）
type Handler struct {
	*provider.Container
}

// New 创建公共处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
