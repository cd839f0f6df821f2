package admin

import (
	"errors"

	handlershared "github.com/shipflow-next/internal/http/handlers/shared"
	"github.com/shipflow-next/internal/http/response"
	"github.com/shipflow-next/internal/repository"
	"github.com/shipflow-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders 分页查询订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, pageSize := handlershared.NormalizePagination(
		parseQueryInt(c, "page", 1), parseQueryInt(c, "page_size", 20))

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		SellerID: uint(parseQueryInt(c, "seller_id", 0)),
		Status:   c.Query("status"),
		OrderNo:  c.Query("order_no"),
		Phone:    c.Query("phone"),
	}
	orders, total, err := h.OrderService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder 查询订单详情（含运单）
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 人工取消订单，同时把运单推进到取消终态
func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.OrderService.Cancel(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		case errors.Is(err, service.ErrOrderCanceled):
			respondError(c, response.CodeConflict, "error.order_canceled", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	requestLog(c).Infow("order_cancel_requested", "order_id", id)
	response.Success(c, nil)
}
