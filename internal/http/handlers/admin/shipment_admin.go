package admin

import (
	"errors"

	handlershared "github.com/shipflow-next/internal/http/handlers/shared"
	"github.com/shipflow-next/internal/http/response"
	"github.com/shipflow-next/internal/repository"
	"github.com/shipflow-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListShipments 分页查询运单列表
func (h *Handler) ListShipments(c *gin.Context) {
	page, pageSize := handlershared.NormalizePagination(
		parseQueryInt(c, "page", 1), parseQueryInt(c, "page_size", 20))

	filter := repository.ShipmentListFilter{
		Page:        page,
		PageSize:    pageSize,
		SellerID:    uint(parseQueryInt(c, "seller_id", 0)),
		CourierName: c.Query("courier_name"),
		AWB:         c.Query("awb"),
		Bucket:      parseBucketQuery(c),
	}
	shipments, total, err := h.ShipmentService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, shipments, response.NewPagination(page, pageSize, total))
}

// GetShipment 查询运单详情与全部轨迹事件（含未推进的审计事件）
func (h *Handler) GetShipment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	shipment, events, err := h.ShipmentService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrShipmentNotFound) {
			respondError(c, response.CodeNotFound, "error.shipment_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{
		"shipment": shipment,
		"events":   events,
	})
}

// assignAWBRequest 分配运单号请求
type assignAWBRequest struct {
	CourierName string `json:"courier_name" binding:"required"`
	AWB         string `json:"awb" binding:"required"`
}

// AssignAWB 给运单分配快递商与运单号
func (h *Handler) AssignAWB(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req assignAWBRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_request", err)
		return
	}

	shipment, err := h.ShipmentService.AssignAWB(c.Request.Context(), id, req.CourierName, req.AWB)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "error.invalid_request", nil)
		case errors.Is(err, service.ErrShipmentNotFound):
			respondError(c, response.CodeNotFound, "error.shipment_not_found", nil)
		case errors.Is(err, service.ErrAWBAssigned):
			respondError(c, response.CodeConflict, "error.awb_already_assigned", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, shipment)
}
