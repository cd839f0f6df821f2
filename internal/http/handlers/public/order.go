package public

import (
	"errors"

	"github.com/shipflow-next/internal/http/response"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/service"

	"github.com/gin-gonic/gin"
)

// createOrderRequest 下单请求
type createOrderRequest struct {
	OrderNo        string       `json:"order_no" binding:"required"`
	SellerID       uint         `json:"seller_id" binding:"required"`
	CustomerName   string       `json:"customer_name" binding:"required"`
	CustomerPhone  string       `json:"customer_phone" binding:"required"`
	CustomerEmail  string       `json:"customer_email"`
	AddressLine    string       `json:"address_line"`
	City           string       `json:"city"`
	Pincode        string       `json:"pincode"`
	PaymentMethod  string       `json:"payment_method" binding:"required"`
	CODAmount      models.Money `json:"cod_amount"`
	ShippingCharge models.Money `json:"shipping_charge"`
	DeclaredValue  models.Money `json:"declared_value"`
}

// CreateOrder 创建订单（同时创建初始运单）
func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_request", err)
		return
	}

	order, err := h.OrderService.Create(service.CreateOrderInput{
		OrderNo:        req.OrderNo,
		SellerID:       req.SellerID,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		CustomerEmail:  req.CustomerEmail,
		AddressLine:    req.AddressLine,
		City:           req.City,
		Pincode:        req.Pincode,
		PaymentMethod:  req.PaymentMethod,
		CODAmount:      req.CODAmount,
		ShippingCharge: req.ShippingCharge,
		DeclaredValue:  req.DeclaredValue,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "error.invalid_request", nil)
		case errors.Is(err, service.ErrSellerNotFound):
			respondError(c, response.CodeNotFound, "error.seller_not_found", nil)
		case errors.Is(err, service.ErrOrderNoExists):
			respondError(c, response.CodeConflict, "error.order_no_exists", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, order)
}
