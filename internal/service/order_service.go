package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	db           *gorm.DB
	orderRepo    repository.OrderRepository
	shipmentRepo repository.ShipmentRepository
	sellerRepo   repository.SellerRepository
	tracking     *TrackingService
}

// NewOrderService 创建订单服务
func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	shipmentRepo repository.ShipmentRepository,
	sellerRepo repository.SellerRepository,
	tracking *TrackingService,
) *OrderService {
	return &OrderService{
		db:           db,
		orderRepo:    orderRepo,
		shipmentRepo: shipmentRepo,
		sellerRepo:   sellerRepo,
		tracking:     tracking,
	}
}

// CreateOrderInput 创建订单入参
type CreateOrderInput struct {
	OrderNo        string
	SellerID       uint
	CustomerName   string
	CustomerPhone  string
	CustomerEmail  string
	AddressLine    string
	City           string
	Pincode        string
	PaymentMethod  string
	CODAmount      models.Money
	ShippingCharge models.Money
	DeclaredValue  models.Money
}

// Create 创建订单及其运单（同一事务）。
// 运单初始为待揽收 bucket，订单状态 new。
func (s *OrderService) Create(input CreateOrderInput) (*models.Order, error) {
	orderNo := strings.TrimSpace(input.OrderNo)
	if orderNo == "" || input.SellerID == 0 ||
		strings.TrimSpace(input.CustomerName) == "" ||
		strings.TrimSpace(input.CustomerPhone) == "" {
		return nil, ErrInvalidInput
	}
	paymentMethod := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	if paymentMethod != constants.PaymentMethodCOD && paymentMethod != constants.PaymentMethodPrepaid {
		return nil, ErrInvalidInput
	}

	seller, err := s.sellerRepo.GetByID(input.SellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, ErrSellerNotFound
	}

	existing, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrOrderNoExists
	}

	order := &models.Order{
		OrderNo:        orderNo,
		SellerID:       input.SellerID,
		CustomerName:   strings.TrimSpace(input.CustomerName),
		CustomerPhone:  strings.TrimSpace(input.CustomerPhone),
		CustomerEmail:  strings.TrimSpace(input.CustomerEmail),
		AddressLine:    strings.TrimSpace(input.AddressLine),
		City:           strings.TrimSpace(input.City),
		Pincode:        strings.TrimSpace(input.Pincode),
		PaymentMethod:  paymentMethod,
		CODAmount:      input.CODAmount,
		ShippingCharge: input.ShippingCharge,
		DeclaredValue:  input.DeclaredValue,
		Status:         constants.OrderStatusNew,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return err
		}
		shipment := &models.Shipment{
			OrderID:       order.ID,
			SellerID:      order.SellerID,
			CurrentBucket: models.BucketAwaitingPickup,
			Status:        constants.ShipmentStatusNew,
		}
		return s.shipmentRepo.WithTx(tx).Create(shipment)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order_created", "order_id", order.ID, "order_no", order.OrderNo, "seller_id", order.SellerID)
	return s.orderRepo.GetByID(order.ID)
}

// Get 获取订单详情
func (s *OrderService) Get(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List 分页查询订单列表
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// Cancel 人工取消订单。订单进入终态后，再把取消 bucket
// 作为系统事件经状态应用器推进运单，保持单一修改路径。
func (s *OrderService) Cancel(ctx context.Context, id uint) error {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status == constants.OrderStatusCanceled {
		return ErrOrderCanceled
	}

	now := time.Now()
	if err := s.orderRepo.UpdateStatus(id, constants.OrderStatusCanceled, map[string]interface{}{
		"canceled_at": &now,
	}); err != nil {
		return err
	}

	shipment, err := s.shipmentRepo.GetByOrderID(id)
	if err != nil {
		return err
	}
	if shipment != nil {
		if _, err := s.tracking.ApplyDirect(ctx, shipment.ID, models.BucketCanceled, "order canceled"); err != nil {
			return fmt.Errorf("cancel shipment: %w", err)
		}
	}

	logger.Infow("order_canceled", "order_id", id)
	return nil
}
