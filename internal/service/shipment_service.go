package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"
)

// ShipmentService 运单服务（查询与运单号分配）
type ShipmentService struct {
	shipmentRepo repository.ShipmentRepository
	eventRepo    repository.TrackingEventRepository
	tracking     *TrackingService
}

// NewShipmentService 创建运单服务
func NewShipmentService(
	shipmentRepo repository.ShipmentRepository,
	eventRepo repository.TrackingEventRepository,
	tracking *TrackingService,
) *ShipmentService {
	return &ShipmentService{
		shipmentRepo: shipmentRepo,
		eventRepo:    eventRepo,
		tracking:     tracking,
	}
}

// Get 获取运单及其轨迹事件
func (s *ShipmentService) Get(id uint) (*models.Shipment, []models.TrackingEvent, error) {
	shipment, err := s.shipmentRepo.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	if shipment == nil {
		return nil, nil, ErrShipmentNotFound
	}
	events, err := s.eventRepo.ListByShipment(id)
	if err != nil {
		return nil, nil, err
	}
	return shipment, events, nil
}

// List 分页查询运单列表
func (s *ShipmentService) List(filter repository.ShipmentListFilter) ([]models.Shipment, int64, error) {
	filter.CourierName = NormalizeCourier(filter.CourierName)
	return s.shipmentRepo.List(filter)
}

// AssignAWB 给运单分配快递商和运单号，并把"已分配"作为
// 系统事件经状态应用器推进运单。
func (s *ShipmentService) AssignAWB(ctx context.Context, id uint, courierName, awb string) (*models.Shipment, error) {
	courier := NormalizeCourier(courierName)
	awb = strings.TrimSpace(awb)
	if courier == "" || awb == "" {
		return nil, ErrInvalidInput
	}

	shipment, err := s.shipmentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	if shipment.AWB != "" {
		return nil, ErrAWBAssigned
	}

	if err := s.shipmentRepo.Updates(id, map[string]interface{}{
		"awb":          awb,
		"courier_name": courier,
	}); err != nil {
		return nil, err
	}

	if _, err := s.tracking.ApplyDirect(ctx, id, models.BucketCourierAssigned,
		fmt.Sprintf("courier %s assigned, awb %s", courier, awb)); err != nil {
		return nil, err
	}

	logger.Infow("shipment_awb_assigned", "shipment_id", id, "courier", courier, "awb", awb)
	return s.shipmentRepo.GetByID(id)
}
