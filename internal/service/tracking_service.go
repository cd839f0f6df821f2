package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/queue"
	"github.com/shipflow-next/internal/repository"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// NotificationEnqueuer 通知任务投递接口，由 queue.Client 满足
type NotificationEnqueuer interface {
	EnqueueNotification(payload queue.NotificationPayload, opts ...asynq.Option) error
}

// TrackingService 轨迹事件处理服务。
// 运单与订单状态的唯一修改入口：webhook 事件、人工录入、
// 系统合成事件（分配运单号、取消）都经由 apply 事务推进。
type TrackingService struct {
	db           *gorm.DB
	shipmentRepo repository.ShipmentRepository
	eventRepo    repository.TrackingEventRepository
	orderRepo    repository.OrderRepository
	resolver     *BucketResolver
	enqueuer     NotificationEnqueuer
	cache        JSONCache
	timelineTTL  time.Duration
}

// NewTrackingService 创建轨迹事件处理服务
func NewTrackingService(
	db *gorm.DB,
	shipmentRepo repository.ShipmentRepository,
	eventRepo repository.TrackingEventRepository,
	orderRepo repository.OrderRepository,
	resolver *BucketResolver,
	enqueuer NotificationEnqueuer,
	cache JSONCache,
	timelineTTL time.Duration,
) *TrackingService {
	return &TrackingService{
		db:           db,
		shipmentRepo: shipmentRepo,
		eventRepo:    eventRepo,
		orderRepo:    orderRepo,
		resolver:     resolver,
		enqueuer:     enqueuer,
		cache:        cache,
		timelineTTL:  timelineTTL,
	}
}

// IngestInput 轨迹事件入参
type IngestInput struct {
	ShipmentID  uint
	AWB         string
	CourierName string
	StatusCode  string
	Description string
	Location    string
	Source      string
	EventTime   time.Time
}

// ApplyResult 状态应用结果
type ApplyResult struct {
	Applied    bool
	OldBucket  models.Bucket
	NewBucket  models.Bucket
	EventID    uint
	ShipmentID uint
	OrderID    uint
	SellerID   uint
}

// Ingest 处理一条快递轨迹事件：定位运单、解析 bucket、应用状态。
// 同一事件重复投递是安全的：审计行会多一条，状态不会二次推进。
func (s *TrackingService) Ingest(ctx context.Context, input IngestInput) (*ApplyResult, error) {
	shipment, err := s.locateShipment(input)
	if err != nil {
		return nil, err
	}

	courier := NormalizeCourier(input.CourierName)
	if courier == "" {
		courier = shipment.CourierName
	}
	code := strings.TrimSpace(input.StatusCode)
	if code == "" {
		return nil, ErrInvalidInput
	}

	bucket, label, err := s.resolver.Resolve(ctx, courier, code)
	if err != nil {
		return nil, err
	}
	if bucket == models.BucketUnknown {
		logger.Infow("tracking_event_unmapped",
			"shipment_id", shipment.ID, "courier", courier, "status_code", code)
	}

	event := &models.TrackingEvent{
		ShipmentID:  shipment.ID,
		CourierName: courier,
		StatusCode:  code,
		Bucket:      bucket,
		Status:      label,
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		Source:      normalizeSource(input.Source),
		EventTime:   normalizeEventTime(input.EventTime),
	}
	return s.apply(ctx, shipment.ID, event)
}

// ApplyDirect 应用一条已知 bucket 的系统合成事件
// （分配运单号、人工取消），与快递事件走同一条事务路径。
func (s *TrackingService) ApplyDirect(ctx context.Context, shipmentID uint, bucket models.Bucket, description string) (*ApplyResult, error) {
	if !bucket.Valid() || bucket == models.BucketUnknown {
		return nil, ErrInvalidBucket
	}
	shipment, err := s.shipmentRepo.GetByID(shipmentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrApplyFailed, err)
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}

	event := &models.TrackingEvent{
		ShipmentID:  shipment.ID,
		CourierName: shipment.CourierName,
		StatusCode:  "",
		Bucket:      bucket,
		Status:      bucket.StatusLabel(),
		Description: strings.TrimSpace(description),
		Source:      constants.TrackingSourceSystem,
		EventTime:   time.Now(),
	}
	return s.apply(ctx, shipment.ID, event)
}

// apply 单事务的状态应用：
//  1. 行锁重读运单；
//  2. 无条件落审计事件行；
//  3. Supersedes 判定通过则推进运单 bucket 与状态文案；
//  4. 推进后若 bucket 推导出订单状态，更新未取消的父订单；
//  5. 提交后失效轨迹缓存并投递通知任务。
func (s *TrackingService) apply(ctx context.Context, shipmentID uint, event *models.TrackingEvent) (*ApplyResult, error) {
	result := &ApplyResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		shipment, err := s.shipmentRepo.WithTx(tx).GetByIDForUpdate(shipmentID)
		if err != nil {
			return err
		}
		if shipment == nil {
			return ErrShipmentNotFound
		}

		result.OldBucket = shipment.CurrentBucket
		result.NewBucket = shipment.CurrentBucket
		result.ShipmentID = shipment.ID
		result.OrderID = shipment.OrderID
		result.SellerID = shipment.SellerID

		applied := event.Bucket.Supersedes(shipment.CurrentBucket)
		event.Applied = applied
		if err := s.eventRepo.WithTx(tx).Create(event); err != nil {
			return err
		}
		result.EventID = event.ID
		if !applied {
			return nil
		}

		updates := map[string]interface{}{
			"current_bucket": event.Bucket,
			"status":         event.Bucket.StatusLabel(),
		}
		switch event.Bucket {
		case models.BucketPickedUp:
			if shipment.PickupDate == nil {
				eventTime := event.EventTime
				updates["pickup_date"] = &eventTime
			}
		case models.BucketDelivered:
			eventTime := event.EventTime
			updates["delivered_at"] = &eventTime
		}
		if err := s.shipmentRepo.WithTx(tx).Updates(shipment.ID, updates); err != nil {
			return err
		}

		if orderStatus, ok := event.Bucket.OrderStatus(); ok {
			order, err := s.orderRepo.WithTx(tx).GetByID(shipment.OrderID)
			if err != nil {
				return err
			}
			// 订单人工取消后不再被运单状态覆盖
			if order != nil && order.Status != constants.OrderStatusCanceled {
				orderUpdates := map[string]interface{}{}
				if orderStatus == constants.OrderStatusCanceled {
					now := time.Now()
					orderUpdates["canceled_at"] = &now
				}
				if err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, orderStatus, orderUpdates); err != nil {
					return err
				}
			}
		}

		result.Applied = true
		result.NewBucket = event.Bucket
		return nil
	})
	if err != nil {
		if IsTerminal(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrApplyFailed, err)
	}

	if result.Applied {
		s.invalidateTimeline(ctx, shipmentID)
		s.dispatch(result)
		logger.Infow("shipment_bucket_advanced",
			"shipment_id", shipmentID,
			"old_bucket", int(result.OldBucket),
			"new_bucket", int(result.NewBucket),
			"event_id", result.EventID,
		)
	} else {
		logger.Debugw("tracking_event_recorded_inert",
			"shipment_id", shipmentID,
			"bucket", int(event.Bucket),
			"current_bucket", int(result.OldBucket),
			"event_id", result.EventID,
		)
	}
	return result, nil
}

// dispatch 状态变化后的通知投递。投递失败只记日志，
// 不影响已提交的状态；由队列侧保证至少一次。
func (s *TrackingService) dispatch(result *ApplyResult) {
	if s.enqueuer == nil || !result.Applied {
		return
	}

	if eventType, ok := customerNotificationEvent(result.NewBucket); ok {
		payload := queue.NotificationPayload{
			EventType:  eventType,
			Recipient:  constants.NotificationRecipientCustomer,
			ShipmentID: result.ShipmentID,
			OrderID:    result.OrderID,
		}
		if err := s.enqueuer.EnqueueNotification(payload); err != nil {
			logger.Errorw("notification_enqueue_failed",
				"event_type", eventType, "order_id", result.OrderID, "error", err)
		}
	}

	if result.NewBucket == models.BucketNDR {
		payload := queue.NotificationPayload{
			EventType:  constants.NotificationEventNDRAlert,
			Recipient:  constants.NotificationRecipientSeller,
			ShipmentID: result.ShipmentID,
			OrderID:    result.OrderID,
		}
		if err := s.enqueuer.EnqueueNotification(payload); err != nil {
			logger.Errorw("notification_enqueue_failed",
				"event_type", constants.NotificationEventNDRAlert, "order_id", result.OrderID, "error", err)
		}
	}
}

// Timeline 查询运单及其轨迹事件（事件列表走缓存旁路，
// 状态推进时失效）
func (s *TrackingService) Timeline(ctx context.Context, awb string) (*models.Shipment, []models.TrackingEvent, error) {
	awb = strings.TrimSpace(awb)
	if awb == "" {
		return nil, nil, ErrInvalidInput
	}
	shipment, err := s.shipmentRepo.GetByAWB(awb)
	if err != nil {
		return nil, nil, err
	}
	if shipment == nil {
		return nil, nil, ErrShipmentNotFound
	}

	cacheKey := timelineCacheKey(shipment.ID)
	if s.cache != nil && s.cache.Enabled() {
		var cached []models.TrackingEvent
		hit, err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warnw("timeline_cache_read_failed", "shipment_id", shipment.ID, "error", err)
		} else if hit {
			return shipment, cached, nil
		}
	}

	events, err := s.eventRepo.ListByShipment(shipment.ID)
	if err != nil {
		return nil, nil, err
	}
	if s.cache != nil && s.cache.Enabled() && s.timelineTTL > 0 {
		if err := s.cache.SetJSON(ctx, cacheKey, events, s.timelineTTL); err != nil {
			logger.Warnw("timeline_cache_write_failed", "shipment_id", shipment.ID, "error", err)
		}
	}
	return shipment, events, nil
}

func (s *TrackingService) locateShipment(input IngestInput) (*models.Shipment, error) {
	var shipment *models.Shipment
	var err error
	switch {
	case input.ShipmentID > 0:
		shipment, err = s.shipmentRepo.GetByID(input.ShipmentID)
	case strings.TrimSpace(input.AWB) != "":
		shipment, err = s.shipmentRepo.GetByAWB(strings.TrimSpace(input.AWB))
	default:
		return nil, ErrInvalidInput
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrApplyFailed, err)
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	return shipment, nil
}

func (s *TrackingService) invalidateTimeline(ctx context.Context, shipmentID uint) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Del(ctx, timelineCacheKey(shipmentID)); err != nil {
		logger.Warnw("timeline_cache_invalidate_failed", "shipment_id", shipmentID, "error", err)
	}
}

func timelineCacheKey(shipmentID uint) string {
	return fmt.Sprintf("%s:%d", constants.CacheKeyTrackTimeline, shipmentID)
}

// customerNotificationEvent 返回 bucket 对应的客户通知事件
func customerNotificationEvent(bucket models.Bucket) (string, bool) {
	switch bucket {
	case models.BucketCourierAssigned:
		return constants.NotificationEventCourierAssigned, true
	case models.BucketPickedUp:
		return constants.NotificationEventPickedUp, true
	case models.BucketOutForDelivery:
		return constants.NotificationEventOutForDelivery, true
	case models.BucketDelivered:
		return constants.NotificationEventDelivered, true
	default:
		return "", false
	}
}

func normalizeSource(source string) string {
	switch source {
	case constants.TrackingSourceWebhook, constants.TrackingSourceManual, constants.TrackingSourceSystem:
		return source
	default:
		return constants.TrackingSourceWebhook
	}
}

func normalizeEventTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
