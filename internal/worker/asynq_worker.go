package worker

import (
	"context"
	"encoding/json"

	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/provider"
	"github.com/shipflow-next/internal/queue"
	"github.com/shipflow-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskTrackingEvent, c.handleTrackingEvent)
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
}

// handleTrackingEvent 应用一条轨迹事件。
// 终态错误（运单不存在、参数不合法）记日志后丢弃，
// 瞬态错误返回给 asynq 按退避重试，重试耗尽进 archived。
func (c *Consumer) handleTrackingEvent(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.TrackingEventPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_tracking_event_unmarshal_failed", "error", err)
		return nil
	}
	if payload.ShipmentID == 0 && payload.AWB == "" {
		logger.Warnw("worker_tracking_event_skip_invalid_payload",
			"courier", payload.CourierName, "status_code", payload.StatusCode)
		return nil
	}

	result, err := c.TrackingService.Ingest(ctx, service.IngestInput{
		ShipmentID:  payload.ShipmentID,
		AWB:         payload.AWB,
		CourierName: payload.CourierName,
		StatusCode:  payload.StatusCode,
		Description: payload.Description,
		Location:    payload.Location,
		Source:      payload.Source,
		EventTime:   payload.EventTime,
	})
	if err != nil {
		if service.IsTerminal(err) {
			logger.Warnw("worker_tracking_event_dropped",
				"shipment_id", payload.ShipmentID,
				"awb", payload.AWB,
				"courier", payload.CourierName,
				"status_code", payload.StatusCode,
				"error", err,
			)
			return nil
		}
		logger.Errorw("worker_tracking_event_retryable",
			"shipment_id", payload.ShipmentID,
			"courier", payload.CourierName,
			"status_code", payload.StatusCode,
			"error", err,
		)
		return err
	}

	logger.Debugw("worker_tracking_event_done",
		"shipment_id", result.ShipmentID,
		"applied", result.Applied,
		"new_bucket", int(result.NewBucket),
	)
	return nil
}

// handleNotificationDispatch 推送一条通知。
// 推送失败交给队列重试，偶发重复可接受。
func (c *Consumer) handleNotificationDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.NotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_unmarshal_failed", "error", err)
		return nil
	}
	if payload.OrderID == 0 || payload.EventType == "" {
		logger.Warnw("worker_notification_skip_invalid_payload",
			"order_id", payload.OrderID, "event_type", payload.EventType)
		return nil
	}

	if err := c.NotificationService.Send(ctx, payload); err != nil {
		if service.IsTerminal(err) {
			logger.Warnw("worker_notification_dropped",
				"order_id", payload.OrderID, "event_type", payload.EventType, "error", err)
			return nil
		}
		logger.Errorw("worker_notification_retryable",
			"order_id", payload.OrderID, "event_type", payload.EventType, "error", err)
		return err
	}
	return nil
}
