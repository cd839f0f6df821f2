package queue

import (
	"encoding/json"
	"time"

	"github.com/shipflow-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskTrackingEvent 轨迹事件应用任务
	TaskTrackingEvent = constants.TaskTrackingEvent
	// TaskNotificationDispatch 通知推送任务
	TaskNotificationDispatch = constants.TaskNotificationDispatch
)

// TrackingEventPayload 轨迹事件任务载荷
type TrackingEventPayload struct {
	ShipmentID  uint      `json:"shipment_id"`
	AWB         string    `json:"awb,omitempty"`
	CourierName string    `json:"courier_name"`
	StatusCode  string    `json:"status_code"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Source      string    `json:"source"`
	EventTime   time.Time `json:"event_time"`
}

// NotificationPayload 通知推送任务载荷
type NotificationPayload struct {
	EventType  string            `json:"event_type"`
	Recipient  string            `json:"recipient"`  // customer / seller
	ShipmentID uint              `json:"shipment_id"`
	OrderID    uint              `json:"order_id"`
	Variables  map[string]string `json:"variables,omitempty"`
}

// NewTrackingEventTask 创建轨迹事件任务
func NewTrackingEventTask(payload TrackingEventPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTrackingEvent, body), nil
}

// NewNotificationDispatchTask 创建通知推送任务
func NewNotificationDispatchTask(payload NotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}
