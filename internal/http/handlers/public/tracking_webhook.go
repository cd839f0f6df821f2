package public

import (
	"net/http"
	"strings"
	"time"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/queue"
	"github.com/shipflow-next/internal/service"

	"github.com/gin-gonic/gin"
)

// courierWebhookRequest 快递商回调载荷（各家字段命名不一，
// 这里收敛成一个宽松结构，常见别名都接）
type courierWebhookRequest struct {
	ShipmentID uint   `json:"shipment_id"`
	AWB        string `json:"awb"`
	WaybillNo  string `json:"waybill_no"`
	StatusCode string `json:"status_code"`
	Status     string `json:"status"`
	Remark     string `json:"remark"`
	Location   string `json:"location"`
	Timestamp  string `json:"timestamp"`
	EventTime  string `json:"event_time"`
}

// CourierWebhook 快递商状态回调入口。
// 只做归一化和入队，处理在 worker 侧完成；除载荷完全不可解析外
// 一律 ack 200，避免快递商侧重试风暴。
func (h *Handler) CourierWebhook(c *gin.Context) {
	courier := service.NormalizeCourier(c.Param("courier"))

	var req courierWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		requestLog(c).Warnw("courier_webhook_malformed",
			"courier", courier,
			"client_ip", c.ClientIP(),
			"error", err,
		)
		// 完全不可解析也 ack，重试只会再次失败
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	awb := strings.TrimSpace(req.AWB)
	if awb == "" {
		awb = strings.TrimSpace(req.WaybillNo)
	}
	statusCode := strings.TrimSpace(req.StatusCode)
	if statusCode == "" {
		statusCode = strings.TrimSpace(req.Status)
	}

	if courier == "" || (awb == "" && req.ShipmentID == 0) || statusCode == "" {
		requestLog(c).Warnw("courier_webhook_incomplete",
			"courier", courier,
			"awb", awb,
			"shipment_id", req.ShipmentID,
			"status_code", statusCode,
		)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	payload := queue.TrackingEventPayload{
		ShipmentID:  req.ShipmentID,
		AWB:         awb,
		CourierName: courier,
		StatusCode:  statusCode,
		Description: strings.TrimSpace(req.Remark),
		Location:    strings.TrimSpace(req.Location),
		Source:      constants.TrackingSourceWebhook,
		EventTime:   parseWebhookTime(req.Timestamp, req.EventTime),
	}
	if err := h.QueueClient.EnqueueTrackingEvent(payload); err != nil {
		// 入队失败也 ack；事件丢失由快递商下一次状态推送补偿
		requestLog(c).Errorw("courier_webhook_enqueue_failed",
			"courier", courier, "awb", awb, "status_code", statusCode, "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "accepted"})
		return
	}

	requestLog(c).Infow("courier_webhook_accepted",
		"courier", courier, "awb", awb, "status_code", statusCode)
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// parseWebhookTime 解析回调里的事件时间，失败回退当前时间
func parseWebhookTime(values ...string) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t
			}
		}
	}
	return time.Now()
}
