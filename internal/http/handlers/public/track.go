package public

import (
	"errors"
	"time"

	"github.com/shipflow-next/internal/http/response"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/service"

	"github.com/gin-gonic/gin"
)

// trackView 公开的运单轨迹视图
type trackView struct {
	AWB         string           `json:"awb"`
	CourierName string           `json:"courier_name"`
	Status      string           `json:"status"`
	Bucket      models.Bucket    `json:"bucket"`
	PickupDate  *time.Time       `json:"pickup_date,omitempty"`
	EDD         *time.Time       `json:"edd,omitempty"`
	Events      []trackEventView `json:"events"`
}

type trackEventView struct {
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	EventTime   string `json:"event_time"`
}

// Track 按运单号查询轨迹
func (h *Handler) Track(c *gin.Context) {
	awb := c.Param("awb")

	shipment, events, err := h.TrackingService.Timeline(c.Request.Context(), awb)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "error.invalid_request", nil)
		case errors.Is(err, service.ErrShipmentNotFound):
			respondError(c, response.CodeNotFound, "error.shipment_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	view := trackView{
		AWB:         shipment.AWB,
		CourierName: shipment.CourierName,
		Status:      shipment.Status,
		Bucket:      shipment.CurrentBucket,
		PickupDate:  shipment.PickupDate,
		EDD:         shipment.EDD,
		Events:      make([]trackEventView, 0, len(events)),
	}
	for _, event := range events {
		// 未推进的审计事件不对外暴露
		if !event.Applied {
			continue
		}
		view.Events = append(view.Events, trackEventView{
			Status:      event.Status,
			Description: event.Description,
			Location:    event.Location,
			EventTime:   event.EventTime.Format("2006-01-02 15:04:05"),
		})
	}
	response.Success(c, view)
}
