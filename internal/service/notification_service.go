package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/queue"
	"github.com/shipflow-next/internal/repository"
)

const defaultNotifyTimeout = 3 * time.Second

// NotificationService 通知推送服务。
// 把状态变化事件推给外部消息网关（短信/WhatsApp 等），
// 推送失败由队列重试，允许偶发重复。
type NotificationService struct {
	cfg        config.NotificationConfig
	httpClient *http.Client
	orderRepo  repository.OrderRepository
	sellerRepo repository.SellerRepository
}

// NewNotificationService 创建通知推送服务
func NewNotificationService(
	cfg config.NotificationConfig,
	orderRepo repository.OrderRepository,
	sellerRepo repository.SellerRepository,
) *NotificationService {
	timeout := defaultNotifyTimeout
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	return &NotificationService{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		orderRepo:  orderRepo,
		sellerRepo: sellerRepo,
	}
}

// notifyRequest 推送给消息网关的请求体
type notifyRequest struct {
	EventType string            `json:"event_type"`
	Recipient string            `json:"recipient"`
	Phone     string            `json:"phone,omitempty"`
	Email     string            `json:"email,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
}

// Send 推送一条通知。未启用时静默跳过；
// 收件人缺失按终态处理（记日志丢弃），网关失败返回错误交队列重试。
func (s *NotificationService) Send(ctx context.Context, payload queue.NotificationPayload) error {
	if !s.cfg.Enabled || strings.TrimSpace(s.cfg.ProviderURL) == "" {
		logger.Debugw("notification_skipped_disabled",
			"event_type", payload.EventType, "order_id", payload.OrderID)
		return nil
	}

	req := notifyRequest{
		EventType: payload.EventType,
		Recipient: payload.Recipient,
		Variables: payload.Variables,
	}
	if err := s.fillContact(&req, payload); err != nil {
		return err
	}
	if req.Phone == "" && req.Email == "" {
		logger.Warnw("notification_recipient_missing",
			"event_type", payload.EventType, "order_id", payload.OrderID, "recipient", payload.Recipient)
		return nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.ProviderURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token := strings.TrimSpace(s.cfg.ProviderToken); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("notification provider request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification provider status %d", resp.StatusCode)
	}

	logger.Infow("notification_sent",
		"event_type", payload.EventType, "order_id", payload.OrderID, "recipient", payload.Recipient)
	return nil
}

// fillContact 按收件方类型解析联系信息
func (s *NotificationService) fillContact(req *notifyRequest, payload queue.NotificationPayload) error {
	order, err := s.orderRepo.GetByID(payload.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}

	switch payload.Recipient {
	case constants.NotificationRecipientSeller:
		seller, err := s.sellerRepo.GetByID(order.SellerID)
		if err != nil {
			return err
		}
		if seller == nil {
			return ErrSellerNotFound
		}
		req.Phone = seller.Phone
		req.Email = seller.Email
	default:
		req.Phone = order.CustomerPhone
		req.Email = order.CustomerEmail
	}
	return nil
}
