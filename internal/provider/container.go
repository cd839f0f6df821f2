package provider

import (
	"time"

	"github.com/shipflow-next/internal/cache"
	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/queue"
	"github.com/shipflow-next/internal/repository"
	"github.com/shipflow-next/internal/service"
)

// Container 依赖容器，集中构造仓库与服务
type Container struct {
	Config *config.Config
	Cache  *cache.Cache

	QueueClient *queue.Client

	AdminRepo    repository.AdminRepository
	SellerRepo   repository.SellerRepository
	OrderRepo    repository.OrderRepository
	ShipmentRepo repository.ShipmentRepository
	EventRepo    repository.TrackingEventRepository
	MappingRepo  repository.BucketMappingRepository

	AuthService         *service.AuthService
	BucketResolver      *service.BucketResolver
	TrackingService     *service.TrackingService
	MappingService      *service.MappingService
	OrderService        *service.OrderService
	ShipmentService     *service.ShipmentService
	NotificationService *service.NotificationService
}

// NewContainer 创建依赖容器
func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	c.Cache = cache.NewCache(&cfg.Redis)

	queueClient, err := queue.NewClient(&cfg.Queue, cfg.Tracking.EventMaxRetry)
	if err != nil {
		return nil, err
	}
	c.QueueClient = queueClient

	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.SellerRepo = repository.NewSellerRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ShipmentRepo = repository.NewShipmentRepository(db)
	c.EventRepo = repository.NewTrackingEventRepository(db)
	c.MappingRepo = repository.NewBucketMappingRepository(db)

	c.AuthService = service.NewAuthService(cfg, c.AdminRepo)
	c.BucketResolver = service.NewBucketResolver(c.MappingRepo, c.Cache, cfg.Tracking.ResolverCacheEnabled)
	c.TrackingService = service.NewTrackingService(
		db,
		c.ShipmentRepo,
		c.EventRepo,
		c.OrderRepo,
		c.BucketResolver,
		c.QueueClient,
		c.Cache,
		time.Duration(cfg.Tracking.TimelineCacheSeconds)*time.Second,
	)
	c.MappingService = service.NewMappingService(c.MappingRepo, c.BucketResolver)
	c.OrderService = service.NewOrderService(db, c.OrderRepo, c.ShipmentRepo, c.SellerRepo, c.TrackingService)
	c.ShipmentService = service.NewShipmentService(c.ShipmentRepo, c.EventRepo, c.TrackingService)
	c.NotificationService = service.NewNotificationService(cfg.Notification, c.OrderRepo, c.SellerRepo)

	return c, nil
}

// Close 释放容器资源
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.QueueClient != nil {
		return c.QueueClient.Close()
	}
	return nil
}
