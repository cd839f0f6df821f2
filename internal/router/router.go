package router

import (
	"fmt"
	"strings"

	"github.com/shipflow-next/internal/config"
	adminhandlers "github.com/shipflow-next/internal/http/handlers/admin"
	publichandlers "github.com/shipflow-next/internal/http/handlers/public"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "sf"
	}
	redisClient := c.Cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.too_many_requests",
	}
	webhookRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:webhook", redisPrefix),
		WindowSeconds: cfg.Security.WebhookRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.WebhookRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.WebhookRateLimit.BlockSeconds,
		MessageKey:    "error.too_many_requests",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 快递商回调（按 courier+IP 限流）
		apiV1.POST("/webhooks/courier/:courier",
			RateLimitMiddleware(redisClient, webhookRule, KeyByIPAndParam("courier")),
			publicHandler.CourierWebhook)

		// 下单与公开轨迹查询
		apiV1.POST("/orders", publicHandler.CreateOrder)
		apiV1.GET("/track/:awb", publicHandler.Track)

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIP), adminHandler.Login)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.GET("/me", adminHandler.Me)
				authorized.PUT("/password", adminHandler.ChangePassword)

				// 状态映射管理
				authorized.GET("/mappings", adminHandler.ListMappings)
				authorized.GET("/mappings/unmapped", adminHandler.ListUnmappedMappings)
				authorized.POST("/mappings", adminHandler.UpsertMapping)
				authorized.POST("/mappings/bulk", adminHandler.BulkUpsertMappings)
				authorized.POST("/mappings/:id/unmap", adminHandler.UnmapMapping)
				authorized.PUT("/mappings/:id/active", adminHandler.SetMappingActive)
				authorized.POST("/mappings/cache/flush", adminHandler.FlushMappingCache)

				// 运单管理
				authorized.GET("/shipments", adminHandler.ListShipments)
				authorized.GET("/shipments/:id", adminHandler.GetShipment)
				authorized.POST("/shipments/:id/assign-awb", adminHandler.AssignAWB)

				// 订单管理
				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.POST("/orders/:id/cancel", adminHandler.CancelOrder)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
