package repository

import (
	"time"

	"github.com/shipflow-next/internal/models"
)

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	SellerID    uint
	Status      string
	OrderNo     string
	Phone       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ShipmentListFilter 查询运单列表的过滤条件
type ShipmentListFilter struct {
	Page        int
	PageSize    int
	SellerID    uint
	CourierName string
	AWB         string
	Bucket      *models.Bucket
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// MappingListFilter 查询状态映射列表的过滤条件
type MappingListFilter struct {
	Page        int
	PageSize    int
	CourierName string
	StatusCode  string
	Bucket      *models.Bucket
	IsMapped    *bool
	IsActive    *bool
}
