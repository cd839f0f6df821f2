package admin

import (
	"errors"
	"strconv"

	handlershared "github.com/shipflow-next/internal/http/handlers/shared"
	"github.com/shipflow-next/internal/http/response"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"
	"github.com/shipflow-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListMappings 分页查询状态映射列表
func (h *Handler) ListMappings(c *gin.Context) {
	page, pageSize := handlershared.NormalizePagination(
		parseQueryInt(c, "page", 1), parseQueryInt(c, "page_size", 20))

	filter := repository.MappingListFilter{
		Page:        page,
		PageSize:    pageSize,
		CourierName: c.Query("courier_name"),
		StatusCode:  c.Query("status_code"),
		Bucket:      parseBucketQuery(c),
		IsMapped:    parseBoolQuery(c, "is_mapped"),
		IsActive:    parseBoolQuery(c, "is_active"),
	}
	mappings, total, err := h.MappingService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, mappings, response.NewPagination(page, pageSize, total))
}

// ListUnmappedMappings 分页查询待人工标注的映射
func (h *Handler) ListUnmappedMappings(c *gin.Context) {
	page, pageSize := handlershared.NormalizePagination(
		parseQueryInt(c, "page", 1), parseQueryInt(c, "page_size", 20))

	mappings, total, err := h.MappingService.ListUnmapped(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, mappings, response.NewPagination(page, pageSize, total))
}

// upsertMappingRequest 写入映射请求
type upsertMappingRequest struct {
	CourierName       string `json:"courier_name" binding:"required"`
	StatusCode        string `json:"status_code" binding:"required"`
	Bucket            int    `json:"bucket"`
	StatusLabel       string `json:"status_label"`
	StatusDescription string `json:"status_description"`
	IsActive          *bool  `json:"is_active"`
}

func (r upsertMappingRequest) toInput() service.UpsertMappingInput {
	return service.UpsertMappingInput{
		CourierName:       r.CourierName,
		StatusCode:        r.StatusCode,
		Bucket:            models.Bucket(r.Bucket),
		StatusLabel:       r.StatusLabel,
		StatusDescription: r.StatusDescription,
		IsActive:          r.IsActive,
	}
}

// UpsertMapping 写入或更新一条映射
func (h *Handler) UpsertMapping(c *gin.Context) {
	var req upsertMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_request", err)
		return
	}

	mapping, err := h.MappingService.Upsert(c.Request.Context(), req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "error.invalid_request", nil)
		case errors.Is(err, service.ErrInvalidBucket):
			respondError(c, response.CodeBadRequest, "error.mapping_invalid_bucket", nil)
		case errors.Is(err, service.ErrMappingStoreUnavailable):
			respondError(c, response.CodeInternal, "error.mapping_store_unavailable", err)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	requestLog(c).Infow("mapping_upserted",
		"courier", mapping.CourierName, "status_code", mapping.StatusCode, "bucket", mapping.Bucket)
	response.Success(c, mapping)
}

// bulkUpsertMappingRequest 批量写入映射请求
type bulkUpsertMappingRequest struct {
	Items []upsertMappingRequest `json:"items" binding:"required"`
}

// BulkUpsertMappings 批量写入映射，返回成功条数
func (h *Handler) BulkUpsertMappings(c *gin.Context) {
	var req bulkUpsertMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_request", err)
		return
	}

	inputs := make([]service.UpsertMappingInput, 0, len(req.Items))
	for _, item := range req.Items {
		inputs = append(inputs, item.toInput())
	}
	succeeded, err := h.MappingService.BulkUpsert(c.Request.Context(), inputs)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondError(c, response.CodeBadRequest, "error.invalid_request", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	requestLog(c).Infow("mapping_bulk_upserted", "total", len(req.Items), "succeeded", succeeded)
	response.Success(c, gin.H{
		"total":     len(req.Items),
		"succeeded": succeeded,
	})
}

// UnmapMapping 取消一条映射的标注
func (h *Handler) UnmapMapping(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.MappingService.Unmap(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrMappingNotFound):
			respondError(c, response.CodeNotFound, "error.mapping_not_found", nil)
		case errors.Is(err, service.ErrMappingStoreUnavailable):
			respondError(c, response.CodeInternal, "error.mapping_store_unavailable", err)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	requestLog(c).Infow("mapping_unmapped", "mapping_id", id)
	response.Success(c, nil)
}

// setMappingActiveRequest 启停映射请求
type setMappingActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetMappingActive 启用或停用一条映射
func (h *Handler) SetMappingActive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req setMappingActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_request", err)
		return
	}

	if err := h.MappingService.SetActive(c.Request.Context(), id, *req.IsActive); err != nil {
		switch {
		case errors.Is(err, service.ErrMappingNotFound):
			respondError(c, response.CodeNotFound, "error.mapping_not_found", nil)
		case errors.Is(err, service.ErrMappingStoreUnavailable):
			respondError(c, response.CodeInternal, "error.mapping_store_unavailable", err)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	requestLog(c).Infow("mapping_active_changed", "mapping_id", id, "is_active", *req.IsActive)
	response.Success(c, nil)
}

// flushMappingCacheRequest 失效解析缓存请求。
// 不带参数时失效全部缓存。
type flushMappingCacheRequest struct {
	CourierName string `json:"courier_name"`
	StatusCode  string `json:"status_code"`
}

// FlushMappingCache 失效解析缓存（单条或全量）
func (h *Handler) FlushMappingCache(c *gin.Context) {
	var req flushMappingCacheRequest
	// 空请求体按全量失效处理
	_ = c.ShouldBindJSON(&req)

	var err error
	if req.CourierName != "" && req.StatusCode != "" {
		err = h.MappingService.FlushCache(c.Request.Context(), req.CourierName, req.StatusCode)
	} else {
		err = h.MappingService.FlushAllCache(c.Request.Context())
	}
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	requestLog(c).Infow("mapping_cache_flushed", "courier", req.CourierName, "status_code", req.StatusCode)
	response.Success(c, nil)
}

func parseBucketQuery(c *gin.Context) *models.Bucket {
	raw := c.Query("bucket")
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	bucket := models.Bucket(value)
	if !bucket.Valid() {
		return nil
	}
	return &bucket
}

func parseBoolQuery(c *gin.Context, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}
