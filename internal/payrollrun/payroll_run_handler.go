package payrollrun

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/shared/apperror"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/shared/response"
)

type Handler struct {
	service Service
	rdb     *redis.Client
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func NewHandlerWithRedis(service Service, rdb *redis.Client) *Handler {
	return &Handler{service: service, rdb: rdb}
}

func getActorID(c *gin.Context) string {
	return c.GetString("employee_id")
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// releaseIdempotency drops the redis lock and optionally caches the
// successful response for replay.
func (h *Handler) releaseIdempotency(c *gin.Context, resp any) {
	if h.rdb == nil {
		return
	}
	if lk, ok := c.Get("idempotency_lock_key"); ok {
		if key, ok := lk.(string); ok && key != "" {
			defer h.rdb.Del(c.Request.Context(), key)
		}
	}
	if resp == nil {
		return
	}
	if ck, ok := c.Get("idempotency_cache_key"); ok {
		if key, ok := ck.(string); ok && key != "" {
			if payload, err := json.Marshal(resp); err == nil {
				_ = h.rdb.Set(c.Request.Context(), key, payload, 24*time.Hour).Err()
			}
		}
	}
}

func (h *Handler) Create(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := getActorID(c)

	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		h.releaseIdempotency(c, nil)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), companyID, actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		h.releaseIdempotency(c, nil)
		return
	}

	h.releaseIdempotency(c, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")

	resp, err := h.service.GetAll(ctx, companyID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetById(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	targetID := c.Param("id")

	resp, err := h.service.GetByID(ctx, companyID, targetID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetEmployees(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	targetID := c.Param("id")

	resp, err := h.service.GetEmployeeBreakdowns(ctx, companyID, targetID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) SetRates(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	id := c.Param("id")

	var req SetExchangeRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.SetExchangeRates(ctx, companyID, id, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Calculate(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	id := c.Param("id")

	resp, err := h.service.Calculate(ctx, companyID, actorID, id)
	if err != nil {
		h.writeServiceError(c, err)
		h.releaseIdempotency(c, nil)
		return
	}

	h.releaseIdempotency(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	id := c.Param("id")

	resp, err := h.service.Approve(ctx, companyID, actorID, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ApproveRecalculation(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	id := c.Param("id")

	resp, err := h.service.ApproveRecalculation(ctx, companyID, actorID, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) MarkAsPaid(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	id := c.Param("id")

	resp, err := h.service.MarkAsPaid(ctx, companyID, actorID, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reopen(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	id := c.Param("id")

	resp, err := h.service.Reopen(ctx, companyID, actorID, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")
	id := c.Param("id")

	if err := h.service.Delete(ctx, companyID, id); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
