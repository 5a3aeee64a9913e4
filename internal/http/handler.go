package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hartawan/tambak-contracts/internal/http/middleware"
	"github.com/hartawan/tambak-contracts/internal/lifecycle"
	"github.com/hartawan/tambak-contracts/internal/model"
	"github.com/hartawan/tambak-contracts/internal/pricing"
	"github.com/hartawan/tambak-contracts/internal/service"
)

type contractService interface {
	Create(ctx context.Context, input service.CreateContractInput, principal model.Principal) (*service.CreateContractResult, error)
	Get(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.Contract, error)
	List(ctx context.Context, query service.ListQuery, principal model.Principal) (*service.ListResult, error)
	UpdatePricing(ctx context.Context, id uuid.UUID, input service.UpdatePricingInput, principal model.Principal) (*service.CreateContractResult, error)
	UpdateDeliveries(ctx context.Context, id uuid.UUID, input service.UpdateDeliveriesInput, principal model.Principal) (*model.Contract, error)
	Close(ctx context.Context, id uuid.UUID, version int64, principal model.Principal) (*model.Contract, error)
	Quote(ctx context.Context, id uuid.UUID, size, quantity float64, principal model.Principal) (*pricing.Quote, error)
	ExportPriceSheet(ctx context.Context, id uuid.UUID, principal model.Principal) (*service.ExportResult, error)
	ExportContract(ctx context.Context, id uuid.UUID, principal model.Principal) (*service.ExportResult, error)
}

type Handler struct {
	contracts contractService
	log       zerolog.Logger
}

func NewHandler(contracts contractService, log zerolog.Logger) *Handler {
	return &Handler{contracts: contracts, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.POST("/contracts", h.createContract)
	protected.GET("/contracts", h.listContracts)
	protected.GET("/contracts/:id", h.getContract)
	protected.PUT("/contracts/:id/pricing", h.updatePricing)
	protected.PUT("/contracts/:id/deliveries", h.updateDeliveries)
	protected.PUT("/contracts/:id/status", h.updateStatus)
	protected.GET("/contracts/:id/quote", h.quote)
	protected.POST("/contracts/:id/export", h.exportPriceSheet)
	protected.POST("/contracts/:id/export/pdf", h.exportContract)
}

type createContractRequest struct {
	ContractNumber string              `json:"contract_number"`
	ContractType   string              `json:"contract_type" binding:"required"`
	SupplierID     *uuid.UUID          `json:"supplier_id"`
	SupplierName   *string             `json:"supplier_name"`
	BasePricing    []model.PricePoint  `json:"base_pricing" binding:"required"`
	SizePenalties  []model.PenaltyRule `json:"size_penalties"`
	Deliveries     []model.Delivery    `json:"deliveries"`
}

func (h *Handler) createContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.contracts.Create(c.Request.Context(), service.CreateContractInput{
		ContractNumber: req.ContractNumber,
		ContractType:   model.ContractType(strings.ToUpper(strings.TrimSpace(req.ContractType))),
		SupplierID:     req.SupplierID,
		SupplierName:   req.SupplierName,
		BasePricing:    req.BasePricing,
		SizePenalties:  req.SizePenalties,
		Deliveries:     req.Deliveries,
	}, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"contract": result.Contract,
		"warnings": result.Warnings,
	})
}

func (h *Handler) listContracts(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	result, err := h.contracts.List(c.Request.Context(), service.ListQuery{
		Status:  c.Query("status"),
		Page:    page,
		Limit:   limit,
		OrderBy: c.Query("orderBy"),
		Order:   c.Query("order"),
	}, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contracts": result.Contracts,
		"total":     result.Total,
		"page":      result.Page,
		"limit":     result.Limit,
	})
}

func (h *Handler) getContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	contract, err := h.contracts.Get(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

type updatePricingRequest struct {
	BasePricing   []model.PricePoint  `json:"base_pricing" binding:"required"`
	SizePenalties []model.PenaltyRule `json:"size_penalties"`
	Version       int64               `json:"version" binding:"required"`
}

func (h *Handler) updatePricing(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	var req updatePricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.contracts.UpdatePricing(c.Request.Context(), id, service.UpdatePricingInput{
		BasePricing:   req.BasePricing,
		SizePenalties: req.SizePenalties,
		Version:       req.Version,
	}, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contract": result.Contract,
		"warnings": result.Warnings,
	})
}

type updateDeliveriesRequest struct {
	Deliveries []model.Delivery `json:"deliveries" binding:"required"`
	Version    int64            `json:"version" binding:"required"`
}

func (h *Handler) updateDeliveries(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	var req updateDeliveriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.contracts.UpdateDeliveries(c.Request.Context(), id, service.UpdateDeliveriesInput{
		Deliveries: req.Deliveries,
		Version:    req.Version,
	}, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

type updateStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Version int64  `json:"version" binding:"required"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Closing is the only status change; contracts are born Open and never
	// reopen.
	if !strings.EqualFold(strings.TrimSpace(req.Status), string(model.ContractStatusClosed)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be CLOSED"})
		return
	}

	contract, err := h.contracts.Close(c.Request.Context(), id, req.Version, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

func (h *Handler) quote(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	// ParseFloat accepts "NaN" and "Inf", which the pricing engine does
	// not.
	size, err := strconv.ParseFloat(c.Query("size"), 64)
	if err != nil || math.IsNaN(size) || math.IsInf(size, 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid size"})
		return
	}
	quantity, err := strconv.ParseFloat(c.DefaultQuery("quantity", "1"), 64)
	if err != nil || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity"})
		return
	}

	quote, err := h.contracts.Quote(c.Request.Context(), id, size, quantity, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

func (h *Handler) exportPriceSheet(c *gin.Context) {
	h.export(c, h.contracts.ExportPriceSheet,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (h *Handler) exportContract(c *gin.Context) {
	h.export(c, h.contracts.ExportContract, "application/pdf")
}

func (h *Handler) export(c *gin.Context, generate func(context.Context, uuid.UUID, model.Principal) (*service.ExportResult, error), contentType string) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	result, err := generate(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentType, result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	var closed *lifecycle.ContractClosedError
	var invalid *lifecycle.InvalidTransitionError
	var outOfRange *pricing.OutOfRangeError
	var unsupported *pricing.UnsupportedUnitError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "validation failed",
			"fields":   vErr.Fields,
			"warnings": vErr.Warnings,
		})
	case errors.As(err, &closed):
		c.JSON(http.StatusConflict, gin.H{"error": closed.Error()})
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{"error": invalid.Error()})
	case errors.As(err, &outOfRange):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": outOfRange.Error(),
			"min":   outOfRange.Min,
			"max":   outOfRange.Max,
		})
	case errors.As(err, &unsupported):
		c.JSON(http.StatusBadRequest, gin.H{"error": unsupported.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("contract operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
