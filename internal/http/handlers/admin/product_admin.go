package admin

import (
	"strings"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest 创建/更新商品请求
type ProductRequest struct {
	Name              string          `json:"name" binding:"required"`
	Slug              string          `json:"slug" binding:"required"`
	SKU               string          `json:"sku"`
	PriceAmount       decimal.Decimal `json:"price_amount"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	IsActive          *bool           `json:"is_active"`
	InitialStock      *int            `json:"initial_stock"`
	LowStockThreshold *int            `json:"low_stock_threshold"`
}

func (r ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Name:              r.Name,
		Slug:              r.Slug,
		SKU:               r.SKU,
		PriceAmount:       models.NewMoneyFromDecimal(r.PriceAmount),
		TaxRate:           r.TaxRate,
		IsActive:          r.IsActive,
		InitialStock:      r.InitialStock,
		LowStockThreshold: r.LowStockThreshold,
	}
}

// VariantRequest 新增规格请求
type VariantRequest struct {
	Name              string          `json:"name" binding:"required"`
	SKU               string          `json:"sku"`
	PriceAdjustment   decimal.Decimal `json:"price_adjustment"`
	IsActive          *bool           `json:"is_active"`
	InitialStock      *int            `json:"initial_stock"`
	LowStockThreshold *int            `json:"low_stock_threshold"`
}

// AdminListProducts 商品列表（含下架）
func (h *Handler) AdminListProducts(c *gin.Context) {
	page, pageSize := handlershared.ParsePage(c)
	products, total, err := h.ProductService.ListAdmin(strings.TrimSpace(c.Query("search")), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, products, page, pageSize, total)
}

// AdminGetProduct 商品详情
func (h *Handler) AdminGetProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetAdminByID(productID)
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}

// AdminCreateProduct 创建商品
func (h *Handler) AdminCreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Create(c.Request.Context(), req.toInput())
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}

// AdminUpdateProduct 更新商品
func (h *Handler) AdminUpdateProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Update(productID, req.toInput())
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}

// AdminDeleteProduct 删除商品
func (h *Handler) AdminDeleteProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.Delete(productID); err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// AdminCreateVariant 新增商品规格
func (h *Handler) AdminCreateVariant(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	variant, err := h.ProductService.AddVariant(c.Request.Context(), productID, service.VariantInput{
		Name:              req.Name,
		SKU:               req.SKU,
		PriceAdjustment:   models.NewMoneyFromDecimal(req.PriceAdjustment),
		IsActive:          req.IsActive,
		InitialStock:      req.InitialStock,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, variant)
}
