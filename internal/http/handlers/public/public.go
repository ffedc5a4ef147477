package public

import (
	"errors"
	"strings"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PublicProductView 公共商品响应结构
type PublicProductView struct {
	models.Product
	Available   int    `json:"available"`
	StockStatus string `json:"stock_status"`
	IsSoldOut   bool   `json:"is_sold_out"`
}

const (
	stockStatusInStock  = "in_stock"
	stockStatusLowStock = "low_stock"
	stockStatusSoldOut  = "sold_out"
)

// GetProducts 上架商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	page, pageSize := handlershared.ParsePage(c)

	products, total, err := h.ProductService.ListPublic(strings.TrimSpace(c.Query("search")), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	views := make([]PublicProductView, 0, len(products))
	for i := range products {
		views = append(views, h.buildPublicProductView(&products[i]))
	}
	response.SuccessWithPage(c, views, page, pageSize, total)
}

// GetProductBySlug 商品详情
func (h *Handler) GetProductBySlug(c *gin.Context) {
	product, err := h.ProductService.GetPublicBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "error.product_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, h.buildPublicProductView(product))
}

func (h *Handler) buildPublicProductView(product *models.Product) PublicProductView {
	view := PublicProductView{Product: *product, StockStatus: stockStatusSoldOut, IsSoldOut: true}
	record, err := h.StockLedger.Get(models.ProductStockOwner(product.ID))
	if err != nil || record == nil {
		return view
	}
	view.Available = record.AvailableQuantity()
	switch {
	case view.Available <= 0:
		view.Available = 0
	case view.Available <= record.LowStockThreshold:
		view.StockStatus = stockStatusLowStock
		view.IsSoldOut = false
	default:
		view.StockStatus = stockStatusInStock
		view.IsSoldOut = false
	}
	return view
}
