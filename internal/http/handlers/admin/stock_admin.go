package admin

import (
	"strings"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// StockAdjustRequest 库存调整请求
type StockAdjustRequest struct {
	Quantity          *int `json:"quantity" binding:"required"`
	LowStockThreshold *int `json:"low_stock_threshold"`
}

// AdminGetStock 查询库存记录
func (h *Handler) AdminGetStock(c *gin.Context) {
	owner, ok := parseStockOwner(c)
	if !ok {
		return
	}
	record, err := h.StockLedger.Get(owner)
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, record)
}

// AdminAdjustStock 设置在库数量与低库存阈值
func (h *Handler) AdminAdjustStock(c *gin.Context) {
	owner, ok := parseStockOwner(c)
	if !ok {
		return
	}
	var req StockAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	record, err := h.StockLedger.Adjust(c.Request.Context(), service.AdjustInput{
		Owner:     owner,
		Quantity:  *req.Quantity,
		Threshold: req.LowStockThreshold,
	})
	if err != nil {
		respondProductError(c, err)
		return
	}
		requestLog(c).Infow("admin_stock_adjusted",
		"operator_id", operatorID(c),
		"owner_type", owner.Kind,
		"owner_id", owner.ID,
		"quantity", record.Quantity,
		"reserved", record.ReservedQuantity,
	)
	response.Success(c, record)
}

// AdminListLowStock 低库存列表
func (h *Handler) AdminListLowStock(c *gin.Context) {
	page, pageSize := handlershared.ParsePage(c)
	records, total, err := h.StockLedger.ListLowStock(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, records, page, pageSize, total)
}

func parseStockOwner(c *gin.Context) (models.StockOwner, bool) {
	ownerID, ok := parseIDParam(c, "owner_id")
	if !ok {
		return models.StockOwner{}, false
	}
	owner := models.StockOwner{
		Kind: strings.ToLower(strings.TrimSpace(c.Param("owner_type"))),
		ID:   ownerID,
	}
	if !owner.Valid() {
		respondError(c, response.CodeBadRequest, "error.stock_invalid", nil)
		return models.StockOwner{}, false
	}
	return owner, true
}
