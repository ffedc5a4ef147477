package public

import (
	"strconv"

	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 加购请求
type CartItemRequest struct {
	ProductID     uint   `json:"product_id" binding:"required"`
	VariantID     uint   `json:"variant_id"`
	Quantity      int    `json:"quantity" binding:"required"`
	Customization string `json:"customization" binding:"max=1000"`
	GiftMessage   string `json:"gift_message" binding:"max=500"`
}

// CartQuantityRequest 修改数量请求
type CartQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// CartCouponRequest 应用优惠码请求
type CartCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// GetCart 获取购物车及金额汇总
func (h *Handler) GetCart(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	view, err := h.CartService.View(owner)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, view)
}

// AddCartItem 添加购物车项，同商品同规格合并数量
func (h *Handler) AddCartItem(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if _, err := h.CartService.AddItem(owner, service.AddCartItemInput{
		ProductID:     req.ProductID,
		VariantID:     req.VariantID,
		Quantity:      req.Quantity,
		Customization: req.Customization,
		GiftMessage:   req.GiftMessage,
	}); err != nil {
		respondCartError(c, err)
		return
	}
	h.respondCartView(c, owner)
}

// UpdateCartItem 修改购物车项数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	itemID, ok := parseCartItemID(c)
	if !ok {
		return
	}
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if _, err := h.CartService.UpdateQuantity(owner, itemID, req.Quantity); err != nil {
		respondCartError(c, err)
		return
	}
	h.respondCartView(c, owner)
}

// RemoveCartItem 删除购物车项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	itemID, ok := parseCartItemID(c)
	if !ok {
		return
	}
	if _, err := h.CartService.RemoveItem(owner, itemID); err != nil {
		respondCartError(c, err)
		return
	}
	h.respondCartView(c, owner)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(owner); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}

// ApplyCartCoupon 应用优惠码
func (h *Handler) ApplyCartCoupon(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	var req CartCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	view, err := h.CartService.ApplyCoupon(owner, req.Code)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, view)
}

// RemoveCartCoupon 移除优惠码
func (h *Handler) RemoveCartCoupon(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	view, err := h.CartService.RemoveCoupon(owner)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, view)
}

func (h *Handler) respondCartView(c *gin.Context, owner service.CartOwner) {
	view, err := h.CartService.View(owner)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, view)
}

func parseCartItemID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.cart_item_not_found", nil)
		return 0, false
	}
	return uint(id), true
}
