package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminUpdateOrderStatusRequest 订单状态流转请求
type AdminUpdateOrderStatusRequest struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
	Note           string `json:"note"`
}

// AdminCaptureRequest 确认收款请求
type AdminCaptureRequest struct {
	TransactionID string `json:"transaction_id"`
}

// AdminRefundRequest 退款请求
type AdminRefundRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, pageSize := handlershared.ParsePage(c)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var userID uint
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			userID = uint(parsed)
		}
	}

	orders, total, err := h.OrderService.ListAdmin(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		Status:      strings.TrimSpace(c.Query("status")),
		OrderNo:     strings.TrimSpace(c.Query("order_no")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, page, pageSize, total)
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetByID(orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// AdminUpdateOrderStatus 管理端订单状态流转
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AdminUpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.LifecycleService.Transition(c.Request.Context(), orderID, strings.ToLower(strings.TrimSpace(req.Status)), service.TransitionOptions{
		TrackingNumber: strings.TrimSpace(req.TrackingNumber),
		Carrier:        strings.TrimSpace(req.Carrier),
		Note:           strings.TrimSpace(req.Note),
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
		requestLog(c).Infow("admin_order_status_updated",
		"operator_id", operatorID(c),
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"status", order.Status,
	)
	response.Success(c, order)
}

// AdminCaptureOrder 确认收款（线下收款或网关异步到账）
func (h *Handler) AdminCaptureOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AdminCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.PaymentService.Capture(c.Request.Context(), orderID, strings.TrimSpace(req.TransactionID))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// AdminRefundOrder 全额退款
func (h *Handler) AdminRefundOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AdminRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.PaymentService.Refund(c.Request.Context(), orderID, req.Reason)
	if err != nil {
		respondOrderError(c, err)
		return
	}
		requestLog(c).Infow("admin_order_refunded",
		"operator_id", operatorID(c),
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"reason", req.Reason,
	)
	response.Success(c, order)
}

// AdminGetDelivery 查询订单配送记录
func (h *Handler) AdminGetDelivery(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	delivery, err := h.DeliveryService.GetByOrder(orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, delivery)
}

// AdminUpdateDelivery 更新配送状态，必要时联动订单状态
func (h *Handler) AdminUpdateDelivery(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req service.DeliveryUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.DeliveryService.Update(c.Request.Context(), orderID, req)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}
