package service

import (
	"context"
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"
)

// OrderService 订单查询
type OrderService struct {
	orderRepo repository.OrderRepository
	lifecycle *OrderLifecycleService
}

// NewOrderService 创建订单查询服务
func NewOrderService(orderRepo repository.OrderRepository, lifecycle *OrderLifecycleService) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		lifecycle: lifecycle,
	}
}

// ListForUser 用户订单列表
func (s *OrderService) ListForUser(ctx context.Context, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrOrderNotFound
	}
	orders, total, err := s.orderRepo.ListByUser(filter)
	if err != nil {
		return nil, 0, err
	}
	s.expireOnRead(ctx, orders)
	return orders, total, nil
}

// GetForOwner 按订单号获取归属人的订单
func (s *OrderService) GetForOwner(ctx context.Context, owner CartOwner, orderNo string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil || !orderOwnedBy(order, owner) {
		return nil, ErrOrderNotFound
	}
	if refreshed := s.expireOne(ctx, order); refreshed != nil {
		return refreshed, nil
	}
	return order, nil
}

// ListAdmin 后台订单列表
func (s *OrderService) ListAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// GetByID 后台订单详情
func (s *OrderService) GetByID(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// expireOnRead 读取时懒取消已过期的待支付订单
func (s *OrderService) expireOnRead(ctx context.Context, orders []models.Order) {
	for i := range orders {
		if refreshed := s.expireOne(ctx, &orders[i]); refreshed != nil {
			orders[i] = *refreshed
		}
	}
}

func (s *OrderService) expireOne(ctx context.Context, order *models.Order) *models.Order {
	if s.lifecycle == nil || order.Status != constants.OrderStatusPending || order.PaidAt != nil {
		return nil
	}
	now := time.Now()
	if order.ExpiresAt == nil || order.ExpiresAt.After(now) {
		return nil
	}
	cancelled, err := s.lifecycle.CancelExpired(ctx, order.ID, now)
	if err != nil {
		logger.Warnw("order_expire_on_read_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"error", err,
		)
		return nil
	}
	if !cancelled {
		return nil
	}
	refreshed, err := s.orderRepo.GetByID(order.ID)
	if err != nil || refreshed == nil {
		return nil
	}
	return refreshed
}
