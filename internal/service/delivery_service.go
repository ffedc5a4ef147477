package service

import (
	"context"
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"
)

// DeliveryUpdateInput 配送状态更新
type DeliveryUpdateInput struct {
	Status         string     `json:"status" validate:"required,oneof=assigned picked_up in_transit out_for_delivery delivered failed returned"`
	TrackingNumber string     `json:"tracking_number" validate:"omitempty,max=100"`
	Carrier        string     `json:"carrier" validate:"omitempty,max=100"`
	Note           string     `json:"note" validate:"omitempty,max=500"`
	Latitude       *float64   `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude      *float64   `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	EstimatedAt    *time.Time `json:"estimated_at"`
}

// DeliveryService 配送跟踪
type DeliveryService struct {
	deliveryRepo repository.DeliveryRepository
	lifecycle    *OrderLifecycleService
}

// NewDeliveryService 创建配送服务
func NewDeliveryService(deliveryRepo repository.DeliveryRepository, lifecycle *OrderLifecycleService) *DeliveryService {
	return &DeliveryService{
		deliveryRepo: deliveryRepo,
		lifecycle:    lifecycle,
	}
}

// GetByOrder 查询订单配送记录
func (s *DeliveryService) GetByOrder(orderID uint) (*models.Delivery, error) {
	delivery, err := s.deliveryRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, ErrDeliveryNotFound
	}
	return delivery, nil
}

// Update 推进配送状态并同步订单（在途时订单发货，签收时订单签收）
func (s *DeliveryService) Update(ctx context.Context, orderID uint, input DeliveryUpdateInput) (*models.Order, error) {
	input.Status = strings.TrimSpace(input.Status)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	return s.lifecycle.execute(ctx, orderID, func(u *lifecycleTx, order *models.Order) error {
		delivery, err := u.deliveries.LockByOrderID(order.ID)
		if err != nil {
			return err
		}
		if delivery == nil {
			return ErrDeliveryNotFound
		}
		if !CanTransitionDelivery(delivery.Status, input.Status) {
			return &TransitionError{Entity: "delivery", From: delivery.Status, To: input.Status}
		}

		opts := TransitionOptions{
			TrackingNumber: strings.TrimSpace(input.TrackingNumber),
			Carrier:        strings.TrimSpace(input.Carrier),
			Note:           strings.TrimSpace(input.Note),
		}
		if err := syncOrderWithDelivery(u, order, input.Status, opts); err != nil {
			return err
		}

		// 订单同步可能已写入配送记录，重新读取
		delivery, err = u.deliveries.LockByOrderID(order.ID)
		if err != nil {
			return err
		}
		synced := delivery.Status == input.Status
		delivery.Status = input.Status
		if opts.TrackingNumber != "" {
			delivery.TrackingNumber = opts.TrackingNumber
		}
		if opts.Carrier != "" {
			delivery.Carrier = opts.Carrier
		}
		if input.Latitude != nil && input.Longitude != nil {
			delivery.Latitude = input.Latitude
			delivery.Longitude = input.Longitude
		}
		if input.EstimatedAt != nil {
			delivery.EstimatedAt = input.EstimatedAt
		}
		if input.Status == constants.DeliveryStatusDelivered && delivery.DeliveredAt == nil {
			deliveredAt := u.now
			delivery.DeliveredAt = &deliveredAt
		}
		if !synced {
			delivery.TrackingHistory = append(delivery.TrackingHistory, models.DeliveryEvent{
				Status:    input.Status,
				Note:      opts.Note,
				Latitude:  input.Latitude,
				Longitude: input.Longitude,
				At:        u.now,
			})
		}
		return u.deliveries.Save(delivery)
	})
}

func syncOrderWithDelivery(u *lifecycleTx, order *models.Order, status string, opts TransitionOptions) error {
	switch status {
	case constants.DeliveryStatusPickedUp, constants.DeliveryStatusInTransit, constants.DeliveryStatusOutForDelivery:
		if order.Status == constants.OrderStatusShipped {
			return nil
		}
		if err := confirmForShipping(u, order); err != nil {
			return err
		}
		opts.DeliveryStatus = status
		return u.transition(order, constants.OrderStatusShipped, opts)
	case constants.DeliveryStatusDelivered:
		if order.Status != constants.OrderStatusShipped {
			if err := confirmForShipping(u, order); err != nil {
				return err
			}
			opts.DeliveryStatus = status
			if err := u.transition(order, constants.OrderStatusShipped, opts); err != nil {
				return err
			}
		}
		return u.transition(order, constants.OrderStatusDelivered, opts)
	}
	return nil
}

// confirmForShipping 已支付未确认的订单先确认再发货
func confirmForShipping(u *lifecycleTx, order *models.Order) error {
	if order.Status != constants.OrderStatusProcessing {
		return nil
	}
	return u.transition(order, constants.OrderStatusConfirmed, TransitionOptions{})
}
