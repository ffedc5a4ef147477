package service

import (
	"strings"

	"github.com/storefront-next/internal/constants"
)

type statusSet map[string]struct{}

func newStatusSet(statuses ...string) statusSet {
	set := make(statusSet, len(statuses))
	for _, status := range statuses {
		set[status] = struct{}{}
	}
	return set
}

// allowedTransitions 订单状态流转表，终态不出现在键中
var allowedTransitions = map[string]statusSet{
	constants.OrderStatusPending: newStatusSet(
		constants.OrderStatusProcessing,
		constants.OrderStatusConfirmed,
		constants.OrderStatusCancelled,
		constants.OrderStatusRefunded,
		constants.OrderStatusFailed,
	),
	constants.OrderStatusProcessing: newStatusSet(
		constants.OrderStatusConfirmed,
		constants.OrderStatusCancelled,
		constants.OrderStatusRefunded,
		constants.OrderStatusFailed,
	),
	constants.OrderStatusConfirmed: newStatusSet(
		constants.OrderStatusShipped,
		constants.OrderStatusRefunded,
	),
	constants.OrderStatusShipped: newStatusSet(
		constants.OrderStatusDelivered,
		constants.OrderStatusRefunded,
	),
}

var allowedPaymentTransitions = map[string]statusSet{
	constants.PaymentStatusPending: newStatusSet(
		constants.PaymentStatusProcessing,
		constants.PaymentStatusCompleted,
		constants.PaymentStatusFailed,
		constants.PaymentStatusCancelled,
	),
	constants.PaymentStatusProcessing: newStatusSet(
		constants.PaymentStatusCompleted,
		constants.PaymentStatusFailed,
		constants.PaymentStatusCancelled,
	),
	constants.PaymentStatusCompleted: newStatusSet(
		constants.PaymentStatusRefunded,
		constants.PaymentStatusPartiallyRefunded,
	),
	constants.PaymentStatusPartiallyRefunded: newStatusSet(
		constants.PaymentStatusRefunded,
	),
}

var allowedDeliveryTransitions = map[string]statusSet{
	constants.DeliveryStatusPending: newStatusSet(
		constants.DeliveryStatusAssigned,
		constants.DeliveryStatusFailed,
	),
	constants.DeliveryStatusAssigned: newStatusSet(
		constants.DeliveryStatusPickedUp,
		constants.DeliveryStatusFailed,
		constants.DeliveryStatusReturned,
	),
	constants.DeliveryStatusPickedUp: newStatusSet(
		constants.DeliveryStatusInTransit,
		constants.DeliveryStatusFailed,
		constants.DeliveryStatusReturned,
	),
	constants.DeliveryStatusInTransit: newStatusSet(
		constants.DeliveryStatusOutForDelivery,
		constants.DeliveryStatusDelivered,
		constants.DeliveryStatusFailed,
		constants.DeliveryStatusReturned,
	),
	constants.DeliveryStatusOutForDelivery: newStatusSet(
		constants.DeliveryStatusDelivered,
		constants.DeliveryStatusFailed,
		constants.DeliveryStatusReturned,
	),
}

func canTransit(table map[string]statusSet, from, to string) bool {
	next, ok := table[strings.TrimSpace(from)]
	if !ok {
		return false
	}
	_, ok = next[strings.TrimSpace(to)]
	return ok
}

// CanTransitionOrder 订单状态是否允许流转
func CanTransitionOrder(from, to string) bool {
	return canTransit(allowedTransitions, from, to)
}

// CanTransitionPayment 支付状态是否允许流转
func CanTransitionPayment(from, to string) bool {
	return canTransit(allowedPaymentTransitions, from, to)
}

// CanTransitionDelivery 配送状态是否允许流转
func CanTransitionDelivery(from, to string) bool {
	return canTransit(allowedDeliveryTransitions, from, to)
}

// IsTerminalOrderStatus 是否订单终态
func IsTerminalOrderStatus(status string) bool {
	_, ok := allowedTransitions[strings.TrimSpace(status)]
	return !ok
}
