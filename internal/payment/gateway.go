package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrRequestInvalid     = errors.New("payment request invalid")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// 网关返回状态
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
	StatusFailed    = "failed"
)

const methodCashOnDelivery = "cash_on_delivery"

// ChargeInput 扣款输入
type ChargeInput struct {
	OrderNo  string
	Method   string
	Amount   decimal.Decimal
	Currency string
}

// ChargeResult 扣款结果
type ChargeResult struct {
	Status        string
	TransactionID string
	FailureReason string
	ProcessedAt   time.Time
}

// RefundInput 退款输入
type RefundInput struct {
	OrderNo       string
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
	Reason        string
}

// RefundResult 退款结果
type RefundResult struct {
	RefundID    string
	ProcessedAt time.Time
}

// Gateway 支付网关
type Gateway interface {
	Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error)
	Refund(ctx context.Context, input RefundInput) (*RefundResult, error)
}

// ManualGateway 线下/模拟网关：直接成功，货到付款保持待支付
type ManualGateway struct {
	now func() time.Time
}

// NewManualGateway 创建模拟网关
func NewManualGateway() *ManualGateway {
	return &ManualGateway{now: time.Now}
}

// Charge 扣款
func (g *ManualGateway) Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if strings.TrimSpace(input.OrderNo) == "" || input.Amount.IsNegative() {
		return nil, ErrRequestInvalid
	}
	result := &ChargeResult{
		TransactionID: NewTransactionID(),
		ProcessedAt:   g.clock(),
	}
	if strings.TrimSpace(input.Method) == methodCashOnDelivery {
		result.Status = StatusPending
		return result, nil
	}
	result.Status = StatusCompleted
	return result, nil
}

// Refund 退款
func (g *ManualGateway) Refund(ctx context.Context, input RefundInput) (*RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if strings.TrimSpace(input.TransactionID) == "" {
		return nil, ErrRequestInvalid
	}
	return &RefundResult{
		RefundID:    "RF-" + shortID(),
		ProcessedAt: g.clock(),
	}, nil
}

func (g *ManualGateway) clock() time.Time {
	if g == nil || g.now == nil {
		return time.Now()
	}
	return g.now()
}

// NewTransactionID 生成网关流水号 TXN-XXXXXXXXXXXX
func NewTransactionID() string {
	return "TXN-" + shortID()
}

func shortID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
