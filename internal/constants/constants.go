package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
	OrderStatusFailed     = "failed"
)

// 订单库存状态常量
const (
	OrderStockReserved  = "reserved"
	OrderStockCommitted = "committed"
	OrderStockReleased  = "released"
)

// 支付状态常量
const (
	PaymentStatusPending           = "pending"
	PaymentStatusProcessing        = "processing"
	PaymentStatusCompleted         = "completed"
	PaymentStatusFailed            = "failed"
	PaymentStatusCancelled         = "cancelled"
	PaymentStatusRefunded          = "refunded"
	PaymentStatusPartiallyRefunded = "partially_refunded"
)

// 支付方式常量
const (
	PaymentMethodCreditCard     = "credit_card"
	PaymentMethodDebitCard      = "debit_card"
	PaymentMethodPaypal         = "paypal"
	PaymentMethodStripe         = "stripe"
	PaymentMethodBankTransfer   = "bank_transfer"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
	PaymentMethodCryptocurrency = "cryptocurrency"
)

// 配送状态常量
const (
	DeliveryStatusPending        = "pending"
	DeliveryStatusAssigned       = "assigned"
	DeliveryStatusPickedUp       = "picked_up"
	DeliveryStatusInTransit      = "in_transit"
	DeliveryStatusOutForDelivery = "out_for_delivery"
	DeliveryStatusDelivered      = "delivered"
	DeliveryStatusFailed         = "failed"
	DeliveryStatusReturned       = "returned"
)

// 优惠券类型常量
const (
	CouponTypePercentage   = "percentage"
	CouponTypeFixed        = "fixed"
	CouponTypeFreeShipping = "free_shipping"
)

// 库存归属类型常量
const (
	StockOwnerProduct = "product"
	StockOwnerVariant = "variant"
)

// 结算价格策略常量
const (
	PricePolicyLive     = "live"
	PricePolicySnapshot = "snapshot"
)

// 用户角色与状态常量
const (
	UserRoleCustomer   = "customer"
	UserRoleStaff      = "staff"
	UserRoleAdmin      = "admin"
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 验证码常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"

	CaptchaSceneLogin         = "login"
	CaptchaSceneGuestCheckout = "guest_checkout"
)

// 队列与任务常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskOrderStatusNotify  = "order:status_notify"
	TaskOrderTimeoutCancel = "order:timeout_cancel"
	TaskStockLowAlert      = "stock:low_alert"
	TaskOrderExpireSweep   = "order:expire_sweep"
)

// 默认币种
const DefaultCurrency = "USD"
