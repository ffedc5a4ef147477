package i18n

var messages = map[string]map[string]string{
	LocaleZhCN: {
		"error.bad_request":                 "请求参数错误",
		"error.unauthorized":                "未登录或登录已过期",
		"error.forbidden":                   "无权限访问",
		"error.not_found":                   "资源不存在",
		"error.internal":                    "服务器内部错误",
		"error.too_many_requests":           "请求过于频繁，请稍后再试",
		"error.validation_failed":           "参数校验失败",
		"error.user_id_invalid":             "用户标识无效",
		"error.user_not_found":              "用户不存在",
		"error.user_disabled":               "账号已被禁用",
		"error.email_exists":                "邮箱已注册",
		"error.email_invalid":               "邮箱格式不正确",
		"error.invalid_credentials":         "邮箱或密码错误",
		"error.password_too_short":          "密码长度至少 %d 位",
		"error.token_invalid":               "登录凭证无效",
		"error.captcha_required":            "请完成验证码",
		"error.captcha_invalid":             "验证码错误或已过期",
		"error.session_required":            "缺少会话标识",
		"error.cart_not_found":              "购物车不存在",
		"error.cart_empty":                  "购物车为空",
		"error.cart_item_not_found":         "购物车商品不存在",
		"error.quantity_invalid":            "商品数量无效",
		"error.product_not_found":           "商品不存在",
		"error.product_unavailable":         "商品已下架",
		"error.variant_not_found":           "商品规格不存在",
		"error.insufficient_stock":          "库存不足",
		"error.stock_not_found":             "库存记录不存在",
		"error.stock_invalid":               "库存参数无效",
		"error.coupon_not_found":            "优惠券不存在",
		"error.coupon_inactive":             "优惠券不可用",
		"error.coupon_not_started":          "优惠券尚未生效",
		"error.coupon_expired":              "优惠券已过期",
		"error.coupon_usage_limit":          "优惠券使用次数已达上限",
		"error.coupon_min_amount":           "未达到优惠券使用门槛",
		"error.coupon_exists":               "优惠码已存在",
		"error.coupon_invalid":              "优惠券参数无效",
		"error.order_not_found":             "订单不存在",
		"error.order_status_invalid":        "订单状态不允许该操作",
		"error.checkout_in_progress":        "订单正在提交，请勿重复提交",
		"error.checkout_failed":             "下单失败，请稍后重试",
		"error.payment_not_found":           "支付记录不存在",
		"error.payment_failed":              "支付失败",
		"error.payment_status_invalid":      "支付状态不允许该操作",
		"error.refund_not_allowed":          "当前订单不可退款",
		"error.delivery_not_found":          "配送记录不存在",
		"error.delivery_status_invalid":     "配送状态不允许该操作",
		"error.idempotency_key_invalid":     "幂等键格式无效",
		"error.user_id_type_invalid":        "用户标识类型错误",
		"error.auth_header_missing":         "缺少 Authorization 请求头",
		"error.auth_header_invalid":         "Authorization 格式错误",
		"error.token_revoked":               "登录凭证已失效，请重新登录",
		"error.rate_limited":                "请求过于频繁，请 %d 秒后再试",
		"error.login_too_many":              "登录尝试次数过多，请 %d 秒后再试",
		"error.checkout_too_many":           "下单过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable":      "限流服务暂不可用",
		"error.captcha_unavailable":         "验证码服务未启用",
		"error.captcha_generate_failed":     "验证码生成失败",
		"error.product_slug_exists":         "商品标识已存在",
		"error.payment_declined":            "支付被拒绝",
		"error.payment_gateway_unavailable": "支付网关暂不可用",
		"error.order_owner_mismatch":        "无权访问该订单",
		"error.fetch_failed":                "数据获取失败",
		"error.save_failed":                 "数据保存失败",
		"error.authz_failed":                "权限配置失败",
	},
	LocaleEnUS: {
		"error.bad_request":                 "Invalid request",
		"error.unauthorized":                "Not signed in or session expired",
		"error.forbidden":                   "Access denied",
		"error.not_found":                   "Resource not found",
		"error.internal":                    "Internal server error",
		"error.too_many_requests":           "Too many requests, please try again later",
		"error.validation_failed":           "Validation failed",
		"error.user_id_invalid":             "Invalid user id",
		"error.user_not_found":              "User not found",
		"error.user_disabled":               "Account disabled",
		"error.email_exists":                "Email already registered",
		"error.email_invalid":               "Invalid email address",
		"error.invalid_credentials":         "Incorrect email or password",
		"error.password_too_short":          "Password must be at least %d characters",
		"error.token_invalid":               "Invalid credentials",
		"error.captcha_required":            "Captcha required",
		"error.captcha_invalid":             "Captcha is wrong or expired",
		"error.session_required":            "Missing session key",
		"error.cart_not_found":              "Cart not found",
		"error.cart_empty":                  "Cart is empty",
		"error.cart_item_not_found":         "Cart item not found",
		"error.quantity_invalid":            "Invalid quantity",
		"error.product_not_found":           "Product not found",
		"error.product_unavailable":         "Product is unavailable",
		"error.variant_not_found":           "Product variant not found",
		"error.insufficient_stock":          "Insufficient stock",
		"error.stock_not_found":             "Stock record not found",
		"error.stock_invalid":               "Invalid stock parameters",
		"error.coupon_not_found":            "Coupon not found",
		"error.coupon_inactive":             "Coupon is not active",
		"error.coupon_not_started":          "Coupon is not yet valid",
		"error.coupon_expired":              "Coupon has expired",
		"error.coupon_usage_limit":          "Coupon usage limit reached",
		"error.coupon_min_amount":           "Minimum purchase amount not met",
		"error.coupon_exists":               "Coupon code already exists",
		"error.coupon_invalid":              "Invalid coupon parameters",
		"error.order_not_found":             "Order not found",
		"error.order_status_invalid":        "Order status does not allow this operation",
		"error.checkout_in_progress":        "Checkout already in progress",
		"error.checkout_failed":             "Checkout failed, please retry",
		"error.payment_not_found":           "Payment not found",
		"error.payment_failed":              "Payment failed",
		"error.payment_status_invalid":      "Payment status does not allow this operation",
		"error.refund_not_allowed":          "Order cannot be refunded",
		"error.delivery_not_found":          "Delivery not found",
		"error.delivery_status_invalid":     "Delivery status does not allow this operation",
		"error.idempotency_key_invalid":     "Invalid idempotency key",
		"error.user_id_type_invalid":        "Invalid user id type",
		"error.auth_header_missing":         "Missing Authorization header",
		"error.auth_header_invalid":         "Malformed Authorization header",
		"error.token_revoked":               "Session revoked, please sign in again",
		"error.rate_limited":                "Too many requests, retry in %d seconds",
		"error.login_too_many":              "Too many sign-in attempts, retry in %d seconds",
		"error.checkout_too_many":           "Too many checkouts, retry in %d seconds",
		"error.rate_limit_unavailable":      "Rate limiter unavailable",
		"error.captcha_unavailable":         "Captcha is not enabled",
		"error.captcha_generate_failed":     "Failed to generate captcha",
		"error.product_slug_exists":         "Product slug already exists",
		"error.payment_declined":            "Payment declined",
		"error.payment_gateway_unavailable": "Payment gateway unavailable",
		"error.order_owner_mismatch":        "Order does not belong to you",
		"error.fetch_failed":                "Failed to load data",
		"error.save_failed":                 "Failed to save data",
		"error.authz_failed":                "Failed to update permissions",
	},
}
