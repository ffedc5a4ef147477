package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page         int
	PageSize     int
	Search       string
	OnlyActive   bool
	WithVariants bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CouponListFilter 查询优惠券列表的过滤条件
type CouponListFilter struct {
	Page       int
	PageSize   int
	Code       string
	ActiveOnly bool
}

// StockListFilter 查询库存列表的过滤条件
type StockListFilter struct {
	Page      int
	PageSize  int
	ProductID uint
	LowOnly   bool
}
