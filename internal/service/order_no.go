package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	orderNoRandomLength = 6
	orderNoAttempts     = 3
)

// generateOrderNo 生成订单号 ORD-YYYYMMDD-HHMMSS-<随机数字>
func generateOrderNo(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102-150405"), randNumeric(orderNoRandomLength))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}

// isOrderNoConflict 判断是否为订单号唯一索引冲突（sqlite 与 postgres 的报错文本）
func isOrderNoConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "order_no") {
		return false
	}
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
