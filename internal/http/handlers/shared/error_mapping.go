package shared

import (
	"errors"

	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ErrorRule 定义业务错误到接口错误响应的映射关系。
type ErrorRule struct {
	Target error
	Code   int
	Key    string
}

// ConcatErrorRules 合并多组映射规则，靠前的规则优先匹配。
func ConcatErrorRules(groups ...[]ErrorRule) []ErrorRule {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]ErrorRule, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// RespondMappedError 按规则输出错误响应，data 中始终带有机器可读的 kind。
// 未命中规则时按兜底码返回，原始错误只写日志。
func RespondMappedError(c *gin.Context, err error, rules []ErrorRule, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondErrorWithData(c, rule.Code, rule.Key, ErrorData(err), nil)
			return
		}
	}
	RespondErrorWithData(c, fallbackCode, fallbackKey, ErrorData(err), err)
}

// ErrorData 提取错误的 kind 及领域上下文字段。
func ErrorData(err error) gin.H {
	data := gin.H{"kind": service.ErrorKind(err)}
	var stockErr *service.StockError
	if errors.As(err, &stockErr) {
		data["product_id"] = stockErr.ProductID
		data["available"] = stockErr.Available
		data["requested"] = stockErr.Requested
		if stockErr.VariantID > 0 {
			data["variant_id"] = stockErr.VariantID
		}
		return data
	}
	var transitionErr *service.TransitionError
	if errors.As(err, &transitionErr) {
		data["entity"] = transitionErr.Entity
		data["from"] = transitionErr.From
		data["to"] = transitionErr.To
		return data
	}
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		data["fields"] = validationErr.Fields
	}
	return data
}
