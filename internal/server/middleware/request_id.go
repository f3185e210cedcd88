package middleware

import (
	"github.com/gin-gonic/gin"

	"storia/internal/pkg/id"
)

// RequestIDHeader 请求ID透传头
const RequestIDHeader = "X-Request-ID"

// ContextKeyRequestID gin 上下文里的请求ID键
const ContextKeyRequestID = "request_id"

// RequestID 请求ID中间件
// 调用方带了合法的请求ID就沿用，否则生成一个；写入上下文和响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if !id.IsValid(requestID) {
			requestID = id.New()
		}

		c.Set(ContextKeyRequestID, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		c.Next()
	}
}
