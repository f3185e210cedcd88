package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ReadyCheck 就绪检查项
// mongo/redis 这类可选后端缺失时服务降级运行，检查失败不改变 HTTP 状态码
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	checks []ReadyCheck
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(checks ...ReadyCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health 健康检查（存活探针）
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready 就绪检查
// 逐个探测已接入的后端，全部正常返回 ready，部分失败返回 degraded
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ready"
	components := gin.H{}
	for _, ck := range h.checks {
		if err := ck.Check(ctx); err != nil {
			components[ck.Name] = err.Error()
			status = "degraded"
		} else {
			components[ck.Name] = "ok"
		}
	}

	resp := gin.H{"status": status}
	if len(components) > 0 {
		resp["components"] = components
	}
	c.JSON(http.StatusOK, resp)
}
