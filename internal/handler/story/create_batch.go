package story

import (
	"net/http"

	"github.com/gin-gonic/gin"

	storymodel "storia/internal/model/story"
)

// CreateBatchRequest 批量创建故事请求
type CreateBatchRequest struct {
	UserID         string                      `json:"user_id" binding:"required"` // 用户ID（必填）
	Stories        []GenerationSettingsRequest `json:"stories" binding:"required,min=1"`
	MaxConcurrency int                         `json:"max_concurrency"` // 并发度（可选，默认取服务端配置）
}

// CreateBatch 批量生成故事
// @Summary      批量生成故事
// @Description  并发生成一批故事，结果与请求顺序一一对应。单个故事失败不影响其他故事。
// @Tags         故事管理
// @Accept       json
// @Produce      json
// @Param        request  body      CreateBatchRequest  true  "批量创建请求"
// @Success      200      {object}  map[string]interface{}  "生成结果列表"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Router       /api/v1/stories/batch [post]
func (h *Handler) CreateBatch(c *gin.Context) {
	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	batch := make([]*storymodel.GenerationSettings, len(req.Stories))
	for i := range req.Stories {
		batch[i] = req.Stories[i].toSettings()
	}

	results := h.storyService.GenerateBatch(c.Request.Context(), req.UserID, batch, req.MaxConcurrency)

	succeeded := 0
	for _, r := range results {
		if r != nil && r.Success {
			succeeded++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "批量生成执行完毕",
		"data": gin.H{
			"results":   results,
			"total":     len(results),
			"succeeded": succeeded,
		},
	})
}
