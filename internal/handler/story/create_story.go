package story

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateStoryRequest 创建故事请求
type CreateStoryRequest struct {
	UserID   string                    `json:"user_id" binding:"required"` // 用户ID（必填）
	Settings GenerationSettingsRequest `json:"settings" binding:"required"`
}

// CreateStory 生成一个故事
// @Summary      生成故事
// @Description  同步执行完整的故事生成流水线（剧本、场景拆分、提示词润色、可选的旁白语音），返回最终结果。生成失败时 HTTP 状态仍为 200，结果里 success 为 false。
// @Tags         故事管理
// @Accept       json
// @Produce      json
// @Param        request  body      CreateStoryRequest  true  "创建故事请求"
// @Success      200      {object}  map[string]interface{}  "生成结果"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Router       /api/v1/stories [post]
func (h *Handler) CreateStory(c *gin.Context) {
	var req CreateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	result := h.storyService.GenerateStory(c.Request.Context(), req.UserID, req.Settings.toSettings())

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "故事生成执行完毕",
		"data":    result,
	})
}
