package story

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	httputil "storia/internal/pkg/http"
	"storia/internal/pkg/id"
)

// GetStory 获取故事记录
// @Summary      获取故事
// @Description  根据故事ID获取生成记录（状态、脚本、场景列表）
// @Tags         故事管理
// @Produce      json
// @Param        id  path  string  true  "故事ID"
// @Success      200  {object}  map[string]interface{}  "故事记录"
// @Failure      400  {object}  ErrorResponse  "无效的故事ID"
// @Failure      404  {object}  ErrorResponse  "故事不存在"
// @Router       /api/v1/stories/{id} [get]
func (h *Handler) GetStory(c *gin.Context) {
	storyID := c.Param("id")
	if !id.IsValid(storyID) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid story ID",
		})
		return
	}

	s, err := h.storyService.GetStory(c.Request.Context(), storyID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Code:    40401,
				Message: "Story not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError,
			httputil.NewErrorResponse(50001, "failed to load story", err.Error()))
		return
	}

	c.JSON(http.StatusOK, httputil.OK(toStoryInfo(s)))
}
