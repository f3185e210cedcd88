package story

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	httputil "storia/internal/pkg/http"
)

// ListStories 按用户分页查询故事记录
// @Summary      查询故事列表
// @Description  按用户分页查询故事生成记录，按创建时间倒序
// @Tags         故事管理
// @Produce      json
// @Param        user_id    query  string  true   "用户ID"
// @Param        page       query  int     false  "页码（默认1）"
// @Param        page_size  query  int     false  "每页条数（默认20）"
// @Success      200  {object}  map[string]interface{}  "故事列表"
// @Failure      400  {object}  ErrorResponse  "请求参数错误"
// @Router       /api/v1/stories [get]
func (h *Handler) ListStories(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "user_id is required",
		})
		return
	}

	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	pageSize, _ := strconv.ParseInt(c.DefaultQuery("page_size", "20"), 10, 64)

	stories, total, err := h.storyService.ListStories(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    50001,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, httputil.OK(&httputil.PageData{
		Items:    toStoryInfoList(stories),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}))
}
