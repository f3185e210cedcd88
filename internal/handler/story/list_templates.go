package story

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "storia/internal/pkg/http"
)

// ListTemplates 列出叙事模板
// @Summary      查询模板列表
// @Description  列出全部可用的叙事模板（结构标签、场景数量边界、内容模式）
// @Tags         模板管理
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "模板列表"
// @Router       /api/v1/templates [get]
func (h *Handler) ListTemplates(c *gin.Context) {
	templates := h.storyService.ListTemplates()

	c.JSON(http.StatusOK, httputil.OK(gin.H{
		"templates": templates,
		"total":     len(templates),
	}))
}
