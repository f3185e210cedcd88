package storytools

import (
	"sort"

	"storia/internal/model/story"
)

// 模板目录
// 静态注册、进程生命周期内只读；运行时按 id O(1) 查找
// 新模板在这里登记即可，不做任何运行时动态加载
var templateCatalog = map[string]story.Template{
	"problem-solution": {
		ID:                "problem-solution",
		Name:              "Problem / Solution",
		Stages:            []string{"hook", "problem", "agitation", "solution", "call-to-action"},
		MinScenes:         3,
		MaxScenes:         8,
		OptimalSceneCount: 5,
		ContentMode:       story.ContentModeNarrated,
	},
	"storytelling": {
		ID:                "storytelling",
		Name:              "Storytelling",
		Stages:            []string{"hook", "setup", "conflict", "climax", "resolution"},
		MinScenes:         4,
		MaxScenes:         8,
		OptimalSceneCount: 5,
		ContentMode:       story.ContentModeNarrated,
	},
	"listicle": {
		ID:                "listicle",
		Name:              "Listicle",
		Stages:            []string{"hook", "items", "recap"},
		MinScenes:         3,
		MaxScenes:         8,
		OptimalSceneCount: 6,
		ContentMode:       story.ContentModeNarrated,
	},
	"asmr": {
		ID:                "asmr",
		Name:              "ASMR",
		Stages:            []string{"ambience"},
		MinScenes:         2,
		MaxScenes:         6,
		OptimalSceneCount: 4,
		ContentMode:       story.ContentModeIndependent,
	},
	"ambient-nature": {
		ID:                "ambient-nature",
		Name:              "Ambient Nature",
		Stages:            []string{"ambience"},
		MinScenes:         2,
		MaxScenes:         6,
		OptimalSceneCount: 3,
		ContentMode:       story.ContentModeIndependent,
	},
}

// GetTemplate 按 id 查找模板
// 返回副本，调用方修改不会污染目录；未知 id 返回 (nil, false)，
// 调用方应视为该故事的致命配置错误，不重试
func GetTemplate(id string) (*story.Template, bool) {
	tpl, ok := templateCatalog[id]
	if !ok {
		return nil, false
	}
	cp := tpl
	cp.Stages = append([]string(nil), tpl.Stages...)
	return &cp, true
}

// ListTemplates 列出全部模板（按 id 排序，返回副本）
func ListTemplates() []story.Template {
	out := make([]story.Template, 0, len(templateCatalog))
	for _, tpl := range templateCatalog {
		cp := tpl
		cp.Stages = append([]string(nil), tpl.Stages...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
