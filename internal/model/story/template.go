package story

// Template 叙事模板
// 描述一种故事结构：各叙事阶段的标签、场景数量边界
// 模板目录在进程启动时静态注册（storytools 包），不做运行时加载
type Template struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Stages            []string    `json:"stages"`              // 叙事阶段标签（如 hook, problem, solution）
	MinScenes         int         `json:"min_scenes"`          // 最少场景数
	MaxScenes         int         `json:"max_scenes"`          // 最多场景数
	OptimalSceneCount int         `json:"optimal_scene_count"` // 推荐场景数
	ContentMode       ContentMode `json:"content_mode"`        // narrated / independent
}

// IsIndependent 场景是否彼此独立（无旁白的氛围类内容）
func (t *Template) IsIndependent() bool {
	return t.ContentMode == ContentModeIndependent
}

// ModelConstraints 下游媒体生成模型的能力约束
// SupportedDurations 为该模型合法的单场景时长集合（非空、升序）
// HasAudio 为 true 时模型自带音轨，场景不再携带音效描述
type ModelConstraints struct {
	ID                 string   `json:"id"`
	Label              string   `json:"label"`
	SupportedDurations []int    `json:"supported_durations"`
	MinDuration        int      `json:"min_duration"`
	MaxDuration        int      `json:"max_duration"`
	HasAudio           bool     `json:"has_audio"`
	AspectRatios       []string `json:"aspect_ratios"`
}

// MaxSupported 返回支持的最大时长（集合为空时返回 0）
func (m *ModelConstraints) MaxSupported() int {
	if len(m.SupportedDurations) == 0 {
		return 0
	}
	return m.SupportedDurations[len(m.SupportedDurations)-1]
}

// MinSupported 返回支持的最小时长（集合为空时返回 0）
func (m *ModelConstraints) MinSupported() int {
	if len(m.SupportedDurations) == 0 {
		return 0
	}
	return m.SupportedDurations[0]
}

// Supports 判断时长是否在支持集合内
func (m *ModelConstraints) Supports(duration int) bool {
	for _, d := range m.SupportedDurations {
		if d == duration {
			return true
		}
	}
	return false
}
