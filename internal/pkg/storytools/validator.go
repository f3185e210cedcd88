package storytools

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"storia/internal/model/story"
)

// CleanJSONContent 清理模型返回的 JSON 内容
// 剥掉 markdown 代码块标记和首尾噪声文字，剩下的交给标准库解析
func CleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	// ```json ... ``` 或 ``` ... ``` 包裹的情况
	markdownPattern := regexp.MustCompile(`(?s)^\s*` + "```" + `(?:json)?\s*\n(.*?)\n\s*` + "```" + `\s*$`)
	if matches := markdownPattern.FindStringSubmatch(content); len(matches) > 1 {
		content = matches[1]
	}

	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// 模型偶尔会在 JSON 前后加一句说明，截取最外层花括号之间的部分
	if !strings.HasPrefix(content, "{") {
		if start := strings.IndexByte(content, '{'); start >= 0 {
			if end := strings.LastIndexByte(content, '}'); end > start {
				content = content[start : end+1]
			}
		}
	}

	return content
}

// SceneBreakdownContent 场景拆分响应的解析结构
// 只用于解析模型输出，校验通过后转换成 story.Scene 实体
type SceneBreakdownContent struct {
	Scenes        []*SceneBreakdownScene `json:"scenes"`
	TotalScenes   int                    `json:"totalScenes"`
	TotalDuration int                    `json:"totalDuration"`
}

type SceneBreakdownScene struct {
	SceneNumber      int    `json:"sceneNumber"`
	Duration         int    `json:"duration"`
	Description      string `json:"description"`
	SoundDescription string `json:"soundDescription"`
	Narration        string `json:"narration"`
}

// EnhancementContent 润色响应的解析结构
type EnhancementContent struct {
	Scenes []*EnhancementScene `json:"scenes"`
}

type EnhancementScene struct {
	SceneNumber int    `json:"sceneNumber"`
	ImagePrompt string `json:"imagePrompt"`
	VideoPrompt string `json:"videoPrompt,omitempty"`
}

// ParseSceneBreakdown 解析并校验场景拆分响应
//
// 硬性校验（违反即失败，返回 SchemaValidationError）：
//   - 场景数与约束一致
//   - sceneNumber 从 1 连续递增
//   - 时长落在允许集合 / 区间内，或等于该场景的预分配值
//     （分配器为守住总时长可能给出词表外的值）
//   - 时长总和等于请求总时长，totalScenes / totalDuration 汇总字段一致
//   - 独立内容模板的 narration 必须为空；音效锁定时 soundDescription 必须为空
//   - description 非空
//
// 软性校验（只产生告警，不拦截）：
//   - 旁白字数明显偏离目标
//   - 音效描述疑似完整句子
func ParseSceneBreakdown(raw string, cc *ComputedConstraints) ([]story.Scene, []string, error) {
	content := CleanJSONContent(raw)
	if content == "" {
		return nil, nil, NewSchemaValidationError("response", "empty response body", "")
	}

	var parsed SceneBreakdownContent
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, nil, NewSchemaValidationError("response", fmt.Sprintf("invalid JSON: %v", err), truncate(content, 200))
	}

	if len(parsed.Scenes) != cc.SceneCount {
		return nil, nil, NewSchemaValidationError("scenes",
			fmt.Sprintf("expected exactly %d scenes", cc.SceneCount), len(parsed.Scenes))
	}
	if parsed.TotalScenes != cc.SceneCount {
		return nil, nil, NewSchemaValidationError("totalScenes",
			fmt.Sprintf("must equal %d", cc.SceneCount), parsed.TotalScenes)
	}
	if parsed.TotalDuration != cc.TotalDuration {
		return nil, nil, NewSchemaValidationError("totalDuration",
			fmt.Sprintf("must equal %d", cc.TotalDuration), parsed.TotalDuration)
	}

	var warnings []string
	scenes := make([]story.Scene, 0, len(parsed.Scenes))
	sum := 0
	for i, sc := range parsed.Scenes {
		if sc == nil {
			return nil, nil, NewSchemaValidationError("scenes", fmt.Sprintf("scene at index %d is null", i), nil)
		}
		if sc.SceneNumber != i+1 {
			return nil, nil, NewSchemaValidationError("sceneNumber",
				fmt.Sprintf("must be sequential starting at 1, expected %d", i+1), sc.SceneNumber)
		}
		if !cc.SceneDurationAllowed(i, sc.Duration) {
			if len(cc.AllowedDurations) > 0 {
				return nil, nil, NewSchemaValidationError("duration",
					fmt.Sprintf("scene %d duration not in the supported set %v", sc.SceneNumber, cc.AllowedDurations), sc.Duration)
			}
			return nil, nil, NewSchemaValidationError("duration",
				fmt.Sprintf("scene %d duration must be between %d and %d seconds", sc.SceneNumber, cc.DurationMin, cc.DurationMax), sc.Duration)
		}
		if strings.TrimSpace(sc.Description) == "" {
			return nil, nil, NewSchemaValidationError("description",
				fmt.Sprintf("scene %d visual description is empty", sc.SceneNumber), sc.Description)
		}
		narration := strings.TrimSpace(sc.Narration)
		if cc.NarrationLocked && narration != "" {
			return nil, nil, NewSchemaValidationError("narration",
				fmt.Sprintf("scene %d must have empty narration for an independent-content template", sc.SceneNumber), sc.Narration)
		}
		sound := strings.TrimSpace(sc.SoundDescription)
		if cc.SoundLocked && sound != "" {
			return nil, nil, NewSchemaValidationError("soundDescription",
				fmt.Sprintf("scene %d must have empty sound description when the target model has its own audio", sc.SceneNumber), sc.SoundDescription)
		}
		if !cc.SoundLocked && sound == "" {
			return nil, nil, NewSchemaValidationError("soundDescription",
				fmt.Sprintf("scene %d sound description is empty", sc.SceneNumber), sc.SoundDescription)
		}
		sum += sc.Duration

		if !cc.NarrationLocked && i < len(cc.WordsPerScene) && cc.WordsPerScene[i] > 0 {
			got := CountWords(narration)
			target := cc.WordsPerScene[i]
			if deviation := math.Abs(float64(got-target)) / float64(target); deviation > 0.5 {
				warnings = append(warnings, fmt.Sprintf(
					"scene %d narration is %d words, target is about %d", sc.SceneNumber, got, target))
			}
		}
		if sound != "" && looksLikeSentence(sound) {
			warnings = append(warnings, fmt.Sprintf(
				"scene %d sound description reads like a full sentence: %q", sc.SceneNumber, truncate(sound, 80)))
		}

		scenes = append(scenes, story.Scene{
			SceneNumber:      sc.SceneNumber,
			Duration:         sc.Duration,
			Description:      strings.TrimSpace(sc.Description),
			SoundDescription: sound,
			Narration:        narration,
		})
	}

	if sum != cc.TotalDuration {
		return nil, nil, NewSchemaValidationError("duration",
			fmt.Sprintf("scene durations sum to %d, requested total is %d", sum, cc.TotalDuration), sum)
	}

	return scenes, warnings, nil
}

// ApplyEnhancement 解析润色响应并把提示词写回场景
// 返回的切片是入参的副本，场景顺序与 sceneNumber 对齐
func ApplyEnhancement(raw string, scenes []story.Scene, animated bool) ([]story.Scene, error) {
	content := CleanJSONContent(raw)
	if content == "" {
		return nil, NewSchemaValidationError("response", "empty response body", "")
	}

	var parsed EnhancementContent
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, NewSchemaValidationError("response", fmt.Sprintf("invalid JSON: %v", err), truncate(content, 200))
	}
	if len(parsed.Scenes) != len(scenes) {
		return nil, NewSchemaValidationError("scenes",
			fmt.Sprintf("expected exactly %d entries", len(scenes)), len(parsed.Scenes))
	}

	out := append([]story.Scene(nil), scenes...)
	for i, e := range parsed.Scenes {
		if e == nil {
			return nil, NewSchemaValidationError("scenes", fmt.Sprintf("entry at index %d is null", i), nil)
		}
		if e.SceneNumber != i+1 {
			return nil, NewSchemaValidationError("sceneNumber",
				fmt.Sprintf("must be sequential starting at 1, expected %d", i+1), e.SceneNumber)
		}
		if strings.TrimSpace(e.ImagePrompt) == "" {
			return nil, NewSchemaValidationError("imagePrompt",
				fmt.Sprintf("scene %d image prompt is empty", e.SceneNumber), e.ImagePrompt)
		}
		if animated && strings.TrimSpace(e.VideoPrompt) == "" {
			return nil, NewSchemaValidationError("videoPrompt",
				fmt.Sprintf("scene %d video prompt is required for animated media", e.SceneNumber), e.VideoPrompt)
		}
		out[i].ImagePrompt = strings.TrimSpace(e.ImagePrompt)
		out[i].VideoPrompt = strings.TrimSpace(e.VideoPrompt)
	}

	return out, nil
}

// looksLikeSentence 判断音效描述是否像完整句子
// 以句末标点结尾（含阿拉伯语问号）视为句子
func looksLikeSentence(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 {
		return false
	}
	switch runes[len(runes)-1] {
	case '.', '!', '?', '؟', '。', '！', '？':
		return true
	}
	return false
}

func truncate(s string, max int) string {
	runes := []rune(strings.TrimFunc(s, unicode.IsSpace))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "..."
}
