package storytools

import (
	"fmt"
	"strings"

	"github.com/eino-contrib/jsonschema"

	"storia/internal/model/story"
)

// PromptKind 提示词类型，对应流水线的三次模型调用
type PromptKind string

const (
	PromptScript      PromptKind = "script"      // 整篇脚本
	PromptScenes      PromptKind = "scenes"      // 场景拆分
	PromptEnhancement PromptKind = "enhancement" // 画面/视频提示词润色
)

// PromptInput 组装提示词所需的全部输入
// 同一个输入对象在不同阶段复用，后续阶段逐步填充 Script 和 Scenes
type PromptInput struct {
	Settings    *story.GenerationSettings
	Template    *story.Template
	Constraints *ComputedConstraints
	Script      string        // 场景拆分阶段需要
	Scenes      []story.Scene // 润色阶段需要
}

// PromptBundle 一次模型调用的完整提示词载荷
// Schema 随请求下发给支持结构化输出的模型，同时也渲染进提示词正文兜底
type PromptBundle struct {
	System     string
	User       string
	Schema     *jsonschema.Schema
	SchemaName string
}

// BuildPrompt 按阶段组装提示词
// 同样的输入必须产出同样的提示词，方便缓存和回放排查
func BuildPrompt(kind PromptKind, input *PromptInput) (*PromptBundle, error) {
	if input == nil || input.Settings == nil || input.Template == nil {
		return nil, fmt.Errorf("prompt input is incomplete")
	}
	switch kind {
	case PromptScript:
		return buildScriptPrompt(input), nil
	case PromptScenes:
		if input.Constraints == nil {
			return nil, fmt.Errorf("scene prompt requires computed constraints")
		}
		return buildSceneBreakdownPrompt(input), nil
	case PromptEnhancement:
		if input.Constraints == nil || len(input.Scenes) == 0 {
			return nil, fmt.Errorf("enhancement prompt requires constraints and scenes")
		}
		return buildEnhancementPrompt(input), nil
	default:
		return nil, fmt.Errorf("unknown prompt kind: %s", kind)
	}
}

// buildScriptPrompt 组装整篇脚本的提示词
// 独立内容模板没有脚本阶段，调用方不应该走到这里；仍按叙事模板兜底处理
func buildScriptPrompt(input *PromptInput) *PromptBundle {
	s, tpl := input.Settings, input.Template

	var b strings.Builder
	b.WriteString("You are a professional short-video scriptwriter.\n")
	fmt.Fprintf(&b, "Write a complete narration script for a %d second video about the topic below.\n\n", s.Duration)

	b.WriteString("[Requirements]\n")
	fmt.Fprintf(&b, "1. Structure: %s\n", templateStructureHint(tpl))
	if lang := languageName(s.Language); lang != "" {
		fmt.Fprintf(&b, "2. Write the script in %s.\n", lang)
	} else {
		b.WriteString("2. Write the script in English.\n")
	}
	if cc := input.Constraints; cc != nil && cc.TotalWords > 0 {
		fmt.Fprintf(&b, "3. Target length: about %d words, so the narration fits %d seconds when read aloud.\n",
			cc.TotalWords, s.Duration)
	}
	b.WriteString("4. Spoken, conversational register. No headings, no scene markers, no stage directions.\n")
	b.WriteString("5. Output the script text only. No preamble, no commentary.\n\n")

	fmt.Fprintf(&b, "[Topic]\n%s\n", s.Topic)
	if s.ImageStyle != "" {
		fmt.Fprintf(&b, "\n[Visual style for context]\n%s\n", s.ImageStyle)
	}

	return &PromptBundle{
		System: "You are a professional short-video scriptwriter. You write tight, spoken-register scripts that fit an exact runtime.",
		User:   b.String(),
	}
}

// buildSceneBreakdownPrompt 组装场景拆分提示词
// 场景数、每场时长、字数目标全部来自 ComputedConstraints，提示词里不做任何二次计算
func buildSceneBreakdownPrompt(input *PromptInput) *PromptBundle {
	s, tpl, cc := input.Settings, input.Template, input.Constraints

	var b strings.Builder
	b.WriteString("You are a professional video director. Break the story below into scenes.\n\n")

	b.WriteString("[Hard constraints - every one of these is checked by a machine]\n")
	fmt.Fprintf(&b, "1. Produce EXACTLY %d scenes. Not more, not fewer.\n", cc.SceneCount)
	b.WriteString("2. Each scene's duration is assigned for you. Use these exact values in order:\n")
	for i, d := range cc.Durations {
		fmt.Fprintf(&b, "   - Scene %d: %d seconds", i+1, d)
		if !cc.NarrationLocked && i < len(cc.WordsPerScene) {
			fmt.Fprintf(&b, " (narration about %d words)", cc.WordsPerScene[i])
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "3. Scene durations must sum to exactly %d seconds.\n", cc.TotalDuration)
	// 指派值可能落在常规词表之外，这时不能再宣布词表限制，否则第 2 条和第 4 条互相矛盾
	inVocabulary := true
	for _, d := range cc.Durations {
		if !cc.DurationInVocabulary(d) {
			inVocabulary = false
			break
		}
	}
	switch {
	case !inVocabulary:
		b.WriteString("4. Copy the assigned duration values from constraint 2 verbatim. Keeping the exact total takes priority over everything else.\n")
	case len(cc.AllowedDurations) > 0:
		fmt.Fprintf(&b, "4. Every duration value must be one of: %s.\n", joinInts(cc.AllowedDurations))
	default:
		fmt.Fprintf(&b, "4. Every duration must be between %d and %d seconds.\n", cc.DurationMin, cc.DurationMax)
	}
	b.WriteString("5. sceneNumber starts at 1 and increases by 1 with no gaps.\n")
	fmt.Fprintf(&b, "6. Set totalScenes to %d and totalDuration to %d.\n\n", cc.SceneCount, cc.TotalDuration)

	b.WriteString("[description field]\n")
	b.WriteString("1. Always write the visual description in English, whatever language the narration uses.\n")
	b.WriteString("2. Describe what the camera sees: subject, setting, lighting, mood, composition.\n")
	if s.ImageStyle != "" {
		fmt.Fprintf(&b, "3. Match this visual style throughout: %s\n", s.ImageStyle)
	}
	b.WriteString("\n")

	b.WriteString("[soundDescription field]\n")
	if cc.SoundLocked {
		b.WriteString("Set soundDescription to an empty string \"\" for every scene. The video model generates its own audio.\n\n")
	} else {
		b.WriteString("1. Onomatopoeic ambient sound only, e.g. \"rain pattering, distant thunder\" or \"soft crackling fire\".\n")
		b.WriteString("2. Short comma-separated phrases. Never a full sentence, never ending with punctuation.\n\n")
	}

	b.WriteString("[narration field]\n")
	if cc.NarrationLocked {
		b.WriteString("Set narration to an empty string \"\" for every scene. This story has no voiceover.\n\n")
	} else {
		b.WriteString("1. Split the script across the scenes. Every sentence of the script must land in some scene; do not invent new content.\n")
		b.WriteString("2. Keep each scene's narration close to its word target so speech fits the scene duration.\n")
		if lang := languageName(s.Language); lang != "" {
			fmt.Fprintf(&b, "3. Narration stays in %s.\n", lang)
		}
		b.WriteString("\n")
	}

	if cc.NarrationLocked {
		fmt.Fprintf(&b, "[Topic]\n%s\n\n", s.Topic)
		fmt.Fprintf(&b, "[Mood]\n%s\n\n", templateStructureHint(tpl))
	} else {
		b.WriteString("[Script]\n---- BEGIN SCRIPT ----\n")
		b.WriteString(input.Script)
		b.WriteString("\n---- END SCRIPT ----\n\n")
	}

	writeJSONChecklist(&b)

	return &PromptBundle{
		System:     "You are a professional video director. You output only valid JSON that satisfies every stated constraint exactly.",
		User:       b.String(),
		Schema:     SceneBreakdownSchema(cc),
		SchemaName: SceneBreakdownSchemaName,
	}
}

// buildEnhancementPrompt 组装画面/视频提示词的润色提示词
func buildEnhancementPrompt(input *PromptInput) *PromptBundle {
	s, cc := input.Settings, input.Constraints
	animated := s.MediaType == story.MediaTypeAnimated

	var b strings.Builder
	b.WriteString("You are a prompt engineer for image and video generation models.\n")
	fmt.Fprintf(&b, "For each of the %d scenes below, write generation prompts.\n\n", len(input.Scenes))

	b.WriteString("[imagePrompt requirements]\n")
	b.WriteString("1. English only, regardless of the scene language.\n")
	b.WriteString("2. Concrete and visual: subject, setting, lighting, color palette, composition, quality tags.\n")
	b.WriteString("3. One coherent shot per scene. No multi-panel or collage descriptions.\n")
	if s.ImageStyle != "" {
		fmt.Fprintf(&b, "4. Apply this style to every prompt: %s\n", s.ImageStyle)
	}
	b.WriteString("\n")

	if animated {
		b.WriteString("[videoPrompt requirements]\n")
		b.WriteString("1. English only. Describe camera movement (push in, pan, static, follow) and in-frame motion.\n")
		b.WriteString("2. Keep the motion subtle and physically plausible for the scene duration.\n\n")
	}

	b.WriteString("[Scenes]\n")
	for _, sc := range input.Scenes {
		fmt.Fprintf(&b, "Scene %d (%d seconds): %s\n", sc.SceneNumber, sc.Duration, sc.Description)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Return a JSON object with a \"scenes\" array of exactly %d entries, one per scene, in order.\n", len(input.Scenes))
	writeJSONChecklist(&b)

	return &PromptBundle{
		System:     "You are a prompt engineer for image and video generation models. You output only valid JSON.",
		User:       b.String(),
		Schema:     EnhancementSchema(cc, animated),
		SchemaName: EnhancementSchemaName,
	}
}

// writeJSONChecklist 输出 JSON 格式自检清单
// 弱模型经常输出 markdown 代码块或尾逗号，清单能显著降低解析失败率
func writeJSONChecklist(b *strings.Builder) {
	b.WriteString("[JSON output checklist]\n")
	b.WriteString("1. Output a single JSON object. Start with { and end with }.\n")
	b.WriteString("2. No markdown fences (never ```json or ```), no comments, no text before or after the JSON.\n")
	b.WriteString("3. Double quotes around every key and string value.\n")
	b.WriteString("4. No trailing comma after the last element of any array or object.\n")
	b.WriteString("5. Escape special characters inside strings (\\n, \\\", \\\\).\n")
}

// templateStructureHint 不同模板的叙事结构提示
func templateStructureHint(tpl *story.Template) string {
	switch tpl.ID {
	case "problem-solution":
		return "hook with a relatable problem, build tension, then land a clear satisfying solution"
	case "storytelling":
		return "classic narrative arc: setup, rising action, climax, resolution"
	case "listicle":
		return "numbered list of points, each point punchy and self-contained, with a short intro and outro"
	case "asmr":
		return "calm, intimate, sensory-focused atmosphere with gentle repetitive visuals"
	case "ambient-nature":
		return "serene natural scenery, slow transitions, meditative pacing"
	default:
		return "clear beginning, middle and end"
	}
}

// languageName BCP-47 语言码转成提示词里可读的语言名
func languageName(code string) string {
	base := strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexByte(base, '-'); i > 0 {
		base = base[:i]
	}
	switch base {
	case "en":
		return "English"
	case "zh":
		return "Chinese"
	case "ja":
		return "Japanese"
	case "ko":
		return "Korean"
	case "es":
		return "Spanish"
	case "fr":
		return "French"
	case "de":
		return "German"
	case "pt":
		return "Portuguese"
	case "ru":
		return "Russian"
	case "ar":
		return "Arabic"
	case "hi":
		return "Hindi"
	case "":
		return ""
	default:
		return code
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}
