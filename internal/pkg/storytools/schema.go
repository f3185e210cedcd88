package storytools

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/eino-contrib/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Schema 名称，随响应格式一起下发给模型
const (
	SceneBreakdownSchemaName = "scene_breakdown"
	EnhancementSchemaName    = "scene_enhancement"
)

func props(pairs ...orderedmap.Pair[string, *jsonschema.Schema]) *orderedmap.OrderedMap[string, *jsonschema.Schema] {
	m := orderedmap.New[string, *jsonschema.Schema]()
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

func prop(key string, s *jsonschema.Schema) orderedmap.Pair[string, *jsonschema.Schema] {
	return orderedmap.Pair[string, *jsonschema.Schema]{Key: key, Value: s}
}

func uintPtr(v int) *uint64 {
	u := uint64(v)
	return &u
}

func intEnum(values []int) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func unionSorted(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, v := range a {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// SceneBreakdownSchema 构造场景拆分响应的 JSON Schema
// 所有数值边界都由约束对象锁死：场景数用 minItems/maxItems 钉住，
// 单场景时长有模型约束时用枚举、否则用上下界，
// 汇总字段 totalScenes/totalDuration 直接 const 成期望值
func SceneBreakdownSchema(cc *ComputedConstraints) *jsonschema.Schema {
	duration := &jsonschema.Schema{
		Type:        "integer",
		Description: fmt.Sprintf("Scene duration in seconds. Scene durations must sum to exactly %d.", cc.TotalDuration),
	}
	// 枚举/边界必须把分配器的实际指派也罩进来，
	// 指派值可能落在常规词表之外（见 AllocateDurations 的补丁逻辑）
	if len(cc.AllowedDurations) > 0 {
		duration.Enum = intEnum(unionSorted(cc.AllowedDurations, cc.Durations))
	} else {
		lo, hi := cc.DurationMin, cc.DurationMax
		for _, d := range cc.Durations {
			if d < lo {
				lo = d
			}
			if d > hi {
				hi = d
			}
		}
		duration.Minimum = json.Number(fmt.Sprintf("%d", lo))
		duration.Maximum = json.Number(fmt.Sprintf("%d", hi))
	}

	narration := &jsonschema.Schema{
		Type:        "string",
		Description: "Spoken narration for this scene.",
	}
	if cc.NarrationLocked {
		narration.Const = ""
		narration.Description = "Must be an empty string. This story has no narration."
	}

	sound := &jsonschema.Schema{
		Type:        "string",
		MinLength:   uintPtr(1),
		Description: "Onomatopoeic sound description, e.g. \"rain pattering, distant thunder\". No full sentences.",
	}
	if cc.SoundLocked {
		sound.Const = ""
		sound.MinLength = nil
		sound.Description = "Must be an empty string. The video model produces its own audio track."
	}

	scene := &jsonschema.Schema{
		Type: "object",
		Properties: props(
			prop("sceneNumber", &jsonschema.Schema{
				Type:        "integer",
				Description: "1-based sequential scene number.",
				Minimum:     json.Number("1"),
				Maximum:     json.Number(fmt.Sprintf("%d", cc.SceneCount)),
			}),
			prop("duration", duration),
			prop("description", &jsonschema.Schema{
				Type:        "string",
				Description: "Visual description of the scene, always in English.",
			}),
			prop("soundDescription", sound),
			prop("narration", narration),
		),
		Required:             []string{"sceneNumber", "duration", "description", "soundDescription", "narration"},
		AdditionalProperties: jsonschema.FalseSchema,
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: props(
			prop("scenes", &jsonschema.Schema{
				Type:     "array",
				Items:    scene,
				MinItems: uintPtr(cc.SceneCount),
				MaxItems: uintPtr(cc.SceneCount),
			}),
			prop("totalScenes", &jsonschema.Schema{
				Type:  "integer",
				Const: cc.SceneCount,
			}),
			prop("totalDuration", &jsonschema.Schema{
				Type:  "integer",
				Const: cc.TotalDuration,
			}),
		),
		Required:             []string{"scenes", "totalScenes", "totalDuration"},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

// EnhancementSchema 构造场景润色（生成画面/视频提示词）响应的 JSON Schema
func EnhancementSchema(cc *ComputedConstraints, animated bool) *jsonschema.Schema {
	properties := props(
		prop("sceneNumber", &jsonschema.Schema{
			Type:    "integer",
			Minimum: json.Number("1"),
		}),
		prop("imagePrompt", &jsonschema.Schema{
			Type:        "string",
			Description: "Detailed English prompt for the still image of this scene.",
		}),
	)
	required := []string{"sceneNumber", "imagePrompt"}
	if animated {
		properties.Set("videoPrompt", &jsonschema.Schema{
			Type:        "string",
			Description: "English prompt describing camera movement and motion for this scene.",
		})
		required = append(required, "videoPrompt")
	}

	scene := &jsonschema.Schema{
		Type:                 "object",
		Properties:           properties,
		Required:             required,
		AdditionalProperties: jsonschema.FalseSchema,
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: props(
			prop("scenes", &jsonschema.Schema{
				Type:     "array",
				Items:    scene,
				MinItems: uintPtr(cc.SceneCount),
				MaxItems: uintPtr(cc.SceneCount),
			}),
		),
		Required:             []string{"scenes"},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}
