package story

import "strings"

// 生成参数的边界常量
const (
	DurationMin = 10  // 故事总时长下限（秒）
	DurationMax = 300 // 故事总时长上限（秒）
	TopicMaxLen = 500 // 主题最大长度（字符）
)

// GenerationSettings 一次故事生成的输入参数
// 由调用方创建，各阶段只读消费
type GenerationSettings struct {
	TemplateID      string            `json:"template_id"`
	Topic           string            `json:"topic"`
	Duration        int               `json:"duration"` // 总时长（秒），Normalize 后保证在 [DurationMin, DurationMax]
	AspectRatio     string            `json:"aspect_ratio"`
	Language        string            `json:"language"` // 旁白语言（如 en, ar, zh）
	ImageStyle      string            `json:"image_style"`
	MediaType       MediaType         `json:"media_type"` // static / animated
	HasVoiceover    bool              `json:"has_voiceover"`
	VoiceVolume     float64           `json:"voice_volume"`
	BackgroundMusic string            `json:"background_music,omitempty"`
	MusicVolume     float64           `json:"music_volume"`
	Constraints     *ModelConstraints `json:"constraints,omitempty"` // 下游模型约束（可选）
}

// Normalize 规整输入：裁剪主题、钳制时长
// 时长永远被钳制而不是丢弃；非法值（<=0）留给校验报错
func (s *GenerationSettings) Normalize() {
	s.Topic = strings.TrimSpace(s.Topic)
	if len([]rune(s.Topic)) > TopicMaxLen {
		s.Topic = string([]rune(s.Topic)[:TopicMaxLen])
	}

	if s.Duration > 0 {
		if s.Duration < DurationMin {
			s.Duration = DurationMin
		}
		if s.Duration > DurationMax {
			s.Duration = DurationMax
		}
	}

	if s.Language == "" {
		s.Language = "en"
	}
	if s.MediaType == "" {
		s.MediaType = MediaTypeStatic
	}
}
