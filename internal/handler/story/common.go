package story

import (
	"time"

	"storia/internal/model/story"
	httputil "storia/internal/pkg/http"
	storyservice "storia/internal/service/story"
)

// Handler 故事模块 HTTP 处理器
type Handler struct {
	storyService storyservice.StoryService
}

// NewHandler 创建故事处理器
func NewHandler(storyService storyservice.StoryService) *Handler {
	return &Handler{
		storyService: storyService,
	}
}

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

// GenerationSettingsRequest 生成参数请求体
type GenerationSettingsRequest struct {
	TemplateID      string                   `json:"template_id" binding:"required"` // 模板ID（必填）
	Topic           string                   `json:"topic" binding:"required"`       // 主题（必填）
	Duration        int                      `json:"duration" binding:"required"`    // 总时长，秒（必填）
	AspectRatio     string                   `json:"aspect_ratio"`                   // 画幅比例
	Language        string                   `json:"language"`                       // 旁白语言（默认 en）
	ImageStyle      string                   `json:"image_style"`                    // 视觉风格
	MediaType       string                   `json:"media_type"`                     // static / animated
	HasVoiceover    bool                     `json:"has_voiceover"`                  // 是否合成旁白语音
	VoiceVolume     float64                  `json:"voice_volume"`                   // 语音音量 0-1
	BackgroundMusic string                   `json:"background_music"`               // 背景音乐标识
	MusicVolume     float64                  `json:"music_volume"`                   // 音乐音量 0-1
	Constraints     *ModelConstraintsRequest `json:"constraints"`                    // 下游模型约束（可选）
}

// ModelConstraintsRequest 下游模型约束请求体
type ModelConstraintsRequest struct {
	ID                 string   `json:"id"`
	Label              string   `json:"label"`
	SupportedDurations []int    `json:"supported_durations"`
	MinDuration        int      `json:"min_duration"`
	MaxDuration        int      `json:"max_duration"`
	HasAudio           bool     `json:"has_audio"`
	AspectRatios       []string `json:"aspect_ratios"`
}

// toSettings 转换为领域层生成参数
func (r *GenerationSettingsRequest) toSettings() *story.GenerationSettings {
	settings := &story.GenerationSettings{
		TemplateID:      r.TemplateID,
		Topic:           r.Topic,
		Duration:        r.Duration,
		AspectRatio:     r.AspectRatio,
		Language:        r.Language,
		ImageStyle:      r.ImageStyle,
		MediaType:       story.MediaType(r.MediaType),
		HasVoiceover:    r.HasVoiceover,
		VoiceVolume:     r.VoiceVolume,
		BackgroundMusic: r.BackgroundMusic,
		MusicVolume:     r.MusicVolume,
	}
	if c := r.Constraints; c != nil {
		settings.Constraints = &story.ModelConstraints{
			ID:                 c.ID,
			Label:              c.Label,
			SupportedDurations: c.SupportedDurations,
			MinDuration:        c.MinDuration,
			MaxDuration:        c.MaxDuration,
			HasAudio:           c.HasAudio,
			AspectRatios:       c.AspectRatios,
		}
	}
	return settings
}

// StoryInfo 故事记录 DTO
type StoryInfo struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	TemplateID  string        `json:"template_id"`
	Topic       string        `json:"topic"`
	Title       string        `json:"title"`
	Script      string        `json:"script,omitempty"`
	Scenes      []story.Scene `json:"scenes,omitempty"`
	Duration    int           `json:"duration"`
	Language    string        `json:"language"`
	Status      string        `json:"status"`
	Stage       string        `json:"stage"`
	Error       string        `json:"error,omitempty"`
	Warnings    []string      `json:"warnings,omitempty"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
	CompletedAt string        `json:"completed_at,omitempty"`
}

// toStoryInfo 将 Story 实体转换为 StoryInfo
func toStoryInfo(s *story.Story) StoryInfo {
	info := StoryInfo{
		ID:         s.ID,
		UserID:     s.UserID,
		TemplateID: s.TemplateID,
		Topic:      s.Topic,
		Title:      s.Title,
		Script:     s.Script,
		Scenes:     s.Scenes,
		Duration:   s.Duration,
		Language:   s.Language,
		Status:     s.Status.String(),
		Stage:      s.Stage.String(),
		Error:      s.Error,
		Warnings:   s.Warnings,
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  s.UpdatedAt.Format(time.RFC3339),
	}
	if s.CompletedAt != nil {
		info.CompletedAt = s.CompletedAt.Format(time.RFC3339)
	}
	return info
}

// toStoryInfoList 将 Story 列表转换为 StoryInfo 列表
func toStoryInfoList(stories []*story.Story) []StoryInfo {
	result := make([]StoryInfo, len(stories))
	for i, s := range stories {
		result[i] = toStoryInfo(s)
	}
	return result
}
