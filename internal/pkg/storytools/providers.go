package storytools

import (
	"context"

	"github.com/eino-contrib/jsonschema"
)

// GenerationClient 定义了调用文本大模型的接口
// 具体的「如何调用大模型」由调用方通过实现此接口注入，方便单测和替换实现
type GenerationClient interface {
	// Complete 执行一次补全调用
	//
	// Args:
	//   - ctx: 上下文
	//   - req: 请求载荷（消息、采样参数、响应格式）
	//
	// Returns:
	//   - content: 模型返回的文本
	//   - err: 错误信息
	Complete(ctx context.Context, req *GenerationRequest) (string, error)
}

// VoiceProvider 语音合成提供者接口（用于单测/替换实现）
type VoiceProvider interface {
	// Synthesize 合成单段旁白
	// 返回音频数据和实测时长，不落盘
	Synthesize(ctx context.Context, req *VoiceRequest) (*VoiceResult, error)
}

// Message 一条对话消息
type Message struct {
	Role    string `json:"role"` // system / user / assistant
	Content string `json:"content"`
}

// GenerationRequest 补全请求载荷
// Model 为空时用适配器配置的默认模型；ResponseFormat 为空时按纯文本补全处理
type GenerationRequest struct {
	Model          string          `json:"model,omitempty"`
	Messages       []Message       `json:"messages"`
	Temperature    float32         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ResponseFormat 结构化输出约束
// 支持 json_schema 的模型直接下发 Schema，不支持的实现把 Schema 渲染进提示词
type ResponseFormat struct {
	Type       string      `json:"type"` // "json_schema"
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

// JSONSchema 命名的响应 Schema
type JSONSchema struct {
	Name   string             `json:"name"`
	Strict bool               `json:"strict"`
	Schema *jsonschema.Schema `json:"schema"`
}

// VoiceRequest 语音合成请求
type VoiceRequest struct {
	Text       string  `json:"text"`
	VoiceType  string  `json:"voice_type,omitempty"`  // 音色，空串用默认音色
	SpeedRatio float64 `json:"speed_ratio,omitempty"` // 语速比例，0 按 1.0 处理
	Volume     float64 `json:"volume,omitempty"`      // 音量 0-1，0 按 1.0 处理
}

// VoiceResult 语音合成结果
type VoiceResult struct {
	AudioData []byte  `json:"-"`        // 音频二进制，不序列化到 JSON
	AudioURL  string  `json:"audio_url,omitempty"`
	Duration  float64 `json:"duration"` // 音频时长（秒）
}

// SystemMessage 构造 system 消息
func SystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage 构造 user 消息
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// RequestFromBundle 把提示词载荷转成补全请求
func RequestFromBundle(bundle *PromptBundle, temperature float32, maxTokens int) *GenerationRequest {
	req := &GenerationRequest{
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if bundle.System != "" {
		req.Messages = append(req.Messages, SystemMessage(bundle.System))
	}
	req.Messages = append(req.Messages, UserMessage(bundle.User))
	if bundle.Schema != nil {
		req.ResponseFormat = &ResponseFormat{
			Type: "json_schema",
			JSONSchema: &JSONSchema{
				Name:   bundle.SchemaName,
				Strict: true,
				Schema: bundle.Schema,
			},
		}
	}
	return req
}
