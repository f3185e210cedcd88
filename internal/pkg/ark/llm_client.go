package ark

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"

	"storia/internal/config"
)

// 火山引擎 Ark 的默认接入点和模型
const (
	defaultBaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	defaultModel   = "doubao-seed-1-6-flash-250615"
)

// LLMClient Ark 客户端封装
// 直连火山引擎官方 volcengine-go-sdk，不走 eino 运行时
// 底层 arkruntime.Client 可并发使用，批量生成时无需额外加锁
type LLMClient struct {
	client *arkruntime.Client
	model  string
}

// NewLLMClient 创建 Ark 客户端（使用官方 SDK）
func NewLLMClient(cfg *config.AIConfig) (*LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Ark API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModel
	}

	arkClient := arkruntime.NewClientWithApiKey(cfg.APIKey, arkruntime.WithBaseUrl(baseURL))

	return &LLMClient{
		client: arkClient,
		model:  modelName,
	}, nil
}

// ChatCompletionRequest 聊天完成请求
type ChatCompletionRequest struct {
	Model       string    `json:"model"`                 // 模型名称，空串用客户端默认模型
	Messages    []Message `json:"messages"`              // 消息列表
	MaxTokens   *int      `json:"max_tokens,omitempty"`  // 最大token数
	Temperature *float64  `json:"temperature,omitempty"` // 温度参数
	TopP        *float64  `json:"top_p,omitempty"`       // TopP参数
}

// Message 消息结构
type Message struct {
	Role    string `json:"role"`    // user, assistant, system
	Content string `json:"content"` // 消息内容
}

// ChatCompletionResponse 聊天完成响应
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice 选择结果
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage Token使用统计
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CreateChatCompletion 创建聊天完成
func (c *LLMClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = c.model
	}

	input := &model.ChatCompletionRequest{
		Model:    modelName,
		Messages: convertMessages(req.Messages),
	}
	if req.MaxTokens != nil {
		input.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		input.Temperature = float32(*req.Temperature)
	}
	if req.TopP != nil {
		input.TopP = float32(*req.TopP)
	}

	output, err := c.client.CreateChatCompletion(ctx, input)
	if err != nil {
		log.Error().Err(err).Str("model", modelName).Msg("Ark ChatCompletion 调用失败")
		return nil, fmt.Errorf("Ark API call failed: %w", err)
	}

	return convertChatCompletionResponse(&output), nil
}

// convertMessages 转换消息格式
func convertMessages(messages []Message) []*model.ChatCompletionMessage {
	result := make([]*model.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		content := &model.ChatCompletionMessageContent{
			StringValue: &msg.Content,
		}
		result[i] = &model.ChatCompletionMessage{
			Role:    msg.Role,
			Content: content,
		}
	}
	return result
}

// convertChatCompletionResponse 转换响应格式
func convertChatCompletionResponse(output *model.ChatCompletionResponse) *ChatCompletionResponse {
	resp := &ChatCompletionResponse{
		ID:      output.ID,
		Choices: make([]Choice, len(output.Choices)),
	}

	for i, choice := range output.Choices {
		var content string
		if choice.Message.Content != nil && choice.Message.Content.StringValue != nil {
			content = *choice.Message.Content.StringValue
		}
		resp.Choices[i] = Choice{
			Index: choice.Index,
			Message: Message{
				Role:    choice.Message.Role,
				Content: content,
			},
			FinishReason: string(choice.FinishReason),
		}
	}

	resp.Usage = &Usage{
		PromptTokens:     output.Usage.PromptTokens,
		CompletionTokens: output.Usage.CompletionTokens,
		TotalTokens:      output.Usage.TotalTokens,
	}

	return resp
}
