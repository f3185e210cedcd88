package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"storia/internal/pkg/ark"
	"storia/internal/pkg/storytools"
)

// EinoClient Eino 封装的生成客户端（默认使用）
// 使用 ai/component 封装的 ChatModel（基于 eino-ext 的 openai / ark 模块）
// 实现了 storytools.GenerationClient 接口
type EinoClient struct {
	chatModel model.ChatModel
}

// NewEinoClient 创建基于 Eino 的生成客户端（默认推荐使用）
//
// Args:
//   - chatModel: 通过 ai/component.NewChatModel 创建的 ChatModel 实例
//
// Returns:
//   - *EinoClient: 生成客户端实例
func NewEinoClient(chatModel model.ChatModel) *EinoClient {
	return &EinoClient{
		chatModel: chatModel,
	}
}

// Complete 执行一次补全调用（使用 eino ChatModel）
// 实现了 storytools.GenerationClient 接口
// 响应格式约束通过提示词下发，不依赖特定模型的 json_schema 支持
func (c *EinoClient) Complete(ctx context.Context, req *storytools.GenerationRequest) (string, error) {
	if c.chatModel == nil {
		return "", fmt.Errorf("chatModel is required")
	}

	messages := make([]*schema.Message, 0, len(req.Messages)+1)
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			messages = append(messages, schema.SystemMessage(m.Content))
		case "assistant":
			messages = append(messages, schema.AssistantMessage(m.Content, nil))
		default:
			messages = append(messages, schema.UserMessage(m.Content))
		}
	}
	if hint := renderSchemaHint(req.ResponseFormat); hint != "" {
		messages = append(messages, schema.UserMessage(hint))
	}

	var opts []model.Option
	if req.Model != "" {
		opts = append(opts, model.WithModel(req.Model))
	}
	if req.Temperature > 0 {
		opts = append(opts, model.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	response, err := c.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	content := response.Content
	if content == "" {
		return "", fmt.Errorf("empty response from chat model")
	}

	return content, nil
}

// ArkClient Ark 实现的生成客户端（使用 pkg/ark 的 LLMClient）
// 实现了 storytools.GenerationClient 接口
// ai.provider 配置为 ark-sdk 时选用，直连火山官方 SDK 而不经过 eino 运行时
type ArkClient struct {
	client *ark.LLMClient
}

// NewArkClient 创建基于 Ark 的生成客户端（使用 pkg/ark 的 LLMClient）
//
// Args:
//   - client: Ark LLM 客户端实例（通过 ark.NewLLMClient 创建）
//
// Returns:
//   - *ArkClient: 生成客户端实例
func NewArkClient(client *ark.LLMClient) *ArkClient {
	return &ArkClient{
		client: client,
	}
}

// Complete 执行一次补全调用（使用 Ark LLM 客户端）
// 实现了 storytools.GenerationClient 接口
func (c *ArkClient) Complete(ctx context.Context, req *storytools.GenerationRequest) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("ark client is required")
	}

	messages := make([]ark.Message, 0, len(req.Messages)+1)
	for _, m := range req.Messages {
		messages = append(messages, ark.Message{Role: m.Role, Content: m.Content})
	}
	if hint := renderSchemaHint(req.ResponseFormat); hint != "" {
		messages = append(messages, ark.Message{Role: "user", Content: hint})
	}

	arkReq := &ark.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if req.Temperature > 0 {
		t := float64(req.Temperature)
		arkReq.Temperature = &t
	}
	if req.MaxTokens > 0 {
		mt := req.MaxTokens
		arkReq.MaxTokens = &mt
	}

	resp, err := c.client.CreateChatCompletion(ctx, arkReq)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// renderSchemaHint 把响应 Schema 渲染成提示词文本
// 部分模型不支持 response_format=json_schema 参数，把 Schema 以文本形式
// 附在对话末尾对这类模型同样有效；解析侧的硬校验兜住剩余偏差
func renderSchemaHint(rf *storytools.ResponseFormat) string {
	if rf == nil || rf.JSONSchema == nil || rf.JSONSchema.Schema == nil {
		return ""
	}

	raw, err := json.MarshalIndent(rf.JSONSchema.Schema, "", "  ")
	if err != nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your response must be a single JSON object conforming to this JSON Schema (%s):\n", rf.JSONSchema.Name)
	b.Write(raw)
	b.WriteString("\nOutput only the JSON object, nothing else.")
	return b.String()
}
