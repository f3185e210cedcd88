package providers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"storia/internal/pkg/storytools"
	"storia/internal/pkg/tts"
)

// VolcanoVoiceProvider 火山 TTS 语音提供者（使用 pkg/tts 的 Client）
// 实现了 storytools.VoiceProvider 接口
type VolcanoVoiceProvider struct {
	client *tts.Client
}

// NewVolcanoVoiceProvider 创建基于火山 TTS 的语音提供者
//
// Args:
//   - client: TTS 客户端实例（通过 tts.NewClient 创建）
//
// Returns:
//   - *VolcanoVoiceProvider: 语音提供者实例
func NewVolcanoVoiceProvider(client *tts.Client) *VolcanoVoiceProvider {
	return &VolcanoVoiceProvider{
		client: client,
	}
}

// Synthesize 合成单段旁白（使用 TTS 客户端）
// 实现了 storytools.VoiceProvider 接口
func (p *VolcanoVoiceProvider) Synthesize(ctx context.Context, req *storytools.VoiceRequest) (*storytools.VoiceResult, error) {
	if p.client == nil {
		return nil, fmt.Errorf("tts client is required")
	}

	result, err := p.client.Synthesize(ctx, req.Text, req.VoiceType, req.SpeedRatio, req.Volume)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Float64("duration", result.Duration).
		Int("audio_size", len(result.AudioData)).
		Msg("旁白语音合成成功")

	return &storytools.VoiceResult{
		AudioData: result.AudioData,
		Duration:  result.Duration,
	}, nil
}

// NopVoiceProvider 空语音提供者
// TTS 未配置时使用，语音阶段原样直通，场景不带语音数据
type NopVoiceProvider struct{}

// NewNopVoiceProvider 创建空语音提供者
func NewNopVoiceProvider() *NopVoiceProvider {
	return &NopVoiceProvider{}
}

// Synthesize 不做任何合成，返回空结果
func (p *NopVoiceProvider) Synthesize(_ context.Context, _ *storytools.VoiceRequest) (*storytools.VoiceResult, error) {
	return &storytools.VoiceResult{}, nil
}
