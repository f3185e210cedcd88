package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"storia/internal/config"
	"storia/internal/pkg/id"
)

// Client TTS 客户端封装
// 用于调用火山引擎的 TTS API（文本转语音）
// 参考: https://openspeech.bytedance.com/api/v1/tts
type Client struct {
	apiURL      string
	accessToken string
	appID       string
	cluster     string
	voiceType   string
	sampleRate  int
	httpClient  *http.Client
}

// NewClient 创建 TTS 客户端
func NewClient(cfg *config.TTSConfig) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("TTS access token is required")
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://openspeech.bytedance.com/api/v1/tts"
	}

	cluster := cfg.Cluster
	if cluster == "" {
		cluster = "volcano_tts"
	}

	voiceType := cfg.VoiceType
	if voiceType == "" {
		voiceType = "BV115_streaming"
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 44100
	}

	return &Client{
		apiURL:      apiURL,
		accessToken: cfg.AccessToken,
		appID:       cfg.AppID,
		cluster:     cluster,
		voiceType:   voiceType,
		sampleRate:  sampleRate,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Result 单段旁白的合成结果
type Result struct {
	AudioData []byte  `json:"-"`        // 音频数据（mp3 二进制，不序列化到 JSON）
	Duration  float64 `json:"duration"` // 音频时长（秒）
}

// Synthesize 合成单段旁白
// 返回音频数据和实测时长，不落盘；旁白能不能塞进场景时长由调用方判断
func (c *Client) Synthesize(ctx context.Context, text, voiceType string, speedRatio, volume float64) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is empty")
	}
	if speedRatio <= 0 {
		speedRatio = 1.0
	}
	if volume <= 0 {
		volume = 1.0
	}
	if voiceType == "" {
		voiceType = c.voiceType
	}

	requestID := id.New()
	reqBody, err := json.Marshal(c.buildRequestConfig(text, requestID, voiceType, speedRatio, volume))
	if err != nil {
		return nil, fmt.Errorf("marshal TTS request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create TTS request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer; %s", c.accessToken))
	req.Header.Set("Content-Type", "application/json")

	log.Debug().
		Str("request_id", requestID).
		Str("voice_type", voiceType).
		Int("text_len", len(text)).
		Msg("sending TTS request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send TTS request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read TTS response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS API request failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var apiResp map[string]interface{}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse TTS response: %w", err)
	}

	// 成功码为 3000
	code, _ := apiResp["code"].(float64)
	if code != 3000 {
		message, _ := apiResp["message"].(string)
		if message == "" {
			message = "unknown error"
		}
		return nil, fmt.Errorf("TTS API response error: %s (code: %.0f)", message, code)
	}

	audioDataBase64, ok := apiResp["data"].(string)
	if !ok {
		return nil, fmt.Errorf("audio data not found in TTS response")
	}
	audioData, err := base64.StdEncoding.DecodeString(audioDataBase64)
	if err != nil {
		return nil, fmt.Errorf("decode audio data: %w", err)
	}

	return &Result{
		AudioData: audioData,
		Duration:  parseDuration(apiResp),
	}, nil
}

// buildRequestConfig 构建请求配置
// 参考官方文档: https://openspeech.bytedance.com/api/v1/tts
func (c *Client) buildRequestConfig(text, requestID, voiceType string, speedRatio, volume float64) map[string]interface{} {
	appConfig := map[string]interface{}{
		"token":   c.accessToken,
		"cluster": c.cluster,
	}
	if c.appID != "" {
		appConfig["appid"] = c.appID
	}

	audioConfig := map[string]interface{}{
		"voice_type":       voiceType,
		"encoding":         "mp3",
		"compression_rate": 1,
		"rate":             c.sampleRate,
		"speed_ratio":      speedRatio,
		"volume_ratio":     volume,
		"pitch_ratio":      1.0,
	}

	requestConfig := map[string]interface{}{
		"reqid":            requestID,
		"text":             text,
		"text_type":        "plain",
		"operation":        "query",
		"silence_duration": "125",
	}

	return map[string]interface{}{
		"app":     appConfig,
		"user":    map[string]interface{}{"uid": requestID},
		"audio":   audioConfig,
		"request": requestConfig,
	}
}

// parseDuration 从 addition 字段提取音频时长
// API 返回毫秒，字段可能是字符串也可能是数字
func parseDuration(apiResp map[string]interface{}) float64 {
	addition, ok := apiResp["addition"].(map[string]interface{})
	if !ok {
		return 0
	}

	if durationStr, ok := addition["duration"].(string); ok {
		if parsed, err := strconv.ParseFloat(durationStr, 64); err == nil {
			return parsed / 1000.0
		}
	}
	if durationNum, ok := addition["duration"].(float64); ok {
		return durationNum / 1000.0
	}
	return 0
}
