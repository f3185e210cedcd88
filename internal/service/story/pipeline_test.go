package story

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"storia/internal/model/story"
	"storia/internal/pkg/storytools"
)

// fakeGenClient 确定性的生成客户端桩
// 通过响应格式识别阶段，依据约束构造恰好合法（或按需注入缺陷）的响应
type fakeGenClient struct {
	mu          sync.Mutex
	calls       int
	inflight    int
	maxInflight int

	cc *storytools.ComputedConstraints

	failAll      bool // 所有调用返回错误
	emptyScript  bool // 剧本阶段返回空白
	breakTotal   bool // 场景拆分阶段把时长总和弄错
	dropNumber   bool // 场景拆分阶段打乱编号
	leakNarration bool // 独立内容响应里偷塞旁白
}

func (f *fakeGenClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeGenClient) Complete(_ context.Context, req *storytools.GenerationRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	f.mu.Unlock()
	time.Sleep(time.Millisecond)
	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	if f.failAll {
		return "", errors.New("upstream unavailable")
	}

	if req.ResponseFormat == nil {
		if f.emptyScript {
			return "   \n  ", nil
		}
		return "The keeper lit the lamp as the storm rolled in. " +
			strings.Repeat("The sea answered with silence. ", 20), nil
	}

	switch req.ResponseFormat.JSONSchema.Name {
	case storytools.SceneBreakdownSchemaName:
		return f.sceneBreakdown(), nil
	case storytools.EnhancementSchemaName:
		return f.enhancement(), nil
	default:
		return "", fmt.Errorf("unexpected schema %q", req.ResponseFormat.JSONSchema.Name)
	}
}

func (f *fakeGenClient) sceneBreakdown() string {
	cc := f.cc
	content := &storytools.SceneBreakdownContent{
		TotalScenes:   cc.SceneCount,
		TotalDuration: cc.TotalDuration,
	}
	for i, d := range cc.Durations {
		sc := &storytools.SceneBreakdownScene{
			SceneNumber: i + 1,
			Duration:    d,
			Description: fmt.Sprintf("A slow pan across scene %d, soft light", i+1),
		}
		if !cc.SoundLocked {
			sc.SoundDescription = "waves lapping, gulls far away"
		}
		if !cc.NarrationLocked {
			words := make([]string, cc.WordsPerScene[i])
			for w := range words {
				words[w] = "word"
			}
			sc.Narration = strings.Join(words, " ")
		} else if f.leakNarration && i == 0 {
			sc.Narration = "should not be here"
		}
		content.Scenes = append(content.Scenes, sc)
	}
	if f.breakTotal {
		content.Scenes[0].Duration++
		content.TotalScenes = cc.SceneCount
	}
	if f.dropNumber {
		content.Scenes[0].SceneNumber = 7
	}
	raw, _ := json.Marshal(content)
	return string(raw)
}

func (f *fakeGenClient) enhancement() string {
	content := &storytools.EnhancementContent{}
	for i := 0; i < f.cc.SceneCount; i++ {
		content.Scenes = append(content.Scenes, &storytools.EnhancementScene{
			SceneNumber: i + 1,
			ImagePrompt: fmt.Sprintf("scene %d, watercolor, cinematic light", i+1),
			VideoPrompt: "static camera, subtle motion",
		})
	}
	raw, _ := json.Marshal(content)
	return string(raw)
}

// fakeVoice 返回固定音频的语音提供者桩
type fakeVoice struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeVoice) Synthesize(_ context.Context, req *storytools.VoiceRequest) (*storytools.VoiceResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail {
		return nil, errors.New("tts unavailable")
	}
	return &storytools.VoiceResult{
		AudioData: []byte("mp3"),
		Duration:  2.5,
	}, nil
}

// newTestService 无持久化、无缓存的服务实例
func newTestService(client storytools.GenerationClient, voice storytools.VoiceProvider) StoryService {
	return NewStoryService(nil, nil, client, voice, nil)
}

// constraintsFor 与流水线相同的方式派生约束，供桩构造合法响应
func constraintsFor(settings *story.GenerationSettings) *storytools.ComputedConstraints {
	s := *settings
	s.Normalize()
	tpl, ok := storytools.GetTemplate(s.TemplateID)
	So(ok, ShouldBeTrue)
	cc, _, err := storytools.BuildComputedConstraints(&s, tpl)
	So(err, ShouldBeNil)
	return cc
}

func narratedSettings() *story.GenerationSettings {
	return &story.GenerationSettings{
		TemplateID: "storytelling",
		Topic:      "a lighthouse keeper and a lost ship",
		Duration:   60,
		Language:   "en",
	}
}

func TestGenerateStory(t *testing.T) {
	Convey("GenerateStory 完整流水线", t, func() {
		Convey("旁白模板成功路径：三次模型调用", func() {
			settings := narratedSettings()
			client := &fakeGenClient{cc: constraintsFor(settings)}
			svc := newTestService(client, nil)

			result := svc.GenerateStory(context.Background(), "u1", settings)
			So(result.Success, ShouldBeTrue)
			So(result.StoryID, ShouldNotBeEmpty)
			So(result.Error, ShouldBeEmpty)
			So(client.callCount(), ShouldEqual, 3)

			So(result.Story, ShouldNotBeNil)
			So(result.Story.Script, ShouldNotBeEmpty)
			So(story.TotalDuration(result.Story.Scenes), ShouldEqual, 60)
			for i, sc := range result.Story.Scenes {
				So(sc.SceneNumber, ShouldEqual, i+1)
				So(sc.ImagePrompt, ShouldNotBeEmpty)
			}
		})

		Convey("调用方的 settings 不被流水线修改", func() {
			settings := narratedSettings()
			settings.Topic = "  a lighthouse keeper and a lost ship  "
			settings.Duration = 5 // 低于下限，规整会抬高副本里的值
			settings.Language = ""
			client := &fakeGenClient{cc: constraintsFor(settings)}
			svc := newTestService(client, nil)

			result := svc.GenerateStory(context.Background(), "u1", settings)
			So(result.Success, ShouldBeTrue)

			So(settings.Topic, ShouldEqual, "  a lighthouse keeper and a lost ship  ")
			So(settings.Duration, ShouldEqual, 5)
			So(settings.Language, ShouldBeEmpty)
		})

		Convey("独立内容模板跳过剧本阶段：两次模型调用", func() {
			settings := &story.GenerationSettings{
				TemplateID: "ambient-nature",
				Topic:      "rain forest at dawn",
				Duration:   30,
				Language:   "en",
			}
			client := &fakeGenClient{cc: constraintsFor(settings)}
			svc := newTestService(client, nil)

			result := svc.GenerateStory(context.Background(), "u1", settings)
			So(result.Success, ShouldBeTrue)
			So(client.callCount(), ShouldEqual, 2)
			So(result.Story.Script, ShouldBeEmpty)
			for _, sc := range result.Story.Scenes {
				So(sc.Narration, ShouldBeEmpty)
			}
		})

		Convey("未知模板：零次模型调用，错误点名 template_id", func() {
			settings := narratedSettings()
			settings.TemplateID = "does-not-exist"
			client := &fakeGenClient{}
			svc := newTestService(client, nil)

			result := svc.GenerateStory(context.Background(), "u1", settings)
			So(result.Success, ShouldBeFalse)
			So(client.callCount(), ShouldEqual, 0)
			So(result.Error, ShouldContainSubstring, "template_id")
		})

		Convey("空主题：零次模型调用", func() {
			settings := narratedSettings()
			settings.Topic = "   "
			client := &fakeGenClient{}
			svc := newTestService(client, nil)

			result := svc.GenerateStory(context.Background(), "u1", settings)
			So(result.Success, ShouldBeFalse)
			So(client.callCount(), ShouldEqual, 0)
			So(result.Error, ShouldContainSubstring, "topic")
		})

		Convey("空剧本：一次调用后失败在 script 阶段", func() {
			settings := narratedSettings()
			client := &fakeGenClient{cc: constraintsFor(settings), emptyScript: true}
			svc := newTestService(client, nil)

			result := svc.GenerateStory(context.Background(), "u1", settings)
			So(result.Success, ShouldBeFalse)
			So(client.callCount(), ShouldEqual, 1)
			So(result.Error, ShouldContainSubstring, "stage script")
		})

		Convey("时长总和漂移：失败在 scenes 阶段并点名 duration", func() {
			settings := narratedSettings()
			client := &fakeGenClient{cc: constraintsFor(settings), breakTotal: true}
			svc := newTestService(client, nil)

			result := svc.GenerateStory(context.Background(), "u1", settings)
			So(result.Success, ShouldBeFalse)
			So(result.Error, ShouldContainSubstring, "stage scenes")
			So(result.Error, ShouldContainSubstring, "duration")
		})

		Convey("编号断档：失败在 scenes 阶段并点名 sceneNumber", func() {
			settings := narratedSettings()
			client := &fakeGenClient{cc: constraintsFor(settings), dropNumber: true}
			svc := newTestService(client, nil)

			result := svc.GenerateStory(context.Background(), "u1", settings)
			So(result.Success, ShouldBeFalse)
			So(result.Error, ShouldContainSubstring, "sceneNumber")
		})

		Convey("独立内容偷塞旁白：被拒绝", func() {
			settings := &story.GenerationSettings{
				TemplateID: "asmr",
				Topic:      "soap cutting close-ups",
				Duration:   30,
				Language:   "en",
			}
			client := &fakeGenClient{cc: constraintsFor(settings), leakNarration: true}
			svc := newTestService(client, nil)

			result := svc.GenerateStory(context.Background(), "u1", settings)
			So(result.Success, ShouldBeFalse)
			So(result.Error, ShouldContainSubstring, "narration")
		})

		Convey("上游全挂：折叠成失败结果，不 panic 不抛错", func() {
			settings := narratedSettings()
			client := &fakeGenClient{failAll: true}
			svc := newTestService(client, nil)

			So(func() {
				result := svc.GenerateStory(context.Background(), "u1", settings)
				So(result.Success, ShouldBeFalse)
				So(result.Error, ShouldContainSubstring, "generation call failed")
			}, ShouldNotPanic)
		})

		Convey("上下文已取消：在阶段边界停下", func() {
			settings := narratedSettings()
			client := &fakeGenClient{cc: constraintsFor(settings)}
			svc := newTestService(client, nil)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			result := svc.GenerateStory(ctx, "u1", settings)
			So(result.Success, ShouldBeFalse)
			So(client.callCount(), ShouldEqual, 0)
			So(result.Error, ShouldContainSubstring, context.Canceled.Error())
		})
	})
}

func TestGenerateStoryVoice(t *testing.T) {
	Convey("语音阶段", t, func() {
		Convey("开启旁白语音时逐场景合成", func() {
			settings := narratedSettings()
			settings.HasVoiceover = true
			cc := constraintsFor(settings)
			client := &fakeGenClient{cc: cc}
			voice := &fakeVoice{}
			svc := newTestService(client, voice)

			result := svc.GenerateStory(context.Background(), "u1", settings)
			So(result.Success, ShouldBeTrue)
			So(voice.calls, ShouldEqual, cc.SceneCount)
			for _, sc := range result.Story.Scenes {
				So(sc.VoiceDuration, ShouldEqual, 2.5)
			}
		})

		Convey("TTS 未配置时直通：结果成功、场景不带语音", func() {
			settings := narratedSettings()
			settings.HasVoiceover = true
			client := &fakeGenClient{cc: constraintsFor(settings)}
			svc := newTestService(client, nil) // NopVoiceProvider

			result := svc.GenerateStory(context.Background(), "u1", settings)
			So(result.Success, ShouldBeTrue)
			for _, sc := range result.Story.Scenes {
				So(sc.VoiceDuration, ShouldEqual, 0)
			}
		})

		Convey("合成失败：整体失败在 voice 阶段", func() {
			settings := narratedSettings()
			settings.HasVoiceover = true
			client := &fakeGenClient{cc: constraintsFor(settings)}
			svc := newTestService(client, &fakeVoice{fail: true})

			result := svc.GenerateStory(context.Background(), "u1", settings)
			So(result.Success, ShouldBeFalse)
			So(result.Error, ShouldContainSubstring, "stage voice")
		})

		Convey("未开启旁白语音时不触碰提供者", func() {
			settings := narratedSettings()
			client := &fakeGenClient{cc: constraintsFor(settings)}
			voice := &fakeVoice{fail: true}
			svc := newTestService(client, voice)

			result := svc.GenerateStory(context.Background(), "u1", settings)
			So(result.Success, ShouldBeTrue)
			So(voice.calls, ShouldEqual, 0)
		})
	})
}

func TestGenerateBatch(t *testing.T) {
	Convey("GenerateBatch 并发批量生成", t, func() {
		Convey("结果与入参顺序一一对应，单个失败不影响其他", func() {
			good := narratedSettings()
			bad := narratedSettings()
			bad.TemplateID = "does-not-exist"

			client := &fakeGenClient{cc: constraintsFor(good)}
			svc := newTestService(client, nil)

			batch := []*story.GenerationSettings{good, bad, narratedSettings()}
			results := svc.GenerateBatch(context.Background(), "u1", batch, 2)

			So(len(results), ShouldEqual, 3)
			So(results[0].Success, ShouldBeTrue)
			So(results[1].Success, ShouldBeFalse)
			So(results[1].Error, ShouldContainSubstring, "template_id")
			So(results[2].Success, ShouldBeTrue)
			So(client.maxInflight, ShouldBeLessThanOrEqualTo, 2)
		})

		Convey("空批次返回 nil", func() {
			svc := newTestService(&fakeGenClient{}, nil)
			So(svc.GenerateBatch(context.Background(), "u1", nil, 2), ShouldBeNil)
		})

		Convey("非法并发度回落到默认值而不是卡死", func() {
			settings := narratedSettings()
			client := &fakeGenClient{cc: constraintsFor(settings)}
			svc := newTestService(client, nil)

			results := svc.GenerateBatch(context.Background(), "u1",
				[]*story.GenerationSettings{settings}, -1)
			So(len(results), ShouldEqual, 1)
			So(results[0].Success, ShouldBeTrue)
		})
	})
}
