package story

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"storia/internal/model/story"
	"storia/internal/pkg/cache"
	"storia/internal/pkg/id"
	"storia/internal/pkg/storytools"
)

// 模型调用的默认采样参数（配置里没给时使用）
const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 8 * 1024
)

// pipelineRun 单次流水线运行的内部状态
// 各阶段顺序修改它；任何阶段失败后状态即冻结
type pipelineRun struct {
	storyID     string
	userID      string
	settings    *story.GenerationSettings
	template    *story.Template
	constraints *storytools.ComputedConstraints
	stage       story.PipelineStage // 正在执行的阶段
	script      string
	scenes      []story.Scene
	warnings    []string
	record      *story.Story // repo 未配置时为 nil
}

// GenerateStory 执行一次完整的故事生成流水线
//
// 阶段顺序：script → scenes → enhance → voice（独立内容模板跳过 script，
// 非旁白内容同样跳过 voice）。所有错误路径——参数非法、模型调用失败、
// 约束校验失败、panic、上下文取消——统一折叠成 Success=false 的结果返回，
// 本方法不向调用方抛 error、不 panic
func (s *storyService) GenerateStory(ctx context.Context, userID string, settings *story.GenerationSettings) (result *story.StoryGenerationResult) {
	run := &pipelineRun{
		storyID:  id.New(),
		userID:   userID,
		settings: settings,
		stage:    story.StagePending,
	}

	// 阶段实现不该 panic，但模型返回的内容不可信，兜底折叠成失败结果
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("story_id", run.storyID).
				Interface("panic", r).
				Msg("故事生成流水线 panic")
			result = s.failRun(run, run.stage, fmt.Errorf("internal error: %v", r))
		}
	}()

	start := time.Now()
	log.Info().
		Str("story_id", run.storyID).
		Str("user_id", userID).
		Msg("故事生成开始")

	// 参数校验：任何模型调用之前完成，未知模板不消耗任何配额
	if err := s.prepare(run); err != nil {
		return s.failRun(run, story.StagePending, err)
	}

	s.createRecord(ctx, run)

	type stage struct {
		name story.PipelineStage
		skip bool
		fn   func(context.Context, *pipelineRun) error
	}
	stages := []stage{
		{story.StageScript, run.template.IsIndependent(), s.stageScript},
		{story.StageScenes, false, s.stageScenes},
		{story.StageEnhance, false, s.stageEnhance},
		{story.StageVoice, run.template.IsIndependent() || !run.settings.HasVoiceover, s.stageVoice},
	}

	for _, st := range stages {
		if st.skip {
			continue
		}
		// 取消只在阶段边界生效，不打断进行中的模型调用
		if err := ctx.Err(); err != nil {
			return s.failRun(run, st.name, err)
		}
		run.stage = st.name

		stageStart := time.Now()
		log.Info().
			Str("story_id", run.storyID).
			Str("stage", st.name.String()).
			Msg("阶段开始")

		if err := st.fn(ctx, run); err != nil {
			log.Error().
				Err(err).
				Str("story_id", run.storyID).
				Str("stage", st.name.String()).
				Dur("elapsed", time.Since(stageStart)).
				Msg("阶段失败")
			return s.failRun(run, st.name, err)
		}

		log.Info().
			Str("story_id", run.storyID).
			Str("stage", st.name.String()).
			Dur("elapsed", time.Since(stageStart)).
			Msg("阶段完成")
	}

	result = s.completeRun(ctx, run)
	log.Info().
		Str("story_id", run.storyID).
		Int("scenes", len(run.scenes)).
		Dur("elapsed", time.Since(start)).
		Msg("故事生成完成")
	return result
}

// prepare 规整并校验参数、解析模板、派生约束
// 调用方的 settings 只读：规整发生在本次运行自己的副本上，
// 同一个 settings 指针可以安全地复用在批量生成的多个槽位里
func (s *storyService) prepare(run *pipelineRun) error {
	if run.settings == nil {
		return storytools.NewInvalidSettingsError("settings", "settings are required")
	}
	settings := *run.settings
	run.settings = &settings
	run.settings.Normalize()

	if run.settings.Topic == "" {
		return storytools.NewInvalidSettingsError("topic", "topic is required")
	}
	if run.settings.Duration <= 0 {
		return storytools.NewInvalidSettingsError("duration",
			fmt.Sprintf("must be positive, got %d", run.settings.Duration))
	}

	tpl, ok := storytools.GetTemplate(run.settings.TemplateID)
	if !ok {
		return storytools.NewInvalidSettingsError("template_id",
			fmt.Sprintf("unknown template %q", run.settings.TemplateID))
	}
	run.template = tpl

	cc, warnings, err := storytools.BuildComputedConstraints(run.settings, tpl)
	if err != nil {
		return err
	}
	run.constraints = cc
	run.warnings = append(run.warnings, warnings...)
	return nil
}

// stageScript 剧本撰写
func (s *storyService) stageScript(ctx context.Context, run *pipelineRun) error {
	raw, err := s.complete(ctx, storytools.PromptScript, run)
	if err != nil {
		return err
	}

	script := strings.TrimSpace(raw)
	if script == "" {
		return storytools.NewGenerationCallError("script completion", fmt.Errorf("model returned an empty script"))
	}
	run.script = script
	return nil
}

// stageScenes 场景拆分
// 解析即校验：场景数、时长集合、总和、旁白/音效锁定全部在这里把关
func (s *storyService) stageScenes(ctx context.Context, run *pipelineRun) error {
	raw, err := s.complete(ctx, storytools.PromptScenes, run)
	if err != nil {
		return err
	}

	scenes, warnings, err := storytools.ParseSceneBreakdown(raw, run.constraints)
	if err != nil {
		return err
	}
	run.scenes = scenes
	run.warnings = append(run.warnings, warnings...)
	return nil
}

// stageEnhance 画面/视频提示词润色
func (s *storyService) stageEnhance(ctx context.Context, run *pipelineRun) error {
	raw, err := s.complete(ctx, storytools.PromptEnhancement, run)
	if err != nil {
		return err
	}

	scenes, err := storytools.ApplyEnhancement(raw, run.scenes, run.settings.MediaType == story.MediaTypeAnimated)
	if err != nil {
		return err
	}
	run.scenes = scenes
	return nil
}

// stageVoice 逐场景合成旁白语音
// 提供者返回空结果（TTS 未配置的直通实现）时场景原样保留，不算失败
func (s *storyService) stageVoice(ctx context.Context, run *pipelineRun) error {
	for i := range run.scenes {
		sc := &run.scenes[i]
		if sc.Narration == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		req := &storytools.VoiceRequest{
			Text:   sc.Narration,
			Volume: run.settings.VoiceVolume,
		}
		if s.cfg != nil {
			req.SpeedRatio = s.cfg.TTS.SpeedRatio
			req.VoiceType = s.cfg.TTS.VoiceType
		}
		result, err := s.voice.Synthesize(ctx, req)
		if err != nil {
			return storytools.NewGenerationCallError(
				fmt.Sprintf("voice synthesis for scene %d", sc.SceneNumber), err)
		}
		if result == nil || len(result.AudioData) == 0 {
			continue
		}

		sc.VoiceURL = result.AudioURL
		sc.VoiceDuration = result.Duration
		if result.Duration > float64(sc.Duration) {
			run.warnings = append(run.warnings, fmt.Sprintf(
				"scene %d narration audio runs %.1fs, longer than the scene's %ds",
				sc.SceneNumber, result.Duration, sc.Duration))
		}
	}
	return nil
}

// complete 组装提示词并执行一次模型调用
func (s *storyService) complete(ctx context.Context, kind storytools.PromptKind, run *pipelineRun) (string, error) {
	bundle, err := storytools.BuildPrompt(kind, &storytools.PromptInput{
		Settings:    run.settings,
		Template:    run.template,
		Constraints: run.constraints,
		Script:      run.script,
		Scenes:      run.scenes,
	})
	if err != nil {
		return "", storytools.NewInvalidSettingsError("prompt", err.Error())
	}

	temperature := float32(defaultTemperature)
	maxTokens := defaultMaxTokens
	if s.cfg != nil {
		if s.cfg.AI.Options.Temperature > 0 {
			temperature = float32(s.cfg.AI.Options.Temperature)
		}
		if s.cfg.AI.Options.MaxTokens > 0 {
			maxTokens = s.cfg.AI.Options.MaxTokens
		}
	}

	raw, err := s.genClient.Complete(ctx, storytools.RequestFromBundle(bundle, temperature, maxTokens))
	if err != nil {
		return "", storytools.NewGenerationCallError(string(kind)+" completion", err)
	}
	return raw, nil
}

// createRecord 落库一条 running 记录（repo 未配置时跳过）
// 持久化失败只告警，不阻塞生成
func (s *storyService) createRecord(ctx context.Context, run *pipelineRun) {
	if s.repo == nil {
		return
	}

	record := &story.Story{
		ID:          run.storyID,
		UserID:      run.userID,
		TemplateID:  run.settings.TemplateID,
		Topic:       run.settings.Topic,
		Title:       run.settings.Topic,
		Duration:    run.settings.Duration,
		Language:    run.settings.Language,
		AspectRatio: run.settings.AspectRatio,
		Status:      story.StoryStatusRunning,
		Stage:       story.StagePending,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		log.Warn().Err(err).Str("story_id", run.storyID).Msg("故事记录落库失败")
		return
	}
	run.record = record
}

// completeRun 组装成功结果并持久化
func (s *storyService) completeRun(ctx context.Context, run *pipelineRun) *story.StoryGenerationResult {
	content := &story.StoryContent{
		Title:    run.settings.Topic,
		Script:   run.script,
		Scenes:   run.scenes,
		Duration: story.TotalDuration(run.scenes),
	}

	if run.record != nil {
		now := time.Now()
		run.record.Script = run.script
		run.record.Scenes = run.scenes
		run.record.Status = story.StoryStatusCompleted
		run.record.Stage = story.StageDone
		run.record.Warnings = run.warnings
		run.record.CompletedAt = &now
		if err := s.repo.Update(ctx, run.record); err != nil {
			log.Warn().Err(err).Str("story_id", run.storyID).Msg("故事记录更新失败")
		}
		s.cacheRecord(ctx, run.record)
	}

	return &story.StoryGenerationResult{
		Success:  true,
		StoryID:  run.storyID,
		Story:    content,
		Warnings: run.warnings,
	}
}

// failRun 把阶段错误折叠成失败结果并持久化
// 失败结果不携带半成品内容（Story 恒为 nil）
func (s *storyService) failRun(run *pipelineRun, stage story.PipelineStage, err error) *story.StoryGenerationResult {
	wrapped := storytools.NewPipelineStageError(stage.String(), err)

	if run.record != nil {
		// 流水线的 ctx 可能已经取消，落库用独立的短超时
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		run.record.Status = story.StoryStatusFailed
		run.record.Stage = stage
		run.record.Error = wrapped.Error()
		run.record.Warnings = run.warnings
		if updErr := s.repo.Update(ctx, run.record); updErr != nil {
			log.Warn().Err(updErr).Str("story_id", run.storyID).Msg("故事失败状态落库失败")
		}
	}

	return &story.StoryGenerationResult{
		Success:  false,
		StoryID:  run.storyID,
		Error:    wrapped.Error(),
		Warnings: run.warnings,
	}
}

// cacheRecord 缓存已完成的故事记录
func (s *storyService) cacheRecord(ctx context.Context, record *story.Story) {
	if s.cache == nil {
		return
	}
	ttl := cache.StoryCacheTTL
	if s.cfg != nil && s.cfg.Story.CacheTTL > 0 {
		ttl = s.cfg.Story.CacheTTL
	}
	if err := s.cache.Set(ctx, cache.StoryCacheKey(record.ID), record, ttl); err != nil {
		log.Warn().Err(err).Str("story_id", record.ID).Msg("故事缓存写入失败")
	}
}
