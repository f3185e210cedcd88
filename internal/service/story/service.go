package story

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"storia/internal/ai/component"
	"storia/internal/config"
	"storia/internal/model/story"
	"storia/internal/pkg/ark"
	"storia/internal/pkg/cache"
	"storia/internal/pkg/storytools"
	"storia/internal/pkg/storytools/providers"
	"storia/internal/pkg/tts"
	storyrepo "storia/internal/repository/story"
)

// StoryService 故事服务接口
// 定义 story 模块 service 层提供的能力
type StoryService interface {
	// GenerateStory 执行一次完整的故事生成流水线
	// 任何失败都折叠进返回值，不向调用方抛错误
	GenerateStory(ctx context.Context, userID string, settings *story.GenerationSettings) *story.StoryGenerationResult

	// GenerateBatch 并发生成一批故事
	// 结果与入参顺序一一对应；单个故事失败不影响其他故事
	GenerateBatch(ctx context.Context, userID string, batch []*story.GenerationSettings, maxConcurrency int) []*story.StoryGenerationResult

	// GetStory 获取故事生成记录
	GetStory(ctx context.Context, storyID string) (*story.Story, error)

	// ListStories 按用户分页查询故事记录
	ListStories(ctx context.Context, userID string, page, pageSize int64) ([]*story.Story, int64, error)

	// ListTemplates 列出全部叙事模板
	ListTemplates() []story.Template
}

// storyService 故事服务实现
// repo 和 cache 允许为 nil：CLI 单次生成和单测不需要持久化
type storyService struct {
	repo      storyrepo.StoryRepository
	cache     *cache.RedisCache
	genClient storytools.GenerationClient
	voice     storytools.VoiceProvider
	cfg       *config.Config
}

// NewStoryService 创建故事服务
// 所有外部依赖由调用方注入，便于单测替换实现
func NewStoryService(
	repo storyrepo.StoryRepository,
	redisCache *cache.RedisCache,
	genClient storytools.GenerationClient,
	voice storytools.VoiceProvider,
	cfg *config.Config,
) StoryService {
	if voice == nil {
		voice = providers.NewNopVoiceProvider()
	}
	return &storyService{
		repo:      repo,
		cache:     redisCache,
		genClient: genClient,
		voice:     voice,
		cfg:       cfg,
	}
}

// NewStoryServiceFromConfig 按配置创建故事服务
// 按配置组装生成客户端与 TTS 客户端；TTS 未配置时语音阶段直通
// ai.provider 为 ark-sdk 时直连火山官方 SDK，其余取值走 eino ChatModel
func NewStoryServiceFromConfig(
	ctx context.Context,
	db *mongo.Database,
	redisCache *cache.RedisCache,
	cfg *config.Config,
) (StoryService, error) {
	var genClient storytools.GenerationClient
	if cfg.AI.Provider == "ark-sdk" {
		llmClient, err := ark.NewLLMClient(&cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("初始化 Ark 客户端失败: %w", err)
		}
		genClient = providers.NewArkClient(llmClient)
	} else {
		chatModel, err := component.NewChatModel(ctx, &cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("初始化 ChatModel 失败: %w", err)
		}
		genClient = providers.NewEinoClient(chatModel)
	}

	var voice storytools.VoiceProvider = providers.NewNopVoiceProvider()
	if cfg.TTS.AccessToken != "" {
		ttsClient, err := tts.NewClient(&cfg.TTS)
		if err != nil {
			return nil, fmt.Errorf("初始化 TTS 客户端失败: %w", err)
		}
		voice = providers.NewVolcanoVoiceProvider(ttsClient)
	}

	var repo storyrepo.StoryRepository
	if db != nil {
		repo = storyrepo.NewStoryRepo(db)
	}

	return NewStoryService(repo, redisCache, genClient, voice, cfg), nil
}

// GetStory 获取故事生成记录（优先读缓存）
func (s *storyService) GetStory(ctx context.Context, storyID string) (*story.Story, error) {
	if s.cache != nil {
		var cached story.Story
		if err := s.cache.Get(ctx, cache.StoryCacheKey(storyID), &cached); err == nil {
			return &cached, nil
		}
	}
	if s.repo == nil {
		return nil, fmt.Errorf("story repository is not configured")
	}
	return s.repo.FindByID(ctx, storyID)
}

// ListStories 按用户分页查询故事记录
func (s *storyService) ListStories(ctx context.Context, userID string, page, pageSize int64) ([]*story.Story, int64, error) {
	if s.repo == nil {
		return nil, 0, fmt.Errorf("story repository is not configured")
	}
	return s.repo.ListByUser(ctx, userID, page, pageSize)
}

// ListTemplates 列出全部叙事模板
func (s *storyService) ListTemplates() []story.Template {
	return storytools.ListTemplates()
}
