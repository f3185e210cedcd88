package story

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"storia/internal/model/story"
)

// GenerateBatch 并发生成一批故事
//
// 并发度取 maxConcurrency，<=0 时回落到配置的默认值；结果切片与入参
// 顺序一一对应。单个故事的失败已经被 GenerateStory 折叠成结果，
// 这里不做任何聚合判断，也不因个别失败提前终止
func (s *storyService) GenerateBatch(
	ctx context.Context,
	userID string,
	batch []*story.GenerationSettings,
	maxConcurrency int,
) []*story.StoryGenerationResult {
	if len(batch) == 0 {
		return nil
	}

	if maxConcurrency <= 0 {
		maxConcurrency = 4
		if s.cfg != nil && s.cfg.Story.MaxConcurrency > 0 {
			maxConcurrency = s.cfg.Story.MaxConcurrency
		}
	}
	if maxConcurrency > len(batch) {
		maxConcurrency = len(batch)
	}

	start := time.Now()
	log.Info().
		Str("user_id", userID).
		Int("count", len(batch)).
		Int("concurrency", maxConcurrency).
		Msg("批量故事生成开始")

	results := make([]*story.StoryGenerationResult, len(batch))
	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i, settings := range batch {
		wg.Add(1)
		go func(idx int, settings *story.GenerationSettings) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = s.GenerateStory(ctx, userID, settings)
		}(i, settings)
	}
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r != nil && r.Success {
			succeeded++
		}
	}
	log.Info().
		Str("user_id", userID).
		Int("count", len(batch)).
		Int("succeeded", succeeded).
		Dur("elapsed", time.Since(start)).
		Msg("批量故事生成结束")

	return results
}
