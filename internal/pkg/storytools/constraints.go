package storytools

import (
	"math"
	"strings"

	"storia/internal/model/story"
)

// 语言相关的口播语速（词/秒）
// 用于把场景时长换算成旁白字数目标
const (
	wordsPerSecondArabic  = 2.0
	wordsPerSecondDefault = 2.5
)

// WordsPerSecond 返回某语言的口播语速
func WordsPerSecond(language string) float64 {
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "ar" || strings.HasPrefix(lang, "ar-") || lang == "arabic" {
		return wordsPerSecondArabic
	}
	return wordsPerSecondDefault
}

// ComputedConstraints 一次生成运行的全部派生约束
//
// 提示词正文和响应 Schema 都只从这里读数，保证两边永不漂移
// （字数目标、时长集合、场景数只在这一处计算）
type ComputedConstraints struct {
	SceneCount       int     // 场景数
	Durations        []int   // 按场景分配好的时长（和恒等于 TotalDuration）
	AllowedDurations []int   // 合法的单场景时长集合（无模型约束时为 nil）
	DurationMin      int     // 无约束时的单场景时长下限
	DurationMax      int     // 无约束时的单场景时长上限
	TotalDuration    int     // 请求的总时长（秒）
	WordsPerScene    []int   // 每个场景的旁白字数目标
	TotalWords       int     // 整条旁白的字数目标
	WordsPerSec      float64 // 使用的语速
	Language         string  // 旁白语言
	NarrationLocked  bool    // true 时旁白必须为空串（独立内容模板）
	SoundLocked      bool    // true 时音效描述必须为空串（目标模型自带音轨）
}

// BuildComputedConstraints 从生成参数派生约束
// 内部完成场景数决策和时长分配；分配产生的取整告警原样带出
func BuildComputedConstraints(settings *story.GenerationSettings, tpl *story.Template) (*ComputedConstraints, []string, error) {
	sceneCount, err := OptimalSceneCount(settings.Duration, tpl, settings.Constraints)
	if err != nil {
		return nil, nil, err
	}

	durations, warnings, err := AllocateDurations(settings.Duration, sceneCount, settings.Constraints)
	if err != nil {
		return nil, nil, err
	}

	wps := WordsPerSecond(settings.Language)
	wordsPerScene := make([]int, sceneCount)
	for i, d := range durations {
		wordsPerScene[i] = int(math.Round(float64(d) * wps))
	}

	cc := &ComputedConstraints{
		SceneCount:    sceneCount,
		Durations:     durations,
		TotalDuration: settings.Duration,
		WordsPerScene: wordsPerScene,
		TotalWords:    int(math.Round(float64(settings.Duration) * wps)),
		WordsPerSec:   wps,
		Language:      settings.Language,
		DurationMin:   SceneDurationMin,
		DurationMax:   SceneDurationMax,

		NarrationLocked: tpl.IsIndependent(),
	}

	if mc := settings.Constraints; mc != nil {
		cc.AllowedDurations = append([]int(nil), mc.SupportedDurations...)
		cc.SoundLocked = mc.HasAudio
	}

	return cc, warnings, nil
}

// DurationInVocabulary 判断时长是否落在常规词表里
// （有模型约束时为合法集合，无约束时为上下界区间）
func (cc *ComputedConstraints) DurationInVocabulary(d int) bool {
	if len(cc.AllowedDurations) > 0 {
		for _, v := range cc.AllowedDurations {
			if v == d {
				return true
			}
		}
		return false
	}
	return d >= cc.DurationMin && d <= cc.DurationMax
}

// SceneDurationAllowed 判断第 index 个场景的时长是否可接受
// 分配器为守住总时长可能指派词表之外的值（伴随告警），
// 指派值与词表内的值同样合法，否则校验会把自家分配结果拦下来
func (cc *ComputedConstraints) SceneDurationAllowed(index, d int) bool {
	if index >= 0 && index < len(cc.Durations) && cc.Durations[index] == d {
		return true
	}
	return cc.DurationInVocabulary(d)
}
