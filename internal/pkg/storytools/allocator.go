package storytools

import (
	"fmt"
	"math"

	"storia/internal/model/story"
)

// 时长分配的领域常量
const (
	SceneDurationMin = 3  // 无模型约束时的单场景时长下限（秒）
	SceneDurationMax = 20 // 无模型约束时的单场景时长上限（秒）

	AmbientMinScenes = 2 // 独立内容（ASMR/氛围类）的场景数下限
	AmbientMaxScenes = 6 // 独立内容的场景数上限
	MaxSceneCount    = 8 // 任何故事的场景数硬上限

	avgSceneDurationIndependent = 12 // 独立内容平均场景时长（秒）
	avgSceneDurationNarrated    = 6  // 旁白内容平均场景时长（秒）
)

// sceneCountBounds 返回模板生效的场景数边界
// 独立内容家族使用统一的 2-6 边界，覆盖模板自身的配置
func sceneCountBounds(tpl *story.Template) (int, int) {
	if tpl.IsIndependent() {
		return AmbientMinScenes, AmbientMaxScenes
	}
	minScenes, maxScenes := tpl.MinScenes, tpl.MaxScenes
	if maxScenes > MaxSceneCount {
		maxScenes = MaxSceneCount
	}
	return minScenes, maxScenes
}

// OptimalSceneCount 计算一个总时长应拆分的场景数
//
// 无模型约束时按平均场景时长取整；有约束时用支持集合中最大的时长做除数
// 取上整，使场景数最少（更少的场景意味着更少的下游渲染调用），再钳制到模板边界
func OptimalSceneCount(totalDuration int, tpl *story.Template, mc *story.ModelConstraints) (int, error) {
	if totalDuration <= 0 {
		return 0, NewInvalidSettingsError("duration", fmt.Sprintf("must be positive, got %d", totalDuration))
	}
	if tpl == nil {
		return 0, NewInvalidSettingsError("template", "template is required")
	}

	minScenes, maxScenes := sceneCountBounds(tpl)

	var count int
	if mc != nil && mc.MaxSupported() > 0 {
		count = (totalDuration + mc.MaxSupported() - 1) / mc.MaxSupported()
	} else {
		avg := avgSceneDurationNarrated
		if tpl.IsIndependent() {
			avg = avgSceneDurationIndependent
		}
		count = int(math.Round(float64(totalDuration) / float64(avg)))
	}

	if count < minScenes {
		count = minScenes
	}
	if count > maxScenes {
		count = maxScenes
	}
	return count, nil
}

// AllocateDurations 把总时长拆分成 sceneCount 个整数时长，和恒等于总时长
//
// 有模型约束时每个时长都必须取自 SupportedDurations；当不存在精确组合时，
// 取和最接近的组合并修正其中一个元素补齐差值，以告警而非失败收场
// （下游对 ±1 个场景时长的漂移容忍度远高于整条流水线失败）
//
// 返回: (时长列表, 告警列表, 错误)
func AllocateDurations(totalDuration, sceneCount int, mc *story.ModelConstraints) ([]int, []string, error) {
	if totalDuration <= 0 {
		return nil, nil, NewInvalidSettingsError("duration", fmt.Sprintf("must be positive, got %d", totalDuration))
	}
	if sceneCount <= 0 {
		return nil, nil, NewInvalidSettingsError("scene_count", fmt.Sprintf("must be positive, got %d", sceneCount))
	}
	if totalDuration < sceneCount {
		return nil, nil, NewInvalidSettingsError("duration",
			fmt.Sprintf("total %ds cannot be split into %d scenes of at least 1s", totalDuration, sceneCount))
	}

	if mc == nil || len(mc.SupportedDurations) == 0 {
		return allocateUnconstrained(totalDuration, sceneCount), nil, nil
	}
	return allocateFromSet(totalDuration, sceneCount, mc)
}

// allocateUnconstrained 均分，余数摊到前面的场景
func allocateUnconstrained(totalDuration, sceneCount int) []int {
	base := totalDuration / sceneCount
	rem := totalDuration % sceneCount

	durations := make([]int, sceneCount)
	for i := range durations {
		durations[i] = base
		if i < rem {
			durations[i]++
		}
	}
	return durations
}

// allocateFromSet 在支持集合中搜索和恰为 totalDuration 的 sceneCount 元组合
// 集合规模是个位数、场景数 ≤ 8，穷举可行，无需整数规划
func allocateFromSet(totalDuration, sceneCount int, mc *story.ModelConstraints) ([]int, []string, error) {
	supported := append([]int(nil), mc.SupportedDurations...)
	// 降序：优先尝试长场景，精确解通常更快命中
	for i, j := 0, len(supported)-1; i < j; i, j = i+1, j-1 {
		supported[i], supported[j] = supported[j], supported[i]
	}

	minVal := supported[len(supported)-1]
	maxVal := supported[0]

	best := make([]int, 0, sceneCount)
	bestDiff := math.MaxInt

	acc := make([]int, 0, sceneCount)
	var dfs func(idx, sum int)
	dfs = func(idx, sum int) {
		if bestDiff == 0 {
			return
		}
		remaining := sceneCount - len(acc)
		if remaining == 0 {
			diff := sum - totalDuration
			if diff < 0 {
				diff = -diff
			}
			if diff < bestDiff {
				bestDiff = diff
				best = append(best[:0], acc...)
			}
			return
		}
		// 剪枝：剩余空位无论如何也到不到比当前最优更近的和
		lower := totalDuration - (sum + maxVal*remaining)
		upper := (sum + minVal*remaining) - totalDuration
		bound := 0
		if lower > 0 {
			bound = lower
		} else if upper > 0 {
			bound = upper
		}
		if bound >= bestDiff {
			return
		}
		for i := idx; i < len(supported); i++ {
			acc = append(acc, supported[i])
			dfs(i, sum+supported[i])
			acc = acc[:len(acc)-1]
		}
	}
	dfs(0, 0)

	durations := append([]int(nil), best...)
	if bestDiff == 0 {
		return durations, nil, nil
	}

	// 无精确组合：修正第一个（最长的）场景补齐差值，保住总时长守恒
	var warnings []string
	sum := 0
	for _, d := range durations {
		sum += d
	}
	warnings = append(warnings, fmt.Sprintf(
		"no exact combination of supported durations %v sums to %ds with %d scenes, nearest sum is %ds",
		mc.SupportedDurations, totalDuration, sceneCount, sum))

	diff := totalDuration - sum
	for i := 0; i < len(durations) && diff != 0; i++ {
		if diff > 0 {
			durations[i] += diff
			diff = 0
		} else {
			// 缩减时保住每个场景至少 1 秒
			cut := -diff
			if max := durations[i] - 1; cut > max {
				cut = max
			}
			durations[i] -= cut
			diff += cut
		}
	}
	for i, d := range durations {
		if !mc.Supports(d) {
			warnings = append(warnings, fmt.Sprintf(
				"scene %d duration %ds falls outside the supported set to preserve the total of %ds",
				i+1, d, totalDuration))
		}
	}
	return durations, warnings, nil
}
