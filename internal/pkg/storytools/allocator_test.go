package storytools

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"storia/internal/model/story"
)

func TestOptimalSceneCount(t *testing.T) {
	Convey("OptimalSceneCount 能给出符合模板边界的场景数", t, func() {
		narrated, _ := GetTemplate("storytelling")
		ambient, _ := GetTemplate("asmr")

		Convey("旁白内容按约 6 秒一场取整", func() {
			count, err := OptimalSceneCount(36, narrated, nil)
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 6)
		})

		Convey("独立内容按约 12 秒一场取整", func() {
			count, err := OptimalSceneCount(48, ambient, nil)
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 4)
		})

		Convey("结果永远落在模板边界内", func() {
			count, err := OptimalSceneCount(300, narrated, nil)
			So(err, ShouldBeNil)
			So(count, ShouldEqual, narrated.MaxScenes)

			count, err = OptimalSceneCount(10, narrated, nil)
			So(err, ShouldBeNil)
			So(count, ShouldEqual, narrated.MinScenes)
		})

		Convey("极短的独立内容收在下限 2 场", func() {
			count, err := OptimalSceneCount(15, ambient, nil)
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 2)
		})

		Convey("有模型约束时用最大支持时长做除数（场景尽量少）", func() {
			mc := &story.ModelConstraints{SupportedDurations: []int{4, 6, 8}}
			count, err := OptimalSceneCount(40, narrated, mc)
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 5) // ceil(40/8)
		})

		Convey("非正时长返回参数错误", func() {
			_, err := OptimalSceneCount(0, narrated, nil)
			So(err, ShouldNotBeNil)
			So(err, ShouldHaveSameTypeAs, &InvalidSettingsError{})
		})
	})
}

func TestAllocateDurations(t *testing.T) {
	Convey("AllocateDurations 的结果总和恒等于请求时长", t, func() {
		Convey("无约束时均分，余数摊给前面的场景", func() {
			durations, warnings, err := AllocateDurations(32, 5, nil)
			So(err, ShouldBeNil)
			So(warnings, ShouldBeEmpty)
			So(durations, ShouldResemble, []int{7, 7, 6, 6, 6})
		})

		Convey("整除时完全均分", func() {
			durations, _, err := AllocateDurations(60, 6, nil)
			So(err, ShouldBeNil)
			for _, d := range durations {
				So(d, ShouldEqual, 10)
			}
		})

		Convey("有约束且存在精确组合时每个时长都取自支持集合", func() {
			mc := &story.ModelConstraints{SupportedDurations: []int{4, 6, 8}}
			durations, warnings, err := AllocateDurations(40, 5, mc)
			So(err, ShouldBeNil)
			So(warnings, ShouldBeEmpty)

			sum := 0
			for _, d := range durations {
				So(mc.Supports(d), ShouldBeTrue)
				sum += d
			}
			So(sum, ShouldEqual, 40)
		})

		Convey("不存在精确组合时保总和、出告警", func() {
			mc := &story.ModelConstraints{SupportedDurations: []int{4}}
			durations, warnings, err := AllocateDurations(15, 3, mc)
			So(err, ShouldBeNil)
			So(warnings, ShouldNotBeEmpty)

			sum := 0
			for _, d := range durations {
				So(d, ShouldBeGreaterThanOrEqualTo, 1)
				sum += d
			}
			So(sum, ShouldEqual, 15)
		})

		Convey("总时长塞不下最少 1 秒一场时报错", func() {
			_, _, err := AllocateDurations(3, 5, nil)
			So(err, ShouldNotBeNil)
			So(err, ShouldHaveSameTypeAs, &InvalidSettingsError{})
		})

		Convey("场景数非正时报错", func() {
			_, _, err := AllocateDurations(30, 0, nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestBuildComputedConstraints(t *testing.T) {
	Convey("BuildComputedConstraints 派生一次运行的全部约束", t, func() {
		tpl, _ := GetTemplate("storytelling")

		Convey("字数目标按语速换算", func() {
			settings := &story.GenerationSettings{
				TemplateID: "storytelling",
				Topic:      "a lighthouse keeper",
				Duration:   60,
				Language:   "en",
			}
			cc, warnings, err := BuildComputedConstraints(settings, tpl)
			So(err, ShouldBeNil)
			So(warnings, ShouldBeEmpty)
			So(cc.WordsPerSec, ShouldEqual, 2.5)
			So(cc.TotalWords, ShouldEqual, 150)
			So(len(cc.WordsPerScene), ShouldEqual, cc.SceneCount)

			sum := 0
			for _, d := range cc.Durations {
				sum += d
			}
			So(sum, ShouldEqual, 60)
		})

		Convey("阿拉伯语语速 2.0 词/秒", func() {
			settings := &story.GenerationSettings{
				TemplateID: "storytelling",
				Topic:      "قصة قصيرة",
				Duration:   60,
				Language:   "ar",
			}
			cc, _, err := BuildComputedConstraints(settings, tpl)
			So(err, ShouldBeNil)
			So(cc.WordsPerSec, ShouldEqual, 2.0)
			So(cc.TotalWords, ShouldEqual, 120)
		})

		Convey("独立内容模板锁定旁白", func() {
			ambient, _ := GetTemplate("ambient-nature")
			settings := &story.GenerationSettings{
				TemplateID: "ambient-nature",
				Topic:      "rain forest at dawn",
				Duration:   30,
				Language:   "en",
			}
			cc, _, err := BuildComputedConstraints(settings, ambient)
			So(err, ShouldBeNil)
			So(cc.NarrationLocked, ShouldBeTrue)
			So(cc.SoundLocked, ShouldBeFalse)
		})

		Convey("模型自带音轨时锁定音效描述", func() {
			settings := &story.GenerationSettings{
				TemplateID: "storytelling",
				Topic:      "a lighthouse keeper",
				Duration:   40,
				Language:   "en",
				Constraints: &story.ModelConstraints{
					SupportedDurations: []int{4, 6, 8},
					HasAudio:           true,
				},
			}
			cc, _, err := BuildComputedConstraints(settings, tpl)
			So(err, ShouldBeNil)
			So(cc.SoundLocked, ShouldBeTrue)
			So(cc.AllowedDurations, ShouldResemble, []int{4, 6, 8})
		})
	})
}

func TestCountWords(t *testing.T) {
	Convey("CountWords 统计旁白字数", t, func() {
		Convey("拉丁文本按空白切词", func() {
			So(CountWords("the quick brown fox"), ShouldEqual, 4)
			So(CountWords("  spaced   out  "), ShouldEqual, 2)
			So(CountWords(""), ShouldEqual, 0)
		})

		Convey("中文文本走分词，标点不计", func() {
			count := CountWords("灯塔守望者的一天。")
			So(count, ShouldBeGreaterThan, 2)
		})
	})
}
