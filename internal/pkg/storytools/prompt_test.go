package storytools

import (
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"storia/internal/model/story"
)

func TestBuildPrompt(t *testing.T) {
	Convey("BuildPrompt 组装各阶段提示词", t, func() {
		tpl, _ := GetTemplate("storytelling")
		settings := &story.GenerationSettings{
			TemplateID: "storytelling",
			Topic:      "a lighthouse keeper and a lost ship",
			Duration:   60,
			Language:   "en",
			ImageStyle: "watercolor illustration",
		}
		cc, _, err := BuildComputedConstraints(settings, tpl)
		So(err, ShouldBeNil)

		input := &PromptInput{Settings: settings, Template: tpl, Constraints: cc}

		Convey("剧本提示词包含主题、时长和字数目标", func() {
			bundle, err := BuildPrompt(PromptScript, input)
			So(err, ShouldBeNil)
			So(bundle.Schema, ShouldBeNil)
			So(bundle.User, ShouldContainSubstring, settings.Topic)
			So(bundle.User, ShouldContainSubstring, "60 second")
			So(bundle.User, ShouldContainSubstring, fmt.Sprintf("%d words", cc.TotalWords))
		})

		Convey("场景拆分提示词锁死场景数和每场时长", func() {
			input.Script = "Once there was a keeper who watched the sea."
			bundle, err := BuildPrompt(PromptScenes, input)
			So(err, ShouldBeNil)
			So(bundle.Schema, ShouldNotBeNil)
			So(bundle.SchemaName, ShouldEqual, SceneBreakdownSchemaName)
			So(bundle.User, ShouldContainSubstring, fmt.Sprintf("EXACTLY %d scenes", cc.SceneCount))
			So(bundle.User, ShouldContainSubstring, fmt.Sprintf("sum to exactly %d seconds", cc.TotalDuration))
			So(bundle.User, ShouldContainSubstring, input.Script)
			for i, d := range cc.Durations {
				So(bundle.User, ShouldContainSubstring, fmt.Sprintf("Scene %d: %d seconds", i+1, d))
			}
		})

		Convey("同样的输入产出同样的提示词", func() {
			input.Script = "Once there was a keeper."
			a, err := BuildPrompt(PromptScenes, input)
			So(err, ShouldBeNil)
			b, err := BuildPrompt(PromptScenes, input)
			So(err, ShouldBeNil)
			So(a.User, ShouldEqual, b.User)
			So(a.System, ShouldEqual, b.System)
		})

		Convey("润色提示词带上每个场景的画面描述", func() {
			input.Scenes = []story.Scene{
				{SceneNumber: 1, Duration: 8, Description: "a lighthouse at dusk"},
				{SceneNumber: 2, Duration: 7, Description: "waves crashing on rocks"},
			}
			bundle, err := BuildPrompt(PromptEnhancement, input)
			So(err, ShouldBeNil)
			So(bundle.SchemaName, ShouldEqual, EnhancementSchemaName)
			So(bundle.User, ShouldContainSubstring, "a lighthouse at dusk")
			So(bundle.User, ShouldContainSubstring, "waves crashing on rocks")
			So(bundle.User, ShouldContainSubstring, settings.ImageStyle)
		})

		Convey("未知阶段报错", func() {
			_, err := BuildPrompt(PromptKind("unknown"), input)
			So(err, ShouldNotBeNil)
		})

		Convey("输入不完整时报错而不是 panic", func() {
			_, err := BuildPrompt(PromptScript, nil)
			So(err, ShouldNotBeNil)
			_, err = BuildPrompt(PromptScenes, &PromptInput{Settings: settings, Template: tpl})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("指派值越出词表时提示词不再宣布词表限制", t, func() {
		tpl, _ := GetTemplate("storytelling")
		settings := &story.GenerationSettings{
			TemplateID: "storytelling",
			Topic:      "a lighthouse keeper",
			Duration:   13,
			Language:   "en",
			Constraints: &story.ModelConstraints{
				SupportedDurations: []int{5},
			},
		}
		cc, _, err := BuildComputedConstraints(settings, tpl)
		So(err, ShouldBeNil)

		input := &PromptInput{Settings: settings, Template: tpl, Constraints: cc}
		input.Script = "Once there was a keeper who watched the sea."
		bundle, err := BuildPrompt(PromptScenes, input)
		So(err, ShouldBeNil)
		So(bundle.User, ShouldNotContainSubstring, "must be one of")
		So(bundle.User, ShouldContainSubstring, "verbatim")
	})

	Convey("独立内容模板的场景拆分提示词", t, func() {
		tpl, _ := GetTemplate("asmr")
		settings := &story.GenerationSettings{
			TemplateID: "asmr",
			Topic:      "soap cutting close-ups",
			Duration:   30,
			Language:   "en",
		}
		cc, _, err := BuildComputedConstraints(settings, tpl)
		So(err, ShouldBeNil)

		bundle, err := BuildPrompt(PromptScenes, &PromptInput{Settings: settings, Template: tpl, Constraints: cc})
		So(err, ShouldBeNil)

		Convey("要求旁白为空串，且不依赖脚本", func() {
			So(bundle.User, ShouldContainSubstring, "narration to an empty string")
			So(bundle.User, ShouldContainSubstring, settings.Topic)
			So(bundle.User, ShouldNotContainSubstring, "BEGIN SCRIPT")
		})
	})
}

func TestSceneBreakdownSchema(t *testing.T) {
	Convey("SceneBreakdownSchema 把约束编进 Schema", t, func() {
		tpl, _ := GetTemplate("storytelling")
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

		schema := SceneBreakdownSchema(cc)
		So(schema, ShouldNotBeNil)

		scenes, ok := schema.Properties.Get("scenes")
		So(ok, ShouldBeTrue)
		So(*scenes.MinItems, ShouldEqual, uint64(cc.SceneCount))
		So(*scenes.MaxItems, ShouldEqual, uint64(cc.SceneCount))

		Convey("时长用枚举钉死在支持集合", func() {
			duration, ok := scenes.Items.Properties.Get("duration")
			So(ok, ShouldBeTrue)
			So(len(duration.Enum), ShouldEqual, 3)
		})

		Convey("音轨锁定时 soundDescription 是 const 空串", func() {
			sound, ok := scenes.Items.Properties.Get("soundDescription")
			So(ok, ShouldBeTrue)
			So(sound.Const, ShouldEqual, "")
		})

		Convey("汇总字段 const 成期望值", func() {
			total, ok := schema.Properties.Get("totalDuration")
			So(ok, ShouldBeTrue)
			So(total.Const, ShouldEqual, cc.TotalDuration)
		})
	})

	Convey("分配器补丁值被并进 Schema 的时长约束", t, func() {
		tpl, _ := GetTemplate("storytelling")

		Convey("有集合约束时枚举并上指派值", func() {
			cc, warnings, err := BuildComputedConstraints(&story.GenerationSettings{
				TemplateID: "storytelling",
				Topic:      "a lighthouse keeper",
				Duration:   13,
				Language:   "en",
				Constraints: &story.ModelConstraints{
					SupportedDurations: []int{5},
				},
			}, tpl)
			So(err, ShouldBeNil)
			So(len(warnings), ShouldBeGreaterThanOrEqualTo, 1)

			schema := SceneBreakdownSchema(cc)
			scenes, _ := schema.Properties.Get("scenes")
			duration, _ := scenes.Items.Properties.Get("duration")
			enum := make(map[any]bool, len(duration.Enum))
			for _, v := range duration.Enum {
				enum[v] = true
			}
			for _, d := range cc.Durations {
				So(enum[d], ShouldBeTrue)
			}
		})

		Convey("无集合约束时上界抬到指派的最大值", func() {
			cc, _, err := BuildComputedConstraints(&story.GenerationSettings{
				TemplateID: "storytelling",
				Topic:      "a lighthouse keeper",
				Duration:   300,
				Language:   "en",
			}, tpl)
			So(err, ShouldBeNil)

			maxAssigned := 0
			for _, d := range cc.Durations {
				if d > maxAssigned {
					maxAssigned = d
				}
			}
			So(maxAssigned, ShouldBeGreaterThan, cc.DurationMax)

			schema := SceneBreakdownSchema(cc)
			scenes, _ := schema.Properties.Get("scenes")
			duration, _ := scenes.Items.Properties.Get("duration")
			So(string(duration.Maximum), ShouldEqual, fmt.Sprintf("%d", maxAssigned))
		})
	})
}
