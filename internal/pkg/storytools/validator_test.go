package storytools

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"storia/internal/model/story"
)

// breakdownJSON 按约束构造一份合法的场景拆分响应
func breakdownJSON(cc *ComputedConstraints, mutate func(*SceneBreakdownContent)) string {
	content := &SceneBreakdownContent{
		TotalScenes:   cc.SceneCount,
		TotalDuration: cc.TotalDuration,
	}
	for i, d := range cc.Durations {
		sc := &SceneBreakdownScene{
			SceneNumber: i + 1,
			Duration:    d,
			Description: fmt.Sprintf("A wide shot of scene %d, golden hour light", i+1),
		}
		if !cc.SoundLocked {
			sc.SoundDescription = "wind rustling, distant waves"
		}
		if !cc.NarrationLocked {
			words := make([]string, cc.WordsPerScene[i])
			for w := range words {
				words[w] = "word"
			}
			sc.Narration = strings.Join(words, " ")
		}
		content.Scenes = append(content.Scenes, sc)
	}
	if mutate != nil {
		mutate(content)
	}
	raw, _ := json.Marshal(content)
	return string(raw)
}

func narratedConstraints(duration int) *ComputedConstraints {
	tpl, _ := GetTemplate("storytelling")
	cc, _, err := BuildComputedConstraints(&story.GenerationSettings{
		TemplateID: "storytelling",
		Topic:      "a lighthouse keeper",
		Duration:   duration,
		Language:   "en",
	}, tpl)
	So(err, ShouldBeNil)
	return cc
}

func TestCleanJSONContent(t *testing.T) {
	Convey("CleanJSONContent 剥离模型输出里的噪声", t, func() {
		Convey("剥掉 markdown 代码块", func() {
			raw := "```json\n{\"a\": 1}\n```"
			So(CleanJSONContent(raw), ShouldEqual, `{"a": 1}`)
		})

		Convey("剥掉 JSON 前后的说明文字", func() {
			raw := "Here is the result:\n{\"a\": 1}\nHope it helps!"
			So(CleanJSONContent(raw), ShouldEqual, `{"a": 1}`)
		})

		Convey("干净的 JSON 原样返回", func() {
			So(CleanJSONContent(`{"a": 1}`), ShouldEqual, `{"a": 1}`)
		})
	})
}

func TestParseSceneBreakdown(t *testing.T) {
	Convey("ParseSceneBreakdown 解析并校验场景拆分响应", t, func() {
		cc := narratedConstraints(60)

		Convey("合法响应解析成场景列表", func() {
			scenes, _, err := ParseSceneBreakdown(breakdownJSON(cc, nil), cc)
			So(err, ShouldBeNil)
			So(len(scenes), ShouldEqual, cc.SceneCount)
			So(story.TotalDuration(scenes), ShouldEqual, cc.TotalDuration)
			for i, sc := range scenes {
				So(sc.SceneNumber, ShouldEqual, i+1)
			}
		})

		Convey("markdown 包裹的响应同样可解析", func() {
			raw := "```json\n" + breakdownJSON(cc, nil) + "\n```"
			scenes, _, err := ParseSceneBreakdown(raw, cc)
			So(err, ShouldBeNil)
			So(len(scenes), ShouldEqual, cc.SceneCount)
		})

		Convey("场景数不符时报 scenes 字段错误", func() {
			raw := breakdownJSON(cc, func(c *SceneBreakdownContent) {
				c.Scenes = c.Scenes[:len(c.Scenes)-1]
			})
			_, _, err := ParseSceneBreakdown(raw, cc)
			So(err, ShouldNotBeNil)
			var verr *SchemaValidationError
			So(err, ShouldHaveSameTypeAs, verr)
			So(err.(*SchemaValidationError).Field, ShouldEqual, "scenes")
		})

		Convey("编号断档时报 sceneNumber 字段错误", func() {
			raw := breakdownJSON(cc, func(c *SceneBreakdownContent) {
				c.Scenes[1].SceneNumber = 5
			})
			_, _, err := ParseSceneBreakdown(raw, cc)
			So(err, ShouldNotBeNil)
			So(err.(*SchemaValidationError).Field, ShouldEqual, "sceneNumber")
		})

		Convey("总和漂移时报 duration 字段错误并带实际值", func() {
			raw := breakdownJSON(cc, func(c *SceneBreakdownContent) {
				c.Scenes[0].Duration++
				c.Scenes[1].Duration--
				c.Scenes[0].Duration += 2
			})
			_, _, err := ParseSceneBreakdown(raw, cc)
			So(err, ShouldNotBeNil)
			verr := err.(*SchemaValidationError)
			So(verr.Field, ShouldEqual, "duration")
			So(verr.Value, ShouldNotBeNil)
		})

		Convey("totalDuration 汇总字段与请求不一致时报错", func() {
			raw := breakdownJSON(cc, func(c *SceneBreakdownContent) {
				c.TotalDuration = cc.TotalDuration + 5
			})
			_, _, err := ParseSceneBreakdown(raw, cc)
			So(err, ShouldNotBeNil)
			So(err.(*SchemaValidationError).Field, ShouldEqual, "totalDuration")
		})

		Convey("无法解析的内容报 response 错误", func() {
			_, _, err := ParseSceneBreakdown("not json at all", cc)
			So(err, ShouldNotBeNil)
			So(err.(*SchemaValidationError).Field, ShouldEqual, "response")
		})

		Convey("未锁定音效时空音效被拒绝", func() {
			raw := breakdownJSON(cc, func(c *SceneBreakdownContent) {
				c.Scenes[0].SoundDescription = ""
			})
			_, _, err := ParseSceneBreakdown(raw, cc)
			So(err, ShouldNotBeNil)
			So(err.(*SchemaValidationError).Field, ShouldEqual, "soundDescription")
		})

		Convey("音效像完整句子时只告警不拦截", func() {
			raw := breakdownJSON(cc, func(c *SceneBreakdownContent) {
				c.Scenes[0].SoundDescription = "The wind was rustling through the trees."
			})
			scenes, warnings, err := ParseSceneBreakdown(raw, cc)
			So(err, ShouldBeNil)
			So(len(scenes), ShouldEqual, cc.SceneCount)
			So(len(warnings), ShouldBeGreaterThanOrEqualTo, 1)
		})
	})

	Convey("独立内容模板的旁白锁定", t, func() {
		tpl, _ := GetTemplate("asmr")
		cc, _, err := BuildComputedConstraints(&story.GenerationSettings{
			TemplateID: "asmr",
			Topic:      "soap cutting",
			Duration:   30,
			Language:   "en",
		}, tpl)
		So(err, ShouldBeNil)
		So(cc.NarrationLocked, ShouldBeTrue)

		Convey("带旁白的响应被拒绝", func() {
			raw := breakdownJSON(cc, func(c *SceneBreakdownContent) {
				c.Scenes[0].Narration = "sneaked-in narration"
			})
			_, _, err := ParseSceneBreakdown(raw, cc)
			So(err, ShouldNotBeNil)
			So(err.(*SchemaValidationError).Field, ShouldEqual, "narration")
		})

		Convey("全空旁白的响应通过", func() {
			scenes, _, err := ParseSceneBreakdown(breakdownJSON(cc, nil), cc)
			So(err, ShouldBeNil)
			for _, sc := range scenes {
				So(sc.Narration, ShouldBeEmpty)
			}
		})
	})

	Convey("模型约束下的时长集合校验", t, func() {
		tpl, _ := GetTemplate("storytelling")
		cc, _, err := BuildComputedConstraints(&story.GenerationSettings{
			TemplateID: "storytelling",
			Topic:      "a lighthouse keeper",
			Duration:   40,
			Language:   "en",
			Constraints: &story.ModelConstraints{
				SupportedDurations: []int{4, 6, 8},
			},
		}, tpl)
		So(err, ShouldBeNil)

		Convey("集合外的时长被拒绝", func() {
			raw := breakdownJSON(cc, func(c *SceneBreakdownContent) {
				// 5 不在集合里；同时保持总和不变以命中集合校验
				c.Scenes[0].Duration = 5
				c.Scenes[1].Duration += cc.Durations[0] - 5
			})
			_, _, err := ParseSceneBreakdown(raw, cc)
			So(err, ShouldNotBeNil)
			So(err.(*SchemaValidationError).Field, ShouldEqual, "duration")
		})
	})

	Convey("分配器的指派值始终能通过校验", t, func() {
		Convey("集合凑不出总时长时补丁值同样合法", func() {
			// 集合只有 5 秒而总时长 13 秒，分配器必然给出集合外的补丁值
			tpl, _ := GetTemplate("storytelling")
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

			scenes, _, err := ParseSceneBreakdown(breakdownJSON(cc, nil), cc)
			So(err, ShouldBeNil)
			So(story.TotalDuration(scenes), ShouldEqual, 13)
		})

		Convey("长总时长下超出常规上限的指派值合法", func() {
			// 300 秒配最多 8 个场景，均分后单场超过 20 秒上限
			cc := narratedConstraints(300)
			outOfBounds := false
			for _, d := range cc.Durations {
				if d > cc.DurationMax {
					outOfBounds = true
				}
			}
			So(outOfBounds, ShouldBeTrue)

			scenes, _, err := ParseSceneBreakdown(breakdownJSON(cc, nil), cc)
			So(err, ShouldBeNil)
			So(story.TotalDuration(scenes), ShouldEqual, 300)
		})

		Convey("指派豁免只对对应位置生效", func() {
			cc := narratedConstraints(300)
			raw := breakdownJSON(cc, func(c *SceneBreakdownContent) {
				// 总和守住但时长超界且不等于该位置的指派值
				c.Scenes[0].Duration = cc.Durations[0] + 10
				c.Scenes[1].Duration = cc.Durations[1] - 10
			})
			_, _, err := ParseSceneBreakdown(raw, cc)
			So(err, ShouldNotBeNil)
			So(err.(*SchemaValidationError).Field, ShouldEqual, "duration")
		})
	})
}

func TestApplyEnhancement(t *testing.T) {
	Convey("ApplyEnhancement 把润色提示词写回场景", t, func() {
		scenes := []story.Scene{
			{SceneNumber: 1, Duration: 5, Description: "a quiet harbor"},
			{SceneNumber: 2, Duration: 5, Description: "a storm rolling in"},
		}

		Convey("合法响应逐场景填充 imagePrompt", func() {
			raw := `{"scenes":[
				{"sceneNumber":1,"imagePrompt":"quiet harbor, golden hour, cinematic"},
				{"sceneNumber":2,"imagePrompt":"storm clouds over the sea, dramatic light"}
			]}`
			out, err := ApplyEnhancement(raw, scenes, false)
			So(err, ShouldBeNil)
			So(out[0].ImagePrompt, ShouldContainSubstring, "harbor")
			So(out[1].ImagePrompt, ShouldContainSubstring, "storm")
			// 入参不被修改
			So(scenes[0].ImagePrompt, ShouldBeEmpty)
		})

		Convey("animated 场景缺 videoPrompt 时报错", func() {
			raw := `{"scenes":[
				{"sceneNumber":1,"imagePrompt":"quiet harbor","videoPrompt":"slow push in"},
				{"sceneNumber":2,"imagePrompt":"storm clouds"}
			]}`
			_, err := ApplyEnhancement(raw, scenes, true)
			So(err, ShouldNotBeNil)
			So(err.(*SchemaValidationError).Field, ShouldEqual, "videoPrompt")
		})

		Convey("条目数不符时报错", func() {
			raw := `{"scenes":[{"sceneNumber":1,"imagePrompt":"quiet harbor"}]}`
			_, err := ApplyEnhancement(raw, scenes, false)
			So(err, ShouldNotBeNil)
			So(err.(*SchemaValidationError).Field, ShouldEqual, "scenes")
		})
	})
}
