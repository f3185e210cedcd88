package story

// Scene 场景
// 一个故事被拆分为若干独立的计时单元，场景拆分阶段创建，
// 后续阶段只逐步充实字段（imagePrompt/videoPrompt/voiceURL 等），从不替换整条记录
//
// JSON 字段名即对外契约：渲染/导出协作方按这些字段消费
type Scene struct {
	SceneNumber      int    `bson:"scene_number" json:"sceneNumber"`                             // 场景编号（1 起、连续、故事内唯一）
	Duration         int    `bson:"duration" json:"duration"`                                    // 时长（秒）
	Description      string `bson:"description" json:"description"`                              // 画面描述（始终英文）
	SoundDescription string `bson:"sound_description" json:"soundDescription"`                   // 音效描述（英文拟声短语；目标模型自带音轨时为空）
	Narration        string `bson:"narration" json:"narration"`                                  // 旁白文本（独立内容模板恒为空串）
	ImagePrompt      string `bson:"image_prompt,omitempty" json:"imagePrompt,omitempty"`         // 图片生成提示词
	VideoPrompt      string `bson:"video_prompt,omitempty" json:"videoPrompt,omitempty"`         // 视频生成提示词
	AnimationName    string `bson:"animation_name,omitempty" json:"animationName,omitempty"`     // 静态图动画名
	EffectName       string `bson:"effect_name,omitempty" json:"effectName,omitempty"`           // 特效名
	TransitionToNext string `bson:"transition_to_next,omitempty" json:"transitionToNext,omitempty"` // 转场名
	VoiceURL         string `bson:"voice_url,omitempty" json:"voiceURL,omitempty"`               // 语音合成结果地址（语音阶段填充）
	VoiceDuration    float64 `bson:"voice_duration,omitempty" json:"voiceDuration,omitempty"`    // 语音时长（秒）
}

// TotalDuration 计算场景列表的总时长
func TotalDuration(scenes []Scene) int {
	total := 0
	for _, sc := range scenes {
		total += sc.Duration
	}
	return total
}
