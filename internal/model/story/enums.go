package story

// StoryStatus 故事生成任务状态
type StoryStatus string

const (
	StoryStatusPending   StoryStatus = "pending"   // 待处理
	StoryStatusRunning   StoryStatus = "running"   // 生成中
	StoryStatusCompleted StoryStatus = "completed" // 已完成
	StoryStatusFailed    StoryStatus = "failed"    // 失败
)

// String 返回状态的字符串表示
func (s StoryStatus) String() string {
	return string(s)
}

// PipelineStage 流水线阶段
// 单个故事内严格顺序执行：script → scenes → enhance → voice
type PipelineStage string

const (
	StagePending PipelineStage = "pending" // 尚未开始
	StageScript  PipelineStage = "script"  // 剧本撰写
	StageScenes  PipelineStage = "scenes"  // 场景拆分
	StageEnhance PipelineStage = "enhance" // 视觉/音效增强
	StageVoice   PipelineStage = "voice"   // 语音合成（可选）
	StageDone    PipelineStage = "done"    // 完成
)

// String 返回阶段的字符串表示
func (s PipelineStage) String() string {
	return string(s)
}

// ContentMode 模板内容模式
// narrated 的场景由旁白串联；independent 的场景彼此独立、无旁白（如 ASMR/氛围类）
type ContentMode string

const (
	ContentModeNarrated    ContentMode = "narrated"
	ContentModeIndependent ContentMode = "independent"
)

// MediaType 场景媒体类型
type MediaType string

const (
	MediaTypeStatic   MediaType = "static"   // 静态图片
	MediaTypeAnimated MediaType = "animated" // 动态视频
)
