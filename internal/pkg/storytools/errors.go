package storytools

import "fmt"

// 错误分类
//   - InvalidSettingsError: 入参非法，任何网络调用之前就能发现，永不重试
//   - GenerationCallError:  文本生成服务不可达或返回无法解析的内容
//   - SchemaValidationError: 返回的 JSON 语法正确但违反硬性约束
//   - PipelineStageError:   包装上述错误并标注失败阶段
// 编排层统一把它们折叠成最终的 StoryGenerationResult，不向调用方抛出

// InvalidSettingsError 生成参数非法
type InvalidSettingsError struct {
	Field  string // 出错的字段
	Reason string
}

func (e *InvalidSettingsError) Error() string {
	return fmt.Sprintf("invalid settings: %s: %s", e.Field, e.Reason)
}

// NewInvalidSettingsError 创建参数错误
func NewInvalidSettingsError(field, reason string) *InvalidSettingsError {
	return &InvalidSettingsError{Field: field, Reason: reason}
}

// GenerationCallError 调用文本生成服务失败
// 是否重试由适配器自行决定；到达编排层的实例对该阶段而言是致命的
type GenerationCallError struct {
	Op  string // 失败的操作（如 "chat completion"）
	Err error
}

func (e *GenerationCallError) Error() string {
	return fmt.Sprintf("generation call failed: %s: %v", e.Op, e.Err)
}

func (e *GenerationCallError) Unwrap() error {
	return e.Err
}

// NewGenerationCallError 创建生成调用错误
func NewGenerationCallError(op string, err error) *GenerationCallError {
	return &GenerationCallError{Op: op, Err: err}
}

// SchemaValidationError 生成结果违反约束
// 始终携带违反的字段名和越界值，绝不静默修正
type SchemaValidationError struct {
	Field  string // 违反的字段/不变量
	Reason string
	Value  any // 越界的实际值
}

func (e *SchemaValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("schema validation failed: %s: %s (got %v)", e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("schema validation failed: %s: %s", e.Field, e.Reason)
}

// NewSchemaValidationError 创建约束校验错误
func NewSchemaValidationError(field, reason string, value any) *SchemaValidationError {
	return &SchemaValidationError{Field: field, Reason: reason, Value: value}
}

// PipelineStageError 标注失败阶段的包装错误
type PipelineStageError struct {
	Stage string
	Err   error
}

func (e *PipelineStageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *PipelineStageError) Unwrap() error {
	return e.Err
}

// NewPipelineStageError 包装阶段错误
func NewPipelineStageError(stage string, err error) *PipelineStageError {
	return &PipelineStageError{Stage: stage, Err: err}
}
