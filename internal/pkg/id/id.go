package id

import (
	"github.com/google/uuid"
)

// New 生成新的标识符（UUID v4 字符串）
// 故事记录和请求追踪共用同一套格式
func New() string {
	return uuid.New().String()
}

// IsValid 校验标识符格式
// 外部传入的ID（路径参数、X-Request-ID）先过这里再用
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
