package story

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Story 故事生成运行记录
// 每次流水线运行持久化一条记录（运行元数据与场景结果，不含生成的媒体资产）
type Story struct {
	ID          string        `bson:"id" json:"id"`                                   // 故事ID（UUID）
	UserID      string        `bson:"user_id" json:"user_id"`                         // 用户ID
	TemplateID  string        `bson:"template_id" json:"template_id"`                 // 使用的模板ID
	Topic       string        `bson:"topic" json:"topic"`                             // 主题
	Title       string        `bson:"title" json:"title"`                             // 标题
	Script      string        `bson:"script,omitempty" json:"script,omitempty"`       // 剧本文本
	Scenes      []Scene       `bson:"scenes,omitempty" json:"scenes,omitempty"`       // 场景列表
	Duration    int           `bson:"duration" json:"duration"`                       // 请求的总时长（秒）
	Language    string        `bson:"language" json:"language"`                       // 旁白语言
	AspectRatio string        `bson:"aspect_ratio,omitempty" json:"aspect_ratio,omitempty"`
	Status      StoryStatus   `bson:"status" json:"status"`                           // pending/running/completed/failed
	Stage       PipelineStage `bson:"stage" json:"stage"`                             // 当前（或失败时所在）阶段
	Error       string        `bson:"error,omitempty" json:"error,omitempty"`         // 失败原因
	Warnings    []string      `bson:"warnings,omitempty" json:"warnings,omitempty"`   // 非致命告警（如时长分配取整）
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at"`
	CompletedAt *time.Time    `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// Collection 返回集合名称
func (s *Story) Collection() string {
	return "stories"
}

// EnsureIndexes 创建和维护索引
func (s *Story) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(s.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_user_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_status"),
		},
		{
			Keys:    bson.D{{Key: "template_id", Value: 1}},
			Options: options.Index().SetName("idx_template_id"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// StoryContent 返回给调用方的故事内容
type StoryContent struct {
	Title    string  `json:"title"`
	Script   string  `json:"script"`
	Scenes   []Scene `json:"scenes"`
	Duration int     `json:"duration"`
}

// StoryGenerationResult 一次流水线运行的最终结果
// 返回后不可变；失败时 Story 恒为 nil，不存在半成品
type StoryGenerationResult struct {
	Success  bool          `json:"success"`
	StoryID  string        `json:"story_id,omitempty"`
	Story    *StoryContent `json:"story,omitempty"`
	Error    string        `json:"error,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}
