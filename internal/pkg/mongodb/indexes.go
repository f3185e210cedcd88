package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"storia/internal/model/story"
)

// EnsureIndexes 创建所有模型的索引
// 统一入口，应用启动时调用一次
func EnsureIndexes(db *mongo.Database) error {
	ctx := context.Background()

	models := []Model{
		&story.Story{},
	}

	return EnsureAllIndexes(ctx, db, models...)
}
