package story

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storia/internal/model/story"
)

// StoryRepository 故事仓库接口（供 service 层依赖）
type StoryRepository interface {
	Create(ctx context.Context, s *story.Story) error
	FindByID(ctx context.Context, id string) (*story.Story, error)
	Update(ctx context.Context, s *story.Story) error
	ListByUser(ctx context.Context, userID string, page, pageSize int64) ([]*story.Story, int64, error)
}

// StoryRepo 故事仓库
type StoryRepo struct {
	coll *mongo.Collection
}

// NewStoryRepo 创建故事仓库
func NewStoryRepo(db *mongo.Database) *StoryRepo {
	var s story.Story
	return &StoryRepo{coll: db.Collection(s.Collection())}
}

// Create 创建故事记录
func (r *StoryRepo) Create(ctx context.Context, s *story.Story) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, s)
	return err
}

// FindByID 根据ID查询
func (r *StoryRepo) FindByID(ctx context.Context, id string) (*story.Story, error) {
	var s story.Story
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Update 整条覆盖更新（按 id 定位）
func (r *StoryRepo) Update(ctx context.Context, s *story.Story) error {
	s.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"id": s.ID}, s)
	return err
}

// ListByUser 按用户分页查询（按创建时间倒序）
func (r *StoryRepo) ListByUser(ctx context.Context, userID string, page, pageSize int64) ([]*story.Story, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip((page - 1) * pageSize).
		SetLimit(pageSize)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var stories []*story.Story
	if err := cur.All(ctx, &stories); err != nil {
		return nil, 0, err
	}
	return stories, total, nil
}
