package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"storia/internal/config"
	"storia/internal/handler"
	storyHandler "storia/internal/handler/story"
	"storia/internal/pkg/cache"
	"storia/internal/pkg/mongodb"
	"storia/internal/server/middleware"
	storyService "storia/internal/service/story"
)

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	mongo  *mongodb.Client
	redis  *cache.RedisCache
}

// New 创建服务器实例
func New(cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// 初始化 MongoDB (可选)
	var mongoClient *mongodb.Client
	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, continuing without it")
		} else {
			mongoClient = client
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

			if err := mongodb.EnsureIndexes(mongoClient.Database()); err != nil {
				log.Warn().Err(err).Msg("failed to ensure indexes")
			}
		}
	}

	// 初始化 Redis (可选)
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	srv := &Server{
		cfg:    cfg,
		engine: engine,
		mongo:  mongoClient,
		redis:  redisCache,
	}

	if err := srv.setupRoutes(); err != nil {
		return nil, err
	}

	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() error {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查：已接入的可选后端纳入就绪探测
	var checks []handler.ReadyCheck
	if s.mongo != nil {
		checks = append(checks, handler.ReadyCheck{
			Name: "mongodb",
			Check: func(ctx context.Context) error {
				return s.mongo.Ping(ctx)
			},
		})
	}
	if s.redis != nil {
		checks = append(checks, handler.ReadyCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return s.redis.Ping(ctx)
			},
		})
	}
	healthHandler := handler.NewHealthHandler(checks...)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 故事服务：模型客户端按配置组装，mongo/redis 缺失时降级为无持久化运行
	var storySvc storyService.StoryService
	var err error
	if s.mongo != nil {
		storySvc, err = storyService.NewStoryServiceFromConfig(context.Background(), s.mongo.Database(), s.redis, s.cfg)
	} else {
		storySvc, err = storyService.NewStoryServiceFromConfig(context.Background(), nil, s.redis, s.cfg)
	}
	if err != nil {
		return err
	}
	storyHdl := storyHandler.NewHandler(storySvc)

	// API v1
	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/templates", storyHdl.ListTemplates)
		v1.POST("/stories", storyHdl.CreateStory)
		v1.POST("/stories/batch", storyHdl.CreateBatch)
		v1.GET("/stories", storyHdl.ListStories)
		v1.GET("/stories/:id", storyHdl.GetStory)
	}

	return nil
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		if s.mongo != nil {
			if err := s.mongo.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to close MongoDB connection")
			}
		}
		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close Redis connection")
			}
		}

		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
