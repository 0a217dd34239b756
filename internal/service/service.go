// Package service 组装所有业务服务
package service

import (
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/next-vision/internal/config"
	"github.com/ashwinyue/next-vision/internal/repository"
	"github.com/ashwinyue/next-vision/internal/service/evaluation"
	"github.com/ashwinyue/next-vision/internal/service/file"
	"github.com/ashwinyue/next-vision/internal/service/image"
	"github.com/ashwinyue/next-vision/internal/service/llm"
	"github.com/ashwinyue/next-vision/internal/service/prompt"
	"github.com/ashwinyue/next-vision/internal/service/task"
)

// Services 服务集合
type Services struct {
	// 业务服务
	Image      *image.Service
	Evaluation *evaluation.Service
	Runner     *task.Runner

	// 基础组件
	Repo     *repository.Repositories
	Config   *config.Config
	Storage  file.Storage
	Composer *prompt.Composer
}

// NewServices 创建所有服务
// redisClient 可以为 nil，此时提示词覆盖不走缓存
func NewServices(repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	storage, err := file.NewStorageFromConfig(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	resolver := prompt.NewResolver(repo.Prompt, redisClient)
	composer := prompt.NewComposer(resolver)
	factory := llm.NewEinoFactory(&cfg.AI)

	imageService := image.NewService(repo.Image, repo.Question, repo.Dataset, storage, factory, composer)
	evaluationService := evaluation.NewService(repo.Dataset, storage, factory)
	runner := task.NewRunner(repo.Task, repo.Dataset, evaluationService)

	log.Printf("服务初始化完成, 存储类型: %s, 模型提供商: %s", cfg.Storage.Type, cfg.AI.Provider)

	return &Services{
		Image:      imageService,
		Evaluation: evaluationService,
		Runner:     runner,

		Repo:     repo,
		Config:   cfg,
		Storage:  storage,
		Composer: composer,
	}, nil
}
