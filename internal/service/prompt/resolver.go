package prompt

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/next-vision/internal/model"
)

// overrideCacheTTL 自定义提示词的缓存时长
const overrideCacheTTL = 5 * time.Minute

// OverrideStore 自定义提示词存储
type OverrideStore interface {
	GetCustomPrompt(projectID, promptKey, language string) (*model.CustomPrompt, error)
}

// Resolver 数据库 + Redis 缓存的提示词覆盖查询
// redis 客户端为 nil 时退化为直查数据库
type Resolver struct {
	store OverrideStore
	rdb   *redis.Client
}

// NewResolver 创建提示词覆盖查询器
func NewResolver(store OverrideStore, rdb *redis.Client) *Resolver {
	return &Resolver{store: store, rdb: rdb}
}

// Get 查询项目自定义提示词，未配置返回空串
func (r *Resolver) Get(ctx context.Context, projectID, promptKey, language string) (string, error) {
	cacheKey := fmt.Sprintf("prompt:%s:%s:%s", projectID, promptKey, language)

	if r.rdb != nil {
		if cached, err := r.rdb.Get(ctx, cacheKey).Result(); err == nil {
			return cached, nil
		}
	}

	custom, err := r.store.GetCustomPrompt(projectID, promptKey, language)
	if err != nil {
		return "", fmt.Errorf("failed to get custom prompt: %w", err)
	}

	content := ""
	if custom != nil {
		content = custom.Content
	}

	if r.rdb != nil {
		// 缓存空结果同样有效，避免每次组装都打数据库
		r.rdb.Set(ctx, cacheKey, content, overrideCacheTTL)
	}

	return content, nil
}
