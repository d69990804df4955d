package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/coursemind/pkg/utils/json"
)

// QueryCacheConfig 查询缓存配置。
type QueryCacheConfig struct {
	// TTL 缓存过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// QueryCache 答案缓存，尽力而为：任何错误只记录日志并视为未命中。
type QueryCache struct {
	redis  *goredis.Client
	config *QueryCacheConfig
}

// NewQueryCache 创建查询缓存实例。
func NewQueryCache(redis *goredis.Client, config *QueryCacheConfig) *QueryCache {
	if config == nil {
		config = &QueryCacheConfig{TTL: time.Hour, KeyPrefix: "coursemind:ask:"}
	}
	return &QueryCache{redis: redis, config: config}
}

// cacheKey 由问题、检索条数和来源上限共同决定。
func (c *QueryCache) cacheKey(query string, topK, sourceCap int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", query, topK, sourceCap)))
	return c.config.KeyPrefix + hex.EncodeToString(sum[:])
}

// Get 读取缓存；未命中或出错时返回 nil。
func (c *QueryCache) Get(ctx context.Context, query string, topK, sourceCap int) *AskResponse {
	key := c.cacheKey(query, topK, sourceCap)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !stderrors.Is(err, goredis.Nil) {
			logger.Warnw("failed to get from cache", "error", err.Error(), "key", key)
		}
		return nil
	}

	var resp AskResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.Warnw("failed to unmarshal cached answer", "error", err.Error(), "key", key)
		_ = c.redis.Del(ctx, key).Err()
		return nil
	}

	logger.Debugw("cache hit", "key", key)
	return &resp
}

// Set 写入缓存，不保存会话 id。
func (c *QueryCache) Set(ctx context.Context, query string, topK, sourceCap int, resp *AskResponse) {
	key := c.cacheKey(query, topK, sourceCap)

	cached := *resp
	cached.ConversationID = ""
	data, err := json.Marshal(&cached)
	if err != nil {
		logger.Warnw("failed to marshal answer for caching", "error", err.Error())
		return
	}

	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to set cache", "error", err.Error(), "key", key)
	}
}
