package cache

import (
	"context"
	"fmt"
	"strconv"

	"PianoInstructor/core/score"

	"github.com/go-redis/redis/v8"
)

const (
	highScoreKey = "score:%s:%d" // Hash: player -> 最高分
)

// ScoreCache Redis 最高分存储
type ScoreCache struct {
	client *redis.Client
}

// NewScoreCache 使用全局客户端创建
func NewScoreCache() *ScoreCache {
	return &ScoreCache{client: RedisClient}
}

// NewScoreCacheWithClient 使用指定客户端创建
func NewScoreCacheWithClient(client *redis.Client) *ScoreCache {
	return &ScoreCache{client: client}
}

func highScoreHash(key score.Key) string {
	return fmt.Sprintf(highScoreKey, key.Mode, key.Difficulty)
}

// Get 读取最高分，不存在返回 0
func (c *ScoreCache) Get(ctx context.Context, key score.Key) (int, error) {
	if c.client == nil {
		return 0, fmt.Errorf("Redis client not initialized")
	}

	val, err := c.client.HGet(ctx, highScoreHash(key), key.Player).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid high score %q: %w", val, err)
	}
	return n, nil
}

// Set 写入最高分
func (c *ScoreCache) Set(ctx context.Context, key score.Key, value int) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return c.client.HSet(ctx, highScoreHash(key), key.Player, value).Err()
}

// Players 返回某个模式/难度下所有玩家的最高分
func (c *ScoreCache) Players(ctx context.Context, mode string, difficulty int) (map[string]int, error) {
	if c.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	result, err := c.client.HGetAll(ctx, fmt.Sprintf(highScoreKey, mode, difficulty)).Result()
	if err != nil {
		return nil, err
	}
	scores := make(map[string]int, len(result))
	for player, val := range result {
		if n, err := strconv.Atoi(val); err == nil {
			scores[player] = n
		}
	}
	return scores, nil
}
