// 文件: pkg/monitor/cooldown.go
// 清算冷却
//
// 平衡清算后比率可能仍然贴线 (手续费吃掉一部分余量)，
// 不加冷却的话监控会对同一笔债务连环触发。
// Redis SETNX 做分布式冷却锁，多个监控实例也不会互相踩。

package monitor

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CooldownGuard 清算节流
type CooldownGuard interface {
	// Allow 该债务现在是否允许触发清算
	Allow(ctx context.Context, debtID string) bool
}

// =============================================================================
// RedisCooldown
// =============================================================================

// RedisCooldown SETNX 冷却锁
type RedisCooldown struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCooldown 创建冷却锁
func NewRedisCooldown(addr string, ttl time.Duration) *RedisCooldown {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCooldown{client: rdb, ttl: ttl}
}

// Allow 实现 CooldownGuard
//
// SetNX 成功说明冷却期外，拿到本次触发权。
// Redis 故障降级放行: 多触发一次 claim 是幂等的 (健康仓位 no-op)。
func (c *RedisCooldown) Allow(ctx context.Context, debtID string) bool {
	key := "claim:cooldown:" + debtID
	ok, err := c.client.SetNX(ctx, key, "1", c.ttl).Result()
	if err != nil {
		log.Printf("[Cooldown] redis error, allowing claim: debt=%s err=%v", debtID, err)
		return true
	}
	return ok
}

// =============================================================================
// NopCooldown
// =============================================================================

// NopCooldown 不节流 (测试/单实例开发)
type NopCooldown struct{}

// Allow 实现 CooldownGuard
func (NopCooldown) Allow(context.Context, string) bool {
	return true
}
