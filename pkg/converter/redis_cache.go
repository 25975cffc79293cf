// 文件: pkg/converter/redis_cache.go
// Redis 汇率缓存 - 转换器读穿透缓存
//
// 真实的转换器是外部调用 (可能是链上查询或做市商 RPC)，
// 估值类的只读接口会高频调用 GetReturn。
// 这里在转换器前面加一层 Redis 缓存: 按 (from, to) 缓存单位汇率，
// 带 TTL，过期后回源。
//
// 只缓存"估值"用途；真正移动资金的转换必须直接打到转换器拿实价，
// 所以引擎里资金路径不走这个包装。

package converter

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// 汇率缓存的报价基准量
// 缓存的是卖出 RateUnit 个 from 换到的 to 数量，线性缩放到请求量
const RateUnit = 1_000_000

// CacheConfig 缓存配置
type CacheConfig struct {
	// TTL 汇率缓存有效期
	TTL time.Duration
}

// DefaultCacheConfig 默认配置
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 5 * time.Second}
}

// RateCache Redis 读穿透汇率缓存
type RateCache struct {
	inner  Converter
	client *redis.Client
	cfg    CacheConfig
}

// NewRateCache 创建汇率缓存
func NewRateCache(inner Converter, client *redis.Client, cfg CacheConfig) *RateCache {
	return &RateCache{inner: inner, client: client, cfg: cfg}
}

// GetReturn 实现 Converter 接口
//
// 命中缓存时按比例缩放，未命中时回源并写入缓存。
// Redis 故障降级为直接回源，不影响正确性。
func (c *RateCache) GetReturn(fromToken, toToken string, amount int64) (int64, error) {
	if fromToken == toToken || amount == 0 {
		return amount, nil
	}

	ctx := context.Background()
	key := "fx:rate:" + fromToken + ":" + toToken

	if val, err := c.client.Get(ctx, key).Result(); err == nil {
		if unitReturn, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			return amount * unitReturn / RateUnit, nil
		}
	}

	// 回源: 查询基准量的回报，缓存单位汇率
	unitReturn, err := c.inner.GetReturn(fromToken, toToken, RateUnit)
	if err != nil {
		return 0, err
	}
	c.client.Set(ctx, key, strconv.FormatInt(unitReturn, 10), c.cfg.TTL)

	return amount * unitReturn / RateUnit, nil
}
