// 文件: pkg/converter/converter.go
// 货币转换器接口 + 固定汇率实现
//
// 转换器是外部协作方 (DEX / 做市商 / 内部兑换池)，引擎只依赖一个
// 窄接口: 按现价把一种币换算成另一种币。
// 注意: 转换可能是非对称的，A->B->A 不保证恒等。

package converter

import (
	"errors"
	"sync"
)

var (
	ErrNoRate = errors.New("converter: no rate for pair")
)

// Converter 现价转换接口
type Converter interface {
	// GetReturn 返回卖出 amount 个 fromToken 可以买到多少 toToken
	GetReturn(fromToken, toToken string, amount int64) (int64, error)
}

// =============================================================================
// FixedRate - 内存固定汇率转换器
// =============================================================================

// FixedRate 固定汇率转换器
//
// 每个方向单独设置汇率 (num/den)，换算向下取整。
// 两个方向各自独立，可以刻意设置成不互逆来测试非对称转换。
type FixedRate struct {
	mu    sync.RWMutex
	rates map[string]rate // "FROM->TO" -> rate
}

type rate struct {
	num int64
	den int64
}

// NewFixedRate 创建固定汇率转换器
func NewFixedRate() *FixedRate {
	return &FixedRate{rates: make(map[string]rate)}
}

// SetRate 设置 from -> to 的汇率: out = in * num / den
func (c *FixedRate) SetRate(fromToken, toToken string, num, den int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates[fromToken+"->"+toToken] = rate{num: num, den: den}
}

// GetReturn 实现 Converter 接口
func (c *FixedRate) GetReturn(fromToken, toToken string, amount int64) (int64, error) {
	if fromToken == toToken {
		return amount, nil
	}

	c.mu.RLock()
	r, ok := c.rates[fromToken+"->"+toToken]
	c.mu.RUnlock()

	if !ok || r.den == 0 {
		return 0, ErrNoRate
	}
	return amount * r.num / r.den, nil
}
