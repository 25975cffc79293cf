// 文件: pkg/ratio/math.go
// 定点比率数学 - 基点 (basis point) 整数运算
//
// 抵押引擎里所有的比率都用基点表示:
// BASE = 10000 = 100%，一个单位 = 0.01%
//
// 为什么不用 float64？
// 结算金额必须精确可复现，浮点的舍入误差在多方对账时是灾难。
// 所有金额用 int64 最小单位存储，比率运算只做整数乘除。

package ratio

// BASE 基点刻度
// 15000 表示 150%，10000 表示 100%
const BASE = 10000

// DivCeil 向上取整除法
//
// 用在"少算会亏协议"的场景:
// 计算最低抵押要求、应付金额换算时，零头必须进位。
// 要求 x >= 0 且 y > 0。
func DivCeil(x, y int64) int64 {
	if x%y == 0 {
		return x / y
	}
	return x/y + 1
}

// Min3 三者取最小
// 清算定量规则的核心: 不超过理想平衡量、不超过现有抵押、不超过剩余债务
func Min3(a, b, c int64) int64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// Abs int64 绝对值
func Abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
