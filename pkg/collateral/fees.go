// 文件: pkg/collateral/fees.go
// 手续费拆分
//
// burn 和 reward 两份独立计算、独立取整，不强行凑成某个总额。
// 取整方向由调用点决定 (结清路径向上、平衡路径向下)，
// 两个方向在经济上都偏向协议，产生的尘埃留在仓位里，属于接受的舍入行为。

package collateral

import (
	"colend.com/pkg/ratio"
)

// SplitFee 按仓位费率拆分 amount
//
// ceil 控制取整方向:
// - true:  结清/还清路径，费用加在应付之上，零头进位
// - false: 平衡路径，向下取整
func SplitFee(amount, burnFee, rewardFee int64, ceil bool) (burned, rewarded int64) {
	if amount <= 0 {
		return 0, 0
	}
	if ceil {
		if burnFee > 0 {
			burned = ratio.DivCeil(amount*burnFee, ratio.BASE)
		}
		if rewardFee > 0 {
			rewarded = ratio.DivCeil(amount*rewardFee, ratio.BASE)
		}
		return burned, rewarded
	}
	return amount * burnFee / ratio.BASE, amount * rewardFee / ratio.BASE
}
