package junction

import (
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
)

// FuzzyGreenTime 模糊阈值映射
func FuzzyGreenTime(demand float64) float64 {
	switch {
	case demand < 10:
		return 30
	case demand < 20:
		return 60
	default:
		return 90
	}
}

// SelectPhase 相位选择
// 功能：根据有效需求选择放行轴
// 参数：roads-本周期计数，demand-有效需求，useFuzzy-是否启用模糊阈值
// 返回：A或B
// 算法说明：
// 1. 一侧原始总数为0而另一侧非0时，强制放行非0侧
// 2. 启用模糊阈值时，比较两轴映射后的时长
// 3. 否则比较有效需求
// 4. 相等时放行A
func SelectPhase(roads entity.Intersection, demand Demand, useFuzzy bool) entity.Phase {
	rawA, rawB := RawTotals(roads)
	if rawA == 0 && rawB > 0 {
		return entity.PhaseB
	}
	if rawB == 0 && rawA > 0 {
		return entity.PhaseA
	}
	a, b := demand.A, demand.B
	if useFuzzy {
		a, b = FuzzyGreenTime(a), FuzzyGreenTime(b)
	}
	if a >= b {
		return entity.PhaseA
	}
	return entity.PhaseB
}
