package trafficlight

import (
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
)

// ComputePhaseGreenTimes 按主导车道分配名义周期内的绿灯时间
// 功能：每个轴取两个进口道中小汽车数较大者作为主导车道计数，按比例分配cycleLength
// 参数：roads-本周期计数，cycleLength-名义周期长度（秒）
// 返回：进口道->绿灯秒数（同轴进口道相同）
// 说明：仅用于展示与遥测，不影响红绿判定；两轴均为0时平分
func ComputePhaseGreenTimes(roads entity.Intersection, cycleLength float64) map[entity.Road]float64 {
	dominant := func(axis entity.Phase) float64 {
		best := 0
		for _, road := range entity.AxisRoads(axis) {
			best = max(best, roads.Counts(road).Get(entity.Car))
		}
		return float64(best)
	}
	a, b := dominant(entity.PhaseA), dominant(entity.PhaseB)
	greenA, greenB := cycleLength/2, cycleLength/2
	if total := a + b; total > 0 {
		greenA = cycleLength * a / total
		greenB = cycleLength - greenA
	}
	out := make(map[entity.Road]float64, len(entity.Roads))
	for _, road := range entity.Roads {
		if road.Axis() == entity.PhaseA {
			out[road] = round1(greenA)
		} else {
			out[road] = round1(greenB)
		}
	}
	return out
}
