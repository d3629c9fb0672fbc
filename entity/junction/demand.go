package junction

import (
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
)

const (
	schoolBusWeight = 2 // 校车折算为小汽车的当量
	currentWeight   = 0.5
	predictedWeight = 0.5
)

// Demand 两个相位轴上的需求压力
type Demand struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Of 获取指定相位轴的压力
func (d Demand) Of(axis entity.Phase) float64 {
	if axis == entity.PhaseB {
		return d.B
	}
	return d.A
}

// Add 逐轴相加
func (d Demand) Add(o Demand) Demand {
	return Demand{A: d.A + o.A, B: d.B + o.B}
}

// Scale 逐轴缩放
func (d Demand) Scale(k float64) Demand {
	return Demand{A: d.A * k, B: d.B * k}
}

// AxisLoad 计算路口当前周期的加权负荷
// 功能：每个进口道的负荷为 小汽车数 + 2*校车数，按相位轴求和
// 说明：缺失的进口道与类别按0处理
func AxisLoad(roads entity.Intersection) Demand {
	var d Demand
	for _, road := range entity.Roads {
		c := roads.Counts(road)
		load := float64(c.Get(entity.Car) + schoolBusWeight*c.Get(entity.SchoolBus))
		if road.Axis() == entity.PhaseA {
			d.A += load
		} else {
			d.B += load
		}
	}
	return d
}

// RawTotals 计算两个相位轴未加权的小汽车+校车总数
func RawTotals(roads entity.Intersection) (a, b int) {
	for _, road := range entity.Roads {
		c := roads.Counts(road)
		n := c.Get(entity.Car) + c.Get(entity.SchoolBus)
		if road.Axis() == entity.PhaseA {
			a += n
		} else {
			b += n
		}
	}
	return
}

// PredictedLoad 预测快照按相位轴求和
func PredictedLoad(p entity.Prediction) Demand {
	var d Demand
	for road, v := range p {
		if v < 0 {
			continue
		}
		switch road.Axis() {
		case entity.PhaseA:
			d.A += v
		case entity.PhaseB:
			d.B += v
		}
	}
	return d
}

// EstimateDemand 需求估计
// 功能：融合当前计数、平滑预测与网格邻居需求，得到两个相位轴的有效需求
// 参数：s-路口快照，neighbours-网格邻居路口本周期的计数，weight-邻居权重
// 返回：有效需求
// 算法说明：
// 1. effective = 0.5*当前负荷 + 0.5*预测负荷
// 2. 每个网格邻居同轴的当前负荷按weight累加
// 说明：纯函数，无副作用
func EstimateDemand(s entity.Snapshot, neighbours []entity.Intersection, weight float64) Demand {
	d := AxisLoad(s.Roads).Scale(currentWeight).Add(PredictedLoad(s.Prediction).Scale(predictedWeight))
	for _, n := range neighbours {
		d = d.Add(AxisLoad(n).Scale(weight))
	}
	return d
}
