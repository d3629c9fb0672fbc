package junction

import (
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
)

// Reason 相位决定的来源
type Reason string

const (
	ReasonEmergency Reason = "emergency" // 救护车优先
	ReasonSchoolBus Reason = "schoolbus" // 校车优先时段
	ReasonDemand    Reason = "demand"    // 需求比较
	ReasonAdjacency Reason = "adjacency" // 相邻协调改写
	ReasonDebounce  Reason = "debounce"  // 去抖保持原相位
)

// Decision 单个路口在一个周期内的相位决策，只在本周期有效
type Decision struct {
	ID       string
	Phase    entity.Phase // 提议相位：A/B/EMERGENCY
	SubPhase entity.Phase // EMERGENCY时放行的轴
	Reason   Reason
	Demand   Demand       // 有效需求
	Load     Demand       // 当前加权负荷，用于相邻协调
	Green    entity.Phase // 去抖后本周期实际放行的轴
}

// IsEmergency 是否处于紧急优先
func (d *Decision) IsEmergency() bool {
	return d.Phase == entity.PhaseEmergency
}

// Axis 提议放行的轴
func (d *Decision) Axis() entity.Phase {
	if d.IsEmergency() {
		return d.SubPhase
	}
	return d.Phase
}
