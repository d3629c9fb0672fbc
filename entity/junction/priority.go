package junction

import (
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
)

// PriorityConfig 校车优先时段配置
type PriorityConfig struct {
	Time         string // HH:MM，精确匹配
	Intersection string // 优先路口ID
}

// ClassifyEmergency 紧急车辆检测
// 功能：任一进口道检测到救护车即进入EMERGENCY，放行救护车所在的相位轴
// 返回：放行轴与是否触发
// 说明：两个轴都有救护车时放行数量多的一侧，相等时放行A
func ClassifyEmergency(roads entity.Intersection) (entity.Phase, bool) {
	var a, b int
	for _, road := range entity.Roads {
		n := roads.Counts(road).Get(entity.Ambulance)
		if road.Axis() == entity.PhaseA {
			a += n
		} else {
			b += n
		}
	}
	switch {
	case a == 0 && b == 0:
		return "", false
	case b > a:
		return entity.PhaseB, true
	default:
		return entity.PhaseA, true
	}
}

// ClassifySchoolPriority 校车优先检测
// 功能：当前时刻与配置时刻精确相等且为配置路口时，比较两轴校车数，放行多的一侧（相等放行A）
// 参数：id-路口ID，roads-计数，hhmm-当前挂钟时刻
func ClassifySchoolPriority(id string, roads entity.Intersection, hhmm string, cfg PriorityConfig) (entity.Phase, bool) {
	if cfg.Time == "" || cfg.Intersection == "" {
		return "", false
	}
	if hhmm != cfg.Time || id != cfg.Intersection {
		return "", false
	}
	var a, b int
	for _, road := range entity.Roads {
		n := roads.Counts(road).Get(entity.SchoolBus)
		if road.Axis() == entity.PhaseA {
			a += n
		} else {
			b += n
		}
	}
	if b > a {
		return entity.PhaseB, true
	}
	return entity.PhaseA, true
}
