package junction

import (
	"github.com/sirupsen/logrus"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
)

// decide 单个路口的相位选择
// 功能：依次执行事故告警、紧急优先、校车优先与需求比较
// 参数：s-路口快照，neighbours-网格邻居计数，hhmm-当前挂钟时刻
// 返回：本周期的相位提议（尚未经过相邻协调与去抖）
func (m *JunctionManager) decide(s entity.Snapshot, neighbours []entity.Intersection, hhmm string) *Decision {
	d := &Decision{
		ID:     s.ID,
		Load:   AxisLoad(s.Roads),
		Demand: EstimateDemand(s, neighbours, m.adjacencyWeight),
	}
	reportAccidents(s)

	if axis, ok := ClassifyEmergency(s.Roads); ok {
		d.Phase = entity.PhaseEmergency
		d.SubPhase = axis
		d.Reason = ReasonEmergency
		log.WithFields(logrus.Fields{"intersection": s.ID, "axis": axis}).Info("emergency vehicle detected")
		return d
	}
	if axis, ok := ClassifySchoolPriority(s.ID, s.Roads, hhmm, m.priority); ok {
		d.Phase = axis
		d.Reason = ReasonSchoolBus
		return d
	}
	d.Phase = SelectPhase(s.Roads, d.Demand, m.useFuzzy)
	d.Reason = ReasonDemand
	return d
}

// reportAccidents 事故告警
// 说明：只记录日志，不影响信号计算
func reportAccidents(s entity.Snapshot) {
	for _, road := range entity.Roads {
		if n := s.Roads.Counts(road).Get(entity.Accident); n > 0 {
			log.WithFields(logrus.Fields{
				"intersection": s.ID,
				"road":         road,
				"accidents":    n,
			}).Warn("accident detected")
		}
	}
}
