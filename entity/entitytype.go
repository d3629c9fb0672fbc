package entity

import (
	"fmt"
	"time"
)

// Phase 相位，A为南北向放行，B为东西向放行
type Phase string

const (
	PhaseA         Phase = "A"         // 南北向绿灯
	PhaseB         Phase = "B"         // 东西向绿灯
	PhaseEmergency Phase = "EMERGENCY" // 紧急车辆优先，具体放行方向见子相位
)

// Road 路口的进口道方位
type Road string

const (
	North Road = "north"
	South Road = "south"
	East  Road = "east"
	West  Road = "west"
)

// Roads 固定顺序的四个进口道，输出时按此顺序生成记录
var Roads = []Road{North, South, East, West}

// Axis 获取进口道所属的相位轴
// 功能：north/south属于A，east/west属于B
// 返回：相位轴，未知方位返回空字符串
func (r Road) Axis() Phase {
	switch r {
	case North, South:
		return PhaseA
	case East, West:
		return PhaseB
	default:
		return ""
	}
}

// AxisRoads 获取相位轴包含的两个进口道
func AxisRoads(axis Phase) []Road {
	if axis == PhaseB {
		return []Road{East, West}
	}
	return []Road{North, South}
}

// VehicleClass 检测器输出的目标类别
type VehicleClass string

const (
	Car       VehicleClass = "car"
	Ambulance VehicleClass = "ambulance"
	SchoolBus VehicleClass = "schoolbus"
	Accident  VehicleClass = "accident"
)

// RoadCounts 单个进口道在本周期内各类别的计数
type RoadCounts map[VehicleClass]int

// Get 获取指定类别的计数，缺失时为0
func (c RoadCounts) Get(class VehicleClass) int {
	if c == nil {
		return 0
	}
	if n := c[class]; n > 0 {
		return n
	}
	return 0
}

// Total 车辆总数（不含事故检测）
func (c RoadCounts) Total() int {
	return c.Get(Car) + c.Get(Ambulance) + c.Get(SchoolBus)
}

// Intersection 单个路口本周期的检测数据：进口道->计数
type Intersection map[Road]RoadCounts

// Counts 获取进口道计数，缺失的进口道返回空计数
func (i Intersection) Counts(road Road) RoadCounts {
	if i == nil {
		return RoadCounts{}
	}
	if c, ok := i[road]; ok && c != nil {
		return c
	}
	return RoadCounts{}
}

// TrafficData 一个检测周期的全部输入：路口ID->进口道->计数
type TrafficData map[string]Intersection

// Prediction 单个路口的平滑预测：进口道->预测小汽车数
type Prediction map[Road]float64

// PredictionData 一个检测周期的预测输入：路口ID->预测
type PredictionData map[string]Prediction

// Snapshot 单个路口在一个周期内交给决策核心的只读快照
type Snapshot struct {
	ID         string
	Roads      Intersection
	Prediction Prediction
}

// Signal 信号灯颜色
type Signal string

const (
	Green Signal = "GREEN"
	Red   Signal = "RED"
)

// SignalFor 根据放行轴计算进口道的信号
func SignalFor(road Road, green Phase) Signal {
	if road.Axis() == green {
		return Green
	}
	return Red
}

// Congestion 拥堵等级
type Congestion string

const (
	CongestionLow    Congestion = "low"
	CongestionMedium Congestion = "medium"
	CongestionHigh   Congestion = "high"
)

// 拥堵等级阈值（车辆总数）
const (
	congestionMediumThreshold = 20
	congestionHighThreshold   = 50
)

// CongestionOf 根据车辆总数计算拥堵等级
func CongestionOf(total int) Congestion {
	switch {
	case total >= congestionHighThreshold:
		return CongestionHigh
	case total >= congestionMediumThreshold:
		return CongestionMedium
	default:
		return CongestionLow
	}
}

// Mode 决策模式
type Mode string

const (
	ModeNormal Mode = "normal" // 反应式启发规则
	ModeML     Mode = "ml"     // 回归模型计算绿灯时长
	ModeRL     Mode = "rl"     // 强化学习策略覆盖相位与时长
)

// ParseMode 解析模式字符串
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNormal, ModeML, ModeRL:
		return Mode(s), nil
	case "":
		return ModeNormal, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// SignalRecord 一个周期内单个进口道的输出记录
// 说明：一个周期的全部输出为SignalRecord序列，是渲染、日志、上报等下游的唯一契约
type SignalRecord struct {
	CycleID              string           `json:"cycle_id,omitempty" bson:"cycle_id,omitempty"`
	Intersection         string           `json:"intersection" bson:"intersection"`
	Road                 Road             `json:"road" bson:"road"`
	Cars                 int              `json:"cars" bson:"cars"`
	Ambulances           int              `json:"ambulances" bson:"ambulances"`
	SchoolBuses          int              `json:"schoolbuses" bson:"schoolbuses"`
	Accidents            int              `json:"accidents" bson:"accidents"`
	Phase                Phase            `json:"phase" bson:"phase"`
	Signal               Signal           `json:"signal" bson:"signal"`
	DynamicGreenDuration float64          `json:"dynamic_green_duration" bson:"dynamic_green_duration"`
	EffectiveDemand      float64          `json:"effective_demand" bson:"effective_demand"`
	CongestionLevel      Congestion       `json:"congestion_level" bson:"congestion_level"`
	Mode                 Mode             `json:"mode" bson:"mode"`
	LaneGreenTimes       map[Road]float64 `json:"lane_green_times,omitempty" bson:"lane_green_times,omitempty"`
	ManuallyOverridden   bool             `json:"manually_overridden" bson:"manuallyOverridden"`
	Timestamp            time.Time        `json:"timestamp" bson:"timestamp"`
}

// Recommendation 强化学习智能体对单个进口道的建议
type Recommendation struct {
	Signal          Signal  `json:"signal" msgpack:"signal"`
	DynamicDuration float64 `json:"dynamic_duration" msgpack:"dynamic_duration"`
}

// Recommendations 路口ID->进口道->建议
type Recommendations map[string]map[Road]Recommendation

// AccidentReport 一个进口道的事故计数
type AccidentReport struct {
	CycleID      string `json:"cycle_id"`
	Intersection string `json:"intersection"`
	Road         Road   `json:"road"`
	Accidents    int    `json:"accidents"`
}
