package agent

import (
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/randengine"
)

// 状态向量下标
const (
	stateNS = iota
	stateEW
	stateWeather
	stateConnectivity
	stateDim
)

// 动作
const (
	ActionA = 0 // 南北放行
	ActionB = 1 // 东西放行

	actionDim = 2
)

// State 智能体状态：[南北车数, 东西车数, 天气, 网络连通度]
type State [stateDim]float64

// 训练环境接口
type IEnvironment interface {
	Reset() State                                                         // 开始新回合，返回初始状态
	Step(state State, action int) (reward float64, next State, done bool) // 执行动作
}

// 外部因素采样接口
type ISampler interface {
	Weather() float64      // 天气恶劣程度，[0, 1)
	Connectivity() float64 // 网络连通度，[0, 1)
}

// RandomSampler 均匀随机采样天气与连通度
type RandomSampler struct {
	rng *randengine.Engine
}

func NewRandomSampler(rng *randengine.Engine) *RandomSampler {
	return &RandomSampler{rng: rng}
}

func (s *RandomSampler) Weather() float64 {
	return s.rng.Float64Safe()
}

func (s *RandomSampler) Connectivity() float64 {
	return s.rng.Float64Safe()
}

// SimulatedEnv 模拟训练环境
// 功能：每一步随机生成两轴车数（[0, 20]）与外部因素，回合不会提前结束
// 说明：奖励为等待轴车数与天气惩罚之和的相反数
//   - 放行A时：-(东西车数 + 2·天气)
//   - 放行B时：-(南北车数 + 2·天气)
type SimulatedEnv struct {
	rng      *randengine.Engine
	maxCount int
}

func NewSimulatedEnv(rng *randengine.Engine) *SimulatedEnv {
	return &SimulatedEnv{rng: rng, maxCount: 20}
}

func (e *SimulatedEnv) Reset() State {
	return e.sample()
}

func (e *SimulatedEnv) Step(state State, action int) (float64, State, bool) {
	return Reward(state, action), e.sample(), false
}

func (e *SimulatedEnv) sample() State {
	return State{
		float64(e.rng.IntnSafe(e.maxCount + 1)),
		float64(e.rng.IntnSafe(e.maxCount + 1)),
		e.rng.Float64Safe(),
		e.rng.Float64Safe(),
	}
}

// Reward 模拟环境的奖励函数
func Reward(s State, action int) float64 {
	waiting := s[stateEW]
	if action == ActionB {
		waiting = s[stateNS]
	}
	return -(waiting + 2*s[stateWeather])
}
