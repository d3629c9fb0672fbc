// 提供基于深度Q网络的信号相位智能体
// 训练在模拟环境中进行，决策时对每个路口给出放行轴与绿灯时长建议
package agent

import (
	"flag"
	"math"
	"slices"
	"sync"

	"github.com/samber/lo"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/config"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/container"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/randengine"
	"gonum.org/v1/gonum/stat"
)

var (
	hiddenWidth = flag.Int("rl.hidden_width", 32, "Q网络隐藏层宽度")
	logEvery    = flag.Int("rl.log_every", 100, "训练日志输出间隔（回合）")
)

// Config 智能体参数
type Config struct {
	Epsilon      float64 // 探索概率
	Gamma        float64 // 折扣因子
	LearningRate float64
	BatchSize    int
	Capacity     int // 经验回放容量
	Seed         uint64

	// 绿灯时长参数，与反应式策略一致
	Base            float64
	ExtensionFactor float64
	MaxExtension    float64
}

// NewConfig 从运行时配置生成智能体参数
func NewConfig(rc *config.RuntimeConfig) Config {
	return Config{
		Epsilon:         rc.RL.Epsilon,
		Gamma:           rc.RL.Gamma,
		LearningRate:    rc.RL.LearningRate,
		BatchSize:       rc.RL.BatchSize,
		Capacity:        rc.RL.BufferCapacity,
		Seed:            rc.RL.Seed,
		Base:            rc.C.BaseDuration,
		ExtensionFactor: rc.C.ExtensionFactor,
		MaxExtension:    rc.C.MaxExtension,
	}
}

// Transition 一条经验
type Transition struct {
	State  State
	Action int
	Reward float64
	Next   State
	Done   bool
}

// TrainStats 训练统计
type TrainStats struct {
	Episodes   int
	Steps      int
	Updates    int
	MeanLoss   float64 // 全部更新的平均损失，没有更新时为NaN
	MeanReward float64
}

// Agent 深度Q网络智能体
// 功能：ε-贪心选择动作，经验回放均匀采样小批量，目标为 r + γ·max Q(s')·(1-done)
// 说明：训练与决策可能来自不同协程，全部方法互斥
type Agent struct {
	mtx     sync.Mutex
	cfg     Config
	net     *Network
	buffer  *container.Ring[Transition]
	rng     *randengine.Engine
	sampler ISampler
}

// New 创建智能体
// 参数：cfg-智能体参数，sampler-决策时的天气与连通度采样，为nil时使用均匀随机采样
func New(cfg Config, sampler ISampler) *Agent {
	rng := randengine.New(cfg.Seed)
	if sampler == nil {
		sampler = NewRandomSampler(rng)
	}
	return &Agent{
		cfg:     cfg,
		net:     NewNetwork([]int{stateDim, *hiddenWidth, *hiddenWidth, actionDim}, cfg.LearningRate, rng),
		buffer:  container.NewRing[Transition](cfg.Capacity),
		rng:     rng,
		sampler: sampler,
	}
}

// QValues 计算状态下各动作的Q值
func (a *Agent) QValues(s State) []float64 {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return a.net.Forward(s[:])
}

// ChooseAction ε-贪心选择动作
// 返回：ActionA或ActionB，Q值相等时选择ActionA
func (a *Agent) ChooseAction(s State) int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return a.chooseAction(s)
}

func (a *Agent) chooseAction(s State) int {
	if a.rng.PTrueSafe(a.cfg.Epsilon) {
		return a.rng.IntnSafe(actionDim)
	}
	return greedy(a.net.Forward(s[:]))
}

func greedy(q []float64) int {
	best := 0
	for i := 1; i < len(q); i++ {
		if q[i] > q[best] {
			best = i
		}
	}
	return best
}

// Push 写入一条经验，满时覆盖最旧的经验
func (a *Agent) Push(t Transition) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.buffer.Push(t)
}

// BufferLen 经验回放中的经验数
func (a *Agent) BufferLen() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return a.buffer.Len()
}

// Update 从经验回放采样一个批次并更新网络
// 返回：批次损失，经验不足一个批次时不更新并返回false
func (a *Agent) Update() (float64, bool) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return a.update()
}

func (a *Agent) update() (float64, bool) {
	if a.buffer.Len() < a.cfg.BatchSize {
		return 0, false
	}
	batch := a.buffer.Pick(a.rng.PermSafe(a.buffer.Len(), a.cfg.BatchSize))
	states := make([][]float64, len(batch))
	actions := make([]int, len(batch))
	targets := make([]float64, len(batch))
	for i, t := range batch {
		states[i] = t.State[:]
		actions[i] = t.Action
		target := t.Reward
		if !t.Done {
			target += a.cfg.Gamma * slices.Max(a.net.Forward(t.Next[:]))
		}
		targets[i] = target
	}
	return a.net.TrainBatch(states, actions, targets), true
}

// Train 在环境中训练
// 参数：env-训练环境，episodes-回合数，steps-每回合步数
// 返回：训练统计
// 算法说明：每一步选择动作、执行、写入经验并尝试一次更新
func (a *Agent) Train(env IEnvironment, episodes, steps int) TrainStats {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	var losses, rewards []float64
	stats := TrainStats{}
	for ep := 0; ep < episodes; ep++ {
		state := env.Reset()
		for st := 0; st < steps; st++ {
			action := a.chooseAction(state)
			reward, next, done := env.Step(state, action)
			a.buffer.Push(Transition{State: state, Action: action, Reward: reward, Next: next, Done: done})
			rewards = append(rewards, reward)
			stats.Steps++
			if loss, ok := a.update(); ok {
				losses = append(losses, loss)
			}
			state = next
			if done {
				break
			}
		}
		stats.Episodes++
		if *logEvery > 0 && (ep+1)%*logEvery == 0 {
			log.Infof("episode %d/%d, buffer %d, updates %d", ep+1, episodes, a.buffer.Len(), len(losses))
		}
	}
	stats.Updates = len(losses)
	stats.MeanLoss = math.NaN()
	if len(losses) > 0 {
		stats.MeanLoss = stat.Mean(losses, nil)
	}
	if len(rewards) > 0 {
		stats.MeanReward = stat.Mean(rewards, nil)
	}
	log.Infof("training done: %+v", stats)
	return stats
}

// GetOptimalSignals 为每个路口给出信号建议
// 参数：traffic-本周期计数
// 返回：路口->进口道->建议，四个进口道都有建议
// 算法说明：
// 1. 状态为两轴小汽车数与采样得到的天气、连通度
// 2. ε-贪心选择放行轴
// 3. 时长为 base + min(放行轴车数·extension_factor, max_extension)，保留一位小数
func (a *Agent) GetOptimalSignals(traffic entity.TrafficData) entity.Recommendations {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	ids := lo.Keys(traffic)
	slices.Sort(ids)
	out := make(entity.Recommendations, len(ids))
	for _, id := range ids {
		roads := traffic[id]
		var s State
		for _, road := range entity.Roads {
			n := float64(roads.Counts(road).Get(entity.Car))
			if road.Axis() == entity.PhaseA {
				s[stateNS] += n
			} else {
				s[stateEW] += n
			}
		}
		s[stateWeather] = a.sampler.Weather()
		s[stateConnectivity] = a.sampler.Connectivity()

		action := a.chooseAction(s)
		green := lo.Ternary(action == ActionA, entity.PhaseA, entity.PhaseB)
		effective := lo.Ternary(action == ActionA, s[stateNS], s[stateEW])
		d := a.cfg.Base + math.Min(effective*a.cfg.ExtensionFactor, a.cfg.MaxExtension)
		d = math.Round(d*10) / 10

		recs := make(map[entity.Road]entity.Recommendation, len(entity.Roads))
		for _, road := range entity.Roads {
			recs[road] = entity.Recommendation{
				Signal:          entity.SignalFor(road, green),
				DynamicDuration: d,
			}
		}
		out[id] = recs
	}
	return out
}
