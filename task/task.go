// 提供决策周期的编排：接收检测数据，依次完成相位选择、去抖提交、时长计算与输出
package task

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/clock"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity/junction"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity/junction/trafficlight"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/predictor"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/config"
)

// Input 一个周期的输入
type Input struct {
	Traffic    entity.TrafficData    `json:"traffic_data"`
	Prediction entity.PredictionData `json:"prediction_data,omitempty"` // 为空时使用EMA预测
}

var (
	ErrNoHistory = errors.New("history store is not configured")
	ErrClosed    = errors.New("task is closed")
)

// 事故查询接口
type IAccidentSource interface {
	Accidents() ([]entity.AccidentReport, error)
}

// Options 可选的外部协作者
type Options struct {
	Clock       *clock.Clock          // 为nil时使用系统时间
	Regression  entity.IDurationModel // ml模式的回归模型
	Recommender entity.IRecommender   // rl模式的智能体
	Reporters   []entity.IReporter    // 即发即弃的下游输出
	CycleLogger entity.ICycleLogger   // 历史记录
	Accidents   IAccidentSource
}

// Context 决策任务上下文
// 功能：持有一次运行的全部组件与跨周期状态（去抖状态、EMA预测、人工控制）
// 说明：周期之间串行执行，同一时刻只有一个周期在运行
type Context struct {
	mtx    sync.Mutex
	closed atomic.Bool

	clock         *clock.Clock
	runtimeConfig *config.RuntimeConfig

	junctions *junction.JunctionManager
	phases    *trafficlight.PhaseStore
	arbiter   *Arbiter
	smoother  *predictor.Smoother

	reporters   []entity.IReporter
	cycleLogger entity.ICycleLogger
	accidents   IAccidentSource

	last []entity.SignalRecord
}

// NewContext 创建决策任务上下文
// 参数：rc-运行时配置，opts-可选协作者
// 返回：上下文与错误（仅模式配置非法时）
func NewContext(rc *config.RuntimeConfig, opts Options) (*Context, error) {
	mode, err := entity.ParseMode(rc.C.Mode)
	if err != nil {
		return nil, err
	}
	c := opts.Clock
	if c == nil {
		c = clock.New()
	}
	reactive := trafficlight.NewReactive(trafficlight.NewReactiveConfig(rc.C))
	ctx := &Context{
		clock:         c,
		runtimeConfig: rc,
		junctions:     junction.NewManager(rc),
		phases:        trafficlight.NewPhaseStore(rc.C.MinPhaseDuration),
		arbiter:       NewArbiter(mode, reactive, trafficlight.NewRegression(opts.Regression), opts.Recommender),
		smoother:      predictor.NewSmoother(rc.C.PredictionAlpha),
		reporters:     opts.Reporters,
		cycleLogger:   opts.CycleLogger,
		accidents:     opts.Accidents,
	}
	return ctx, nil
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) JunctionManager() *junction.JunctionManager {
	return ctx.junctions
}

func (ctx *Context) PhaseStore() *trafficlight.PhaseStore {
	return ctx.phases
}

func (ctx *Context) Arbiter() *Arbiter {
	return ctx.arbiter
}

// Last 最近一个周期的输出
func (ctx *Context) Last() []entity.SignalRecord {
	ctx.mtx.Lock()
	defer ctx.mtx.Unlock()
	return slices.Clone(ctx.last)
}

// Cycle 执行一个决策周期
// 参数：in-本周期输入
// 返回：每个路口四个进口道的输出记录，按路口ID、进口道顺序；任务关闭后返回nil
func (ctx *Context) Cycle(in Input) []entity.SignalRecord {
	records, _ := ctx.tryCycle(in)
	return records
}

// tryCycle 在任务锁内检查关闭状态后执行决策周期
// 说明：Close与周期共用同一把锁，Close返回后不会再有记录交给下游
func (ctx *Context) tryCycle(in Input) ([]entity.SignalRecord, error) {
	ctx.mtx.Lock()
	defer ctx.mtx.Unlock()
	if ctx.closed.Load() {
		return nil, ErrClosed
	}
	return ctx.cycle(in), nil
}

// cycle 决策周期主体，调用方持有ctx.mtx
// 算法说明：
// 1. 时钟前进并采样时刻，生成周期ID，记录检测计数
// 2. 没有预测快照时使用EMA预测
// 3. 路口集合为输入路口与网格路口的并集，缺失数据按0处理
// 4. 选择阶段（并行）-> 相邻协调 -> 去抖提交
// 5. 按模式选择时长策略；rl模式下智能体建议覆盖非紧急路口的信号与时长
// 6. 人工控制覆盖非紧急路口的放行轴
// 7. 输出记录交给下游（即发即弃）并写入历史
func (ctx *Context) cycle(in Input) []entity.SignalRecord {
	now := ctx.clock.Tick()
	hhmm := ctx.clock.HHMM()
	cycleID := uuid.NewString()
	traffic := in.Traffic
	if traffic == nil {
		traffic = entity.TrafficData{}
	}
	if ctx.cycleLogger != nil {
		if err := ctx.cycleLogger.LogCycle(cycleID, traffic, now); err != nil {
			log.Warnf("log cycle %s failed: %v", cycleID, err)
		}
	}

	smoothed := ctx.smoother.Observe(traffic)
	predictions := in.Prediction
	if predictions == nil {
		predictions = smoothed
	}

	ids := lo.Union(lo.Keys(traffic), ctx.junctions.Grid().IDs())
	slices.Sort(ids)
	snapshots := lo.Map(ids, func(id string, _ int) entity.Snapshot {
		return entity.Snapshot{ID: id, Roads: traffic[id], Prediction: predictions[id]}
	})

	decisions := ctx.junctions.Select(snapshots, hhmm)
	ctx.junctions.Commit(decisions, ctx.phases, now)

	strategy, recs := ctx.arbiter.Resolve(traffic)
	// 智能体建议不可用的路口使用的策略
	fallback := strategy
	if fallback.Mode() == entity.ModeRL {
		fallback = ctx.arbiter.Reactive()
	}
	overrides := ctx.junctions.Overrides()

	records := make([]entity.SignalRecord, 0, len(ids)*len(entity.Roads))
	for _, id := range ids {
		d := decisions[id]
		roads := traffic[id]
		req := func(axis entity.Phase) trafficlight.DurationRequest {
			return trafficlight.DurationRequest{Intersection: id, Axis: axis, Effective: d.Demand.Of(axis), Now: now}
		}

		axis := d.Green
		var duration float64
		var mode entity.Mode
		// 紧急放行优先于智能体建议，EMERGENCY路口保留紧急子相位
		if rec, ok := recs[id]; ok && !d.IsEmergency() {
			axis = recommendedAxis(rec)
			duration = strategy.Duration(req(axis))
			mode = entity.ModeRL
		} else {
			duration = fallback.Duration(req(axis))
			mode = fallback.Mode()
		}

		overridden := false
		if o, ok := overrides[id]; ok && !d.IsEmergency() {
			if o != axis {
				axis = o
				duration = fallback.Duration(req(axis))
				mode = fallback.Mode()
			}
			overridden = true
		}

		phase := lo.Ternary(d.IsEmergency(), entity.PhaseEmergency, axis)
		greenTimes := trafficlight.ComputePhaseGreenTimes(roads, ctx.runtimeConfig.C.CycleLength)
		for _, road := range entity.Roads {
			c := roads.Counts(road)
			records = append(records, entity.SignalRecord{
				CycleID:              cycleID,
				Intersection:         id,
				Road:                 road,
				Cars:                 c.Get(entity.Car),
				Ambulances:           c.Get(entity.Ambulance),
				SchoolBuses:          c.Get(entity.SchoolBus),
				Accidents:            c.Get(entity.Accident),
				Phase:                phase,
				Signal:               entity.SignalFor(road, axis),
				DynamicGreenDuration: duration,
				EffectiveDemand:      d.Demand.Of(axis),
				CongestionLevel:      entity.CongestionOf(c.Total()),
				Mode:                 mode,
				LaneGreenTimes:       greenTimes,
				ManuallyOverridden:   overridden,
				Timestamp:            now,
			})
		}
	}

	for _, r := range ctx.reporters {
		r.Report(records)
	}
	if ctx.cycleLogger != nil {
		if err := ctx.cycleLogger.LogSignals(cycleID, records, now); err != nil {
			log.Warnf("log signals %s failed: %v", cycleID, err)
		}
	}
	ctx.last = records
	return records
}

// recommendedAxis 智能体建议中放行的轴
func recommendedAxis(rec map[entity.Road]entity.Recommendation) entity.Phase {
	for _, road := range entity.Roads {
		if r, ok := rec[road]; ok && r.Signal == entity.Green {
			return road.Axis()
		}
	}
	return entity.PhaseB
}

// Accidents 最近一个周期的事故
func (ctx *Context) Accidents() ([]entity.AccidentReport, error) {
	if ctx.accidents == nil {
		return nil, ErrNoHistory
	}
	return ctx.accidents.Accidents()
}

// Close 停止接收新的周期
// 说明：等待进行中的周期结束后返回，之后可以安全关闭下游输出
func (ctx *Context) Close() {
	ctx.mtx.Lock()
	defer ctx.mtx.Unlock()
	if ctx.closed.Swap(true) {
		return
	}
	log.Infof("task closed at cycle %s", ctx.clock)
}

// Closed 是否已关闭
func (ctx *Context) Closed() bool {
	return ctx.closed.Load()
}
