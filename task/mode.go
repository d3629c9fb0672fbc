package task

import (
	"sync"

	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity/junction/trafficlight"
)

// Arbiter 决策模式仲裁
// 功能：维护运行时可修改的模式，并为每个周期选择绿灯时长策略
// 说明：ml/rl模式缺少对应模型时回退到反应式策略，记录的模式标签以实际使用的策略为准
type Arbiter struct {
	mtx         sync.RWMutex
	mode        entity.Mode
	reactive    *trafficlight.Reactive
	regression  *trafficlight.Regression // 可为nil
	recommender entity.IRecommender      // 可为nil
}

// NewArbiter 创建模式仲裁器
func NewArbiter(
	mode entity.Mode,
	reactive *trafficlight.Reactive,
	regression *trafficlight.Regression,
	recommender entity.IRecommender,
) *Arbiter {
	return &Arbiter{
		mode:        mode,
		reactive:    reactive,
		regression:  regression,
		recommender: recommender,
	}
}

// Mode 当前模式
func (a *Arbiter) Mode() entity.Mode {
	a.mtx.RLock()
	defer a.mtx.RUnlock()
	return a.mode
}

// SetMode 切换模式，从下一个周期开始生效
func (a *Arbiter) SetMode(mode entity.Mode) {
	a.mtx.Lock()
	old := a.mode
	a.mode = mode
	a.mtx.Unlock()
	if old != mode {
		log.Infof("operation mode %s -> %s", old, mode)
	}
}

// Reactive 反应式策略
func (a *Arbiter) Reactive() *trafficlight.Reactive {
	return a.reactive
}

// Resolve 为本周期选择时长策略
// 参数：traffic-本周期计数（rl模式下用于生成建议）
// 返回：时长策略，rl模式下的智能体建议（其他模式为nil）
func (a *Arbiter) Resolve(traffic entity.TrafficData) (trafficlight.IDurationStrategy, entity.Recommendations) {
	switch mode := a.Mode(); mode {
	case entity.ModeML:
		if a.regression != nil {
			return a.regression, nil
		}
		log.Warnf("mode %s without regression model, using reactive", mode)
	case entity.ModeRL:
		if a.recommender != nil {
			recs := a.recommender.GetOptimalSignals(traffic)
			return trafficlight.NewLearned(recs, a.reactive), recs
		}
		log.Warnf("mode %s without agent, using reactive", mode)
	}
	return a.reactive, nil
}
