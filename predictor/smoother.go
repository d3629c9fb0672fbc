package predictor

import (
	"maps"
	"sync"

	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
)

// Smoother 指数滑动平均的车流预测
// 功能：周期输入没有附带预测快照时，用历史小汽车计数的EMA作为下一周期的预测
// 说明：首次观测到的进口道直接以当前计数作为预测
type Smoother struct {
	mtx   sync.Mutex
	alpha float64
	ema   map[string]entity.Prediction
}

// NewSmoother 创建EMA预测器
// 参数：alpha-新观测的权重，取值(0, 1]
func NewSmoother(alpha float64) *Smoother {
	return &Smoother{
		alpha: alpha,
		ema:   make(map[string]entity.Prediction),
	}
}

// Observe 记录本周期计数并返回更新后的预测
// 参数：data-本周期全部路口计数
// 返回：每个路口四个进口道的小汽车预测值
func (s *Smoother) Observe(data entity.TrafficData) entity.PredictionData {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out := make(entity.PredictionData, len(data))
	for id, roads := range data {
		prev, seen := s.ema[id]
		next := make(entity.Prediction, len(entity.Roads))
		for _, road := range entity.Roads {
			cur := float64(roads.Counts(road).Get(entity.Car))
			if old, ok := prev[road]; seen && ok {
				next[road] = s.alpha*cur + (1-s.alpha)*old
			} else {
				next[road] = cur
			}
		}
		s.ema[id] = next
		out[id] = maps.Clone(next)
	}
	return out
}

// Forecast 不记录新观测，返回路口当前的预测值
func (s *Smoother) Forecast(id string) (entity.Prediction, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	p, ok := s.ema[id]
	if !ok {
		return nil, false
	}
	return maps.Clone(p), true
}
