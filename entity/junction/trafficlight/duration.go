package trafficlight

import (
	"math"
	"time"

	"github.com/samber/lo"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/config"
)

// 回归模型输出的绿灯时长范围（秒）
const (
	RegressionMinGreen = 10.
	RegressionMaxGreen = 120.
)

// DurationRequest 绿灯时长计算请求
type DurationRequest struct {
	Intersection string
	Axis         entity.Phase // 本周期放行的轴
	Effective    float64      // 放行轴的有效需求
	Now          time.Time
}

// 绿灯时长策略接口
type IDurationStrategy interface {
	Mode() entity.Mode                    // 策略对应的模式标签
	Duration(req DurationRequest) float64 // 计算绿灯时长（秒）
}

// ReactiveConfig 反应式策略参数
type ReactiveConfig struct {
	Base               float64
	ExtensionFactor    float64
	MaxExtension       float64
	SchoolTime         string        // 放学窗口开始时刻 HH:MM
	SchoolWindow       time.Duration // 放学窗口长度
	SchoolIntersection string
	SchoolRoad         entity.Road // 为空时对路口两个轴都生效
	SchoolBoost        float64
}

// NewReactiveConfig 从运行时配置生成反应式策略参数
func NewReactiveConfig(c config.Control) ReactiveConfig {
	return ReactiveConfig{
		Base:               c.BaseDuration,
		ExtensionFactor:    c.ExtensionFactor,
		MaxExtension:       c.MaxExtension,
		SchoolTime:         c.SchoolBusTime,
		SchoolWindow:       c.SchoolWindow,
		SchoolIntersection: c.SchoolIntersection,
		SchoolRoad:         entity.Road(c.SchoolRoad),
		SchoolBoost:        c.SchoolBoost,
	}
}

// Reactive 反应式线性延长策略
type Reactive struct {
	cfg         ReactiveConfig
	schoolStart int // 放学窗口开始的当日分钟数，-1表示未配置
}

// NewReactive 创建反应式策略
func NewReactive(cfg ReactiveConfig) *Reactive {
	r := &Reactive{cfg: cfg, schoolStart: -1}
	if cfg.SchoolTime != "" && cfg.SchoolIntersection != "" {
		if m, err := config.ParseClock(cfg.SchoolTime); err == nil {
			r.schoolStart = m
		} else {
			log.Warnf("school window disabled: %v", err)
		}
	}
	return r
}

func (r *Reactive) Mode() entity.Mode {
	return entity.ModeNormal
}

// Duration 反应式绿灯时长
// 算法说明：
// 1. base + min(effective*extension_factor, max_extension)
// 2. 放学窗口内对配置路口/进口道乘以加成倍率
// 3. 结果限制在[base, base+max_extension]
func (r *Reactive) Duration(req DurationRequest) float64 {
	d := r.cfg.Base + math.Min(math.Max(req.Effective, 0)*r.cfg.ExtensionFactor, r.cfg.MaxExtension)
	if r.inSchoolWindow(req) {
		d *= r.cfg.SchoolBoost
	}
	return lo.Clamp(round1(d), r.cfg.Base, r.cfg.Base+r.cfg.MaxExtension)
}

// Bounds 反应式时长的上下界
func (r *Reactive) Bounds() (float64, float64) {
	return r.cfg.Base, r.cfg.Base + r.cfg.MaxExtension
}

func (r *Reactive) inSchoolWindow(req DurationRequest) bool {
	if r.schoolStart < 0 || req.Intersection != r.cfg.SchoolIntersection {
		return false
	}
	if r.cfg.SchoolRoad != "" && r.cfg.SchoolRoad.Axis() != req.Axis {
		return false
	}
	window := r.cfg.SchoolWindow
	if window <= 0 {
		window = time.Minute
	}
	t := req.Now
	elapsed := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second - time.Duration(r.schoolStart)*time.Minute
	return elapsed >= 0 && elapsed < window
}

// Regression 回归模型策略
type Regression struct {
	model entity.IDurationModel
}

// NewRegression 创建回归策略，model为nil时返回nil
func NewRegression(model entity.IDurationModel) *Regression {
	if model == nil {
		return nil
	}
	return &Regression{model: model}
}

func (r *Regression) Mode() entity.Mode {
	return entity.ModeML
}

// Duration 回归模型预测的绿灯时长，限制在[10, 120]
func (r *Regression) Duration(req DurationRequest) float64 {
	d := r.model.PredictOptimalGreen(req.Effective, req.Now)
	if math.IsNaN(d) {
		d = RegressionMinGreen
	}
	return round1(lo.Clamp(d, RegressionMinGreen, RegressionMaxGreen))
}

// Learned 强化学习策略
// 说明：时长取自本周期的智能体建议，缺少建议的路口退回fallback
type Learned struct {
	recs     entity.Recommendations
	fallback IDurationStrategy
}

// NewLearned 创建本周期的强化学习策略
func NewLearned(recs entity.Recommendations, fallback IDurationStrategy) *Learned {
	return &Learned{recs: recs, fallback: fallback}
}

func (l *Learned) Mode() entity.Mode {
	return entity.ModeRL
}

func (l *Learned) Duration(req DurationRequest) float64 {
	if roads, ok := l.recs[req.Intersection]; ok {
		for _, road := range entity.Roads {
			if rec, ok := roads[road]; ok {
				return rec.DynamicDuration
			}
		}
	}
	return l.fallback.Duration(req)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
