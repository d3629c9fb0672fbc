package entity

import (
	"errors"
	"time"
)

var (
	ErrUnknownMode = errors.New("unknown operation mode")
)

// 依赖倒置，表达决策核心对外部协作者的接口需求

// 信号上报接口（即发即弃，不消费返回值，失败只记录日志）
type IReporter interface {
	Report(records []SignalRecord)
}

// 拥堵历史记录接口（仅追加，尽力而为）
type ICycleLogger interface {
	LogCycle(cycleID string, traffic TrafficData, ts time.Time) error
	LogSignals(cycleID string, records []SignalRecord, ts time.Time) error
}

// 绿灯时长回归模型接口
type IDurationModel interface {
	PredictOptimalGreen(effective float64, t time.Time) float64
}

// 强化学习相位建议接口
type IRecommender interface {
	GetOptimalSignals(traffic TrafficData) Recommendations
}
