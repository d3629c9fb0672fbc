package predictor

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/clock"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/randengine"
	"gonum.org/v1/gonum/mat"
)

// 预测值范围（秒）
const (
	MinGreen = 10.
	MaxGreen = 120.
)

// 合成训练数据参数
const (
	syntheticSamples   = 100
	syntheticMaxCount  = 30
	syntheticNoiseStd  = 2.
	syntheticIntercept = 10.
	syntheticSlope     = 0.5
)

var (
	ErrNotEnoughSamples = errors.New("predictor: not enough samples")
	ErrNotTrained       = errors.New("predictor: model not trained")
)

// Sample 一条训练样本
type Sample struct {
	Effective float64 // 放行轴有效需求
	Hour      float64 // 当日小时（含分钟的小数部分）
	Green     float64 // 绿灯时长（秒）
}

// Regression 绿灯时长线性回归模型
// 功能：green ≈ β0 + β1·effective + β2·hour，最小二乘拟合
// 说明：未训练时在第一次预测前用合成数据自动训练
type Regression struct {
	mtx  sync.RWMutex
	seed uint64
	beta *mat.VecDense // nil表示未训练
}

// NewRegression 创建未训练的回归模型
// 参数：seed-合成数据的随机种子
func NewRegression(seed uint64) *Regression {
	return &Regression{seed: seed}
}

// Trained 是否已训练
func (r *Regression) Trained() bool {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.beta != nil
}

// Coefficients 返回截距、需求系数与小时系数，未训练时返回错误
func (r *Regression) Coefficients() (intercept, effective, hour float64, err error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if r.beta == nil {
		return 0, 0, 0, ErrNotTrained
	}
	return r.beta.AtVec(0), r.beta.AtVec(1), r.beta.AtVec(2), nil
}

// Fit 用样本训练模型
// 算法说明：设计矩阵每行为[1, effective, hour]，用QR分解求最小二乘解
func (r *Regression) Fit(samples []Sample) error {
	if len(samples) < 3 {
		return fmt.Errorf("%w: got %d, need 3", ErrNotEnoughSamples, len(samples))
	}
	x := mat.NewDense(len(samples), 3, nil)
	y := mat.NewVecDense(len(samples), nil)
	for i, s := range samples {
		x.SetRow(i, []float64{1, s.Effective, s.Hour})
		y.SetVec(i, s.Green)
	}
	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return fmt.Errorf("predictor: least squares: %w", err)
	}
	r.mtx.Lock()
	r.beta = &beta
	r.mtx.Unlock()
	log.Debugf("fitted on %d samples: %v", len(samples), mat.Formatted(beta.T(), mat.Squeeze()))
	return nil
}

// SyntheticSamples 生成合成训练数据
// 功能：effective为[0,30)内整数，hour为[0,24)内均匀分布，
// green = 10 + 0.5·effective + 2·hour/24 + N(0, 2)
func SyntheticSamples(seed uint64) []Sample {
	rng := randengine.New(seed)
	out := make([]Sample, syntheticSamples)
	for i := range out {
		eff := float64(rng.IntnSafe(syntheticMaxCount))
		hour := rng.Float64Safe() * 24
		noise := rng.NormFloat64Safe() * syntheticNoiseStd
		out[i] = Sample{
			Effective: eff,
			Hour:      hour,
			Green:     syntheticIntercept + syntheticSlope*eff + 2*(hour/24) + noise,
		}
	}
	return out
}

// TrainSynthetic 用合成数据训练
func (r *Regression) TrainSynthetic() error {
	return r.Fit(SyntheticSamples(r.seed))
}

// PredictOptimalGreen 预测绿灯时长
// 参数：effective-放行轴有效需求，t-当前时刻
// 返回：限制在[10, 120]内的时长（秒）
func (r *Regression) PredictOptimalGreen(effective float64, t time.Time) float64 {
	if !r.Trained() {
		if err := r.TrainSynthetic(); err != nil {
			log.Errorf("lazy training failed: %v", err)
			return MinGreen
		}
	}
	r.mtx.RLock()
	features := mat.NewVecDense(3, []float64{1, effective, clock.HourOfDay(t)})
	y := mat.Dot(features, r.beta)
	r.mtx.RUnlock()
	if math.IsNaN(y) {
		return MinGreen
	}
	return math.Max(MinGreen, math.Min(MaxGreen, y))
}
