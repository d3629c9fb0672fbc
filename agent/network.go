package agent

import (
	"errors"
	"fmt"
	"math"

	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/randengine"
	"gonum.org/v1/gonum/mat"
)

// Adam优化器参数
const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

var (
	ErrShapeMismatch = errors.New("agent: network shape mismatch")
)

// layer 全连接层及其Adam一阶、二阶矩
type layer struct {
	w      *mat.Dense    // out×in
	b      *mat.VecDense // out
	mw, vw *mat.Dense
	mb, vb *mat.VecDense
}

func newLayer(in, out int, rng *randengine.Engine) *layer {
	// He初始化
	scale := math.Sqrt(2 / float64(in))
	w := make([]float64, in*out)
	for i := range w {
		w[i] = rng.NormFloat64Safe() * scale
	}
	return &layer{
		w:  mat.NewDense(out, in, w),
		b:  mat.NewVecDense(out, nil),
		mw: mat.NewDense(out, in, nil),
		vw: mat.NewDense(out, in, nil),
		mb: mat.NewVecDense(out, nil),
		vb: mat.NewVecDense(out, nil),
	}
}

// Network 多层感知机值函数近似器
// 功能：隐藏层使用ReLU，输出层线性，输出每个动作的Q值
// 说明：非线程安全，由Agent加锁
type Network struct {
	sizes  []int
	layers []*layer
	lr     float64
	step   int // Adam步数
}

// NewNetwork 创建网络
// 参数：sizes-各层宽度（含输入与输出），lr-学习率，rng-权重初始化随机数引擎
func NewNetwork(sizes []int, lr float64, rng *randengine.Engine) *Network {
	if len(sizes) < 2 {
		panic("agent: network needs at least input and output layer")
	}
	n := &Network{sizes: append([]int(nil), sizes...), lr: lr}
	for i := 0; i+1 < len(sizes); i++ {
		n.layers = append(n.layers, newLayer(sizes[i], sizes[i+1], rng))
	}
	return n
}

// Sizes 各层宽度
func (n *Network) Sizes() []int {
	return append([]int(nil), n.sizes...)
}

// Forward 前向计算
// 参数：x-输入向量，长度等于输入层宽度
// 返回：各动作的Q值
func (n *Network) Forward(x []float64) []float64 {
	acts, _ := n.forward(mat.NewVecDense(len(x), append([]float64(nil), x...)))
	out := acts[len(acts)-1]
	return append([]float64(nil), out.RawVector().Data...)
}

// forward 返回每层的激活值（acts[0]为输入）与激活前的值
func (n *Network) forward(x *mat.VecDense) (acts, pre []*mat.VecDense) {
	acts = append(acts, x)
	for i, l := range n.layers {
		r, _ := l.w.Dims()
		z := mat.NewVecDense(r, nil)
		z.MulVec(l.w, acts[i])
		z.AddVec(z, l.b)
		pre = append(pre, z)
		a := mat.VecDenseCopyOf(z)
		if i+1 < len(n.layers) {
			relu(a)
		}
		acts = append(acts, a)
	}
	return acts, pre
}

// TrainBatch 对一个批次做一次梯度下降
// 参数：states-状态，actions-所选动作，targets-目标Q值
// 返回：批次均方误差（仅所选动作）
// 算法说明：
// 1. 逐样本反向传播并累加梯度，输出层只有所选动作有误差
// 2. 梯度按批次大小取平均后执行一次Adam更新
func (n *Network) TrainBatch(states [][]float64, actions []int, targets []float64) float64 {
	batch := len(states)
	if batch == 0 {
		return 0
	}
	gw := make([]*mat.Dense, len(n.layers))
	gb := make([]*mat.VecDense, len(n.layers))
	for i, l := range n.layers {
		r, c := l.w.Dims()
		gw[i] = mat.NewDense(r, c, nil)
		gb[i] = mat.NewVecDense(r, nil)
	}

	loss := 0.
	for s := range states {
		acts, pre := n.forward(mat.NewVecDense(len(states[s]), append([]float64(nil), states[s]...)))
		out := acts[len(acts)-1]
		diff := out.AtVec(actions[s]) - targets[s]
		loss += diff * diff

		delta := mat.NewVecDense(out.Len(), nil)
		delta.SetVec(actions[s], 2*diff/float64(batch))
		for i := len(n.layers) - 1; i >= 0; i-- {
			gw[i].RankOne(gw[i], 1, delta, acts[i])
			gb[i].AddVec(gb[i], delta)
			if i == 0 {
				break
			}
			next := mat.NewVecDense(acts[i].Len(), nil)
			next.MulVec(n.layers[i].w.T(), delta)
			for j := 0; j < next.Len(); j++ {
				if pre[i-1].AtVec(j) <= 0 {
					next.SetVec(j, 0)
				}
			}
			delta = next
		}
	}

	n.step++
	c1 := 1 - math.Pow(adamBeta1, float64(n.step))
	c2 := 1 - math.Pow(adamBeta2, float64(n.step))
	for i, l := range n.layers {
		adam(l.w.RawMatrix().Data, l.mw.RawMatrix().Data, l.vw.RawMatrix().Data, gw[i].RawMatrix().Data, n.lr, c1, c2)
		adam(l.b.RawVector().Data, l.mb.RawVector().Data, l.vb.RawVector().Data, gb[i].RawVector().Data, n.lr, c1, c2)
	}
	return loss / float64(batch)
}

// adam 原地更新参数
func adam(param, m, v, g []float64, lr, c1, c2 float64) {
	for i := range param {
		m[i] = adamBeta1*m[i] + (1-adamBeta1)*g[i]
		v[i] = adamBeta2*v[i] + (1-adamBeta2)*g[i]*g[i]
		param[i] -= lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + adamEpsilon)
	}
}

func relu(v *mat.VecDense) {
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) < 0 {
			v.SetVec(i, 0)
		}
	}
}

// Weights 导出权重与偏置（按层，行优先）
func (n *Network) Weights() (weights, biases [][]float64) {
	for _, l := range n.layers {
		weights = append(weights, append([]float64(nil), l.w.RawMatrix().Data...))
		biases = append(biases, append([]float64(nil), l.b.RawVector().Data...))
	}
	return weights, biases
}

// SetWeights 载入权重与偏置，形状必须与网络一致，Adam矩清零
func (n *Network) SetWeights(weights, biases [][]float64) error {
	if len(weights) != len(n.layers) || len(biases) != len(n.layers) {
		return fmt.Errorf("%w: %d layers, got %d/%d", ErrShapeMismatch, len(n.layers), len(weights), len(biases))
	}
	for i, l := range n.layers {
		r, c := l.w.Dims()
		if len(weights[i]) != r*c || len(biases[i]) != r {
			return fmt.Errorf("%w: layer %d", ErrShapeMismatch, i)
		}
	}
	for i, l := range n.layers {
		r, c := l.w.Dims()
		l.w = mat.NewDense(r, c, append([]float64(nil), weights[i]...))
		l.b = mat.NewVecDense(r, append([]float64(nil), biases[i]...))
		l.mw, l.vw = mat.NewDense(r, c, nil), mat.NewDense(r, c, nil)
		l.mb, l.vb = mat.NewVecDense(r, nil), mat.NewVecDense(r, nil)
	}
	n.step = 0
	return nil
}
