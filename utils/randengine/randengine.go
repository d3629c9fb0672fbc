// 随机数引擎，包装了golang.org/x/exp/rand，供强化学习探索、经验采样与合成数据生成使用
package randengine

import (
	"flag"
	"sync"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 功能：线程安全的随机数生成，训练协程与决策周期可共用同一实例
type Engine struct {
	*rand.Rand            // 底层随机数生成器（非线程安全方法直接使用）
	mtx        sync.Mutex // 互斥锁，用于线程安全操作
}

// New 创建随机数引擎
// 参数：seed-随机数种子
// 返回：随机数引擎指针
// 说明：种子偏移量允许在不修改配置的情况下调整随机数序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// PTrueSafe 以指定概率返回true（线程安全）
// 参数：p-返回true的概率（0.0到1.0之间）
func (e *Engine) PTrueSafe(p float64) bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64() < p
}

// IntnSafe 随机生成[0, n)内的整数（线程安全）
func (e *Engine) IntnSafe(n int) int {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Intn(n)
}

// Float64Safe 随机生成[0.0, 1.0)内的浮点数（线程安全）
func (e *Engine) Float64Safe() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64()
}

// NormFloat64Safe 随机生成标准正态分布浮点数（线程安全）
func (e *Engine) NormFloat64Safe() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.NormFloat64()
}

// PermSafe 生成[0, n)的随机排列中的前k个（线程安全）
// 功能：无放回均匀抽样
// 算法说明：部分Fisher-Yates洗牌，只交换前k个位置
func (e *Engine) PermSafe(n, k int) []int {
	if k > n {
		k = n
	}
	e.mtx.Lock()
	defer e.mtx.Unlock()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + e.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
