package container

// Ring 固定容量环形缓冲区
// 功能：写满后覆盖最旧的元素
// 说明：非线程安全，由调用方加锁
type Ring[T any] struct {
	data     []T
	position int // 下一次写入位置
	capacity int
}

// NewRing 创建容量为capacity的环形缓冲区
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("container: ring capacity must be positive")
	}
	return &Ring[T]{
		data:     make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Push 写入元素，满时覆盖最旧的元素
func (r *Ring[T]) Push(v T) {
	if len(r.data) < r.capacity {
		r.data = append(r.data, v)
	} else {
		r.data[r.position] = v
	}
	r.position = (r.position + 1) % r.capacity
}

// Len 当前元素个数
func (r *Ring[T]) Len() int {
	return len(r.data)
}

// Cap 容量
func (r *Ring[T]) Cap() int {
	return r.capacity
}

// At 按存储下标获取元素
func (r *Ring[T]) At(i int) T {
	return r.data[i]
}

// Pick 按下标列表取出元素
// 功能：配合随机下标实现均匀抽样
func (r *Ring[T]) Pick(indices []int) []T {
	out := make([]T, len(indices))
	for i, idx := range indices {
		out[i] = r.data[idx]
	}
	return out
}

// Oldest 按写入顺序从旧到新返回全部元素
func (r *Ring[T]) Oldest() []T {
	out := make([]T, 0, len(r.data))
	if len(r.data) < r.capacity {
		return append(out, r.data...)
	}
	out = append(out, r.data[r.position:]...)
	return append(out, r.data[:r.position]...)
}
