package clock

import (
	"fmt"
	"sync"
	"time"
)

// Clock 决策周期时钟
// 功能：为每个检测周期提供统一的时间采样，同时服务于去抖（单调时钟）与时刻匹配（挂钟）
// 说明：time.Now()返回的时间带单调时钟读数，同一进程内相减不受系统时间调整影响
type Clock struct {
	mtx    sync.RWMutex
	source func() time.Time

	Cycle int64     // 当前周期序号，从1开始
	T     time.Time // 当前周期开始时刻
}

// New 创建使用系统时间的时钟
func New() *Clock {
	return NewWithSource(time.Now)
}

// NewWithSource 根据时间源创建时钟
// 功能：测试中注入手动时间源，保证去抖与时刻窗口可复现
// 参数：source-时间源
// 返回：初始化完成的时钟实例
func NewWithSource(source func() time.Time) *Clock {
	c := &Clock{source: source}
	c.T = source()
	return c
}

// Tick 进入下一个周期
// 功能：周期序号+1并重新采样当前时间
// 返回：本周期时刻
func (c *Clock) Tick() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.Cycle++
	c.T = c.source()
	return c.T
}

// Now 获取本周期时刻
func (c *Clock) Now() time.Time {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.T
}

// HHMM 获取本周期挂钟时刻的HH:MM表示，用于优先时段的精确匹配
func (c *Clock) HHMM() string {
	return c.Now().Format("15:04")
}

// GetHourMinuteSecond 获取当前时间的小时、分钟、秒
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	t := c.Now()
	second := float64(t.Second()) + float64(t.Nanosecond())/1e9
	return t.Hour(), t.Minute(), second
}

// HourOfDay 当日小时数（含分钟小数部分），作为回归模型的时间特征
func (c *Clock) HourOfDay() float64 {
	return HourOfDay(c.Now())
}

// HourOfDay 计算t的当日小时数
func HourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60.
}

// String 获取时钟的字符串表示
func (c *Clock) String() string {
	h, m, s := c.GetHourMinuteSecond()
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return fmt.Sprintf("#%d %02d:%02d:%02d", c.Cycle, h, m, int(s))
}

// Manual 手动推进的时间源
type Manual struct {
	mtx sync.Mutex
	t   time.Time
}

// NewManual 创建从start开始的手动时间源
func NewManual(start time.Time) *Manual {
	return &Manual{t: start}
}

// Now 当前时间
func (m *Manual) Now() time.Time {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.t
}

// Advance 推进d
func (m *Manual) Advance(d time.Duration) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.t = m.t.Add(d)
}

// Set 设置为t
func (m *Manual) Set(t time.Time) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.t = t
}
