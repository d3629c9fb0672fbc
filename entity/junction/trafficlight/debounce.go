package trafficlight

import (
	"maps"
	"sync"
	"time"

	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
)

// PhaseState 路口已生效的相位及其生效时刻
type PhaseState struct {
	Phase entity.Phase `json:"phase"`
	Since time.Time    `json:"since"`
}

// PhaseStore 去抖状态机
// 功能：每个路口一个状态，相位切换前必须在当前相位保持至少minDuration
// 说明：
//   - 首次观测到路口时立即生效
//   - 提议与当前相位相同时不变，时刻不刷新
//   - 提议不同且保持时间不足时丢弃提议（不排队）
//   - 状态在进程生命周期内只增不删，重启后清空
//   - 由周期调用方持有并传入每次决策，写操作互斥
type PhaseStore struct {
	mtx         sync.Mutex
	minDuration time.Duration
	states      map[string]PhaseState
}

// NewPhaseStore 创建去抖状态存储
// 参数：minDuration-最小相位保持时间
func NewPhaseStore(minDuration time.Duration) *PhaseStore {
	return &PhaseStore{
		minDuration: minDuration,
		states:      make(map[string]PhaseState),
	}
}

// Propose 提交本周期的相位提议
// 参数：id-路口ID，proposed-提议相位（A/B），now-本周期时刻
// 返回：本周期生效的相位，是否发生了切换
func (s *PhaseStore) Propose(id string, proposed entity.Phase, now time.Time) (entity.Phase, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	st, ok := s.states[id]
	if !ok {
		s.states[id] = PhaseState{Phase: proposed, Since: now}
		return proposed, true
	}
	if st.Phase == proposed {
		return st.Phase, false
	}
	if now.Sub(st.Since) >= s.minDuration {
		s.states[id] = PhaseState{Phase: proposed, Since: now}
		log.Debugf("intersection %s phase %s -> %s after %v", id, st.Phase, proposed, now.Sub(st.Since))
		return proposed, true
	}
	return st.Phase, false
}

// Get 获取路口当前状态
func (s *PhaseStore) Get(id string) (PhaseState, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	st, ok := s.states[id]
	return st, ok
}

// Snapshot 复制全部状态
func (s *PhaseStore) Snapshot() map[string]PhaseState {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return maps.Clone(s.states)
}

// MinDuration 最小相位保持时间
func (s *PhaseStore) MinDuration() time.Duration {
	return s.minDuration
}
