package junction

import (
	"cmp"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity/junction/trafficlight"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/config"
	"golang.org/x/sync/errgroup"
)

// JunctionManager 路口相位决策管理器
// 功能：对一个周期内的全部路口执行 选择->相邻协调->去抖提交 三个阶段
// 说明：选择阶段各路口相互独立，可并行；相邻协调必须等全部路口完成选择
type JunctionManager struct {
	useFuzzy        bool
	adjacencyWeight float64
	adjacency       map[string]string
	priority        PriorityConfig
	grid            *Grid
	workers         int

	mtx       sync.RWMutex
	overrides map[string]entity.Phase // 人工指定的放行轴
	last      map[string]Decision     // 最近一次提交的决策
}

// NewManager 创建路口决策管理器
// 参数：rc-运行时配置
// 返回：新创建的管理器实例
func NewManager(rc *config.RuntimeConfig) *JunctionManager {
	c := rc.C
	return &JunctionManager{
		useFuzzy:        c.UseFuzzyLogic,
		adjacencyWeight: c.AdjacencyWeight,
		adjacency:       c.Adjacency,
		priority: PriorityConfig{
			Time:         c.SchoolBusTime,
			Intersection: c.SchoolIntersection,
		},
		grid:      NewGrid(c.Grid.Rows, c.Grid.Cols),
		workers:   runtime.GOMAXPROCS(0),
		overrides: make(map[string]entity.Phase),
		last:      make(map[string]Decision),
	}
}

// Grid 网格拓扑
func (m *JunctionManager) Grid() *Grid {
	return m.grid
}

// Select 选择阶段与相邻协调
// 功能：并行计算各路口的相位提议，全部完成后执行相邻协调
// 参数：snapshots-本周期全部路口快照，hhmm-当前挂钟时刻
// 返回：路口ID->决策
func (m *JunctionManager) Select(snapshots []entity.Snapshot, hhmm string) map[string]*Decision {
	roads := lo.SliceToMap(snapshots, func(s entity.Snapshot) (string, entity.Intersection) {
		return s.ID, s.Roads
	})
	out := make([]*Decision, len(snapshots))
	var g errgroup.Group
	g.SetLimit(m.workers)
	for i, s := range snapshots {
		g.Go(func() error {
			neighbours := make([]entity.Intersection, 0, 4)
			for _, id := range m.grid.Neighbours(s.ID) {
				if r, ok := roads[id]; ok {
					neighbours = append(neighbours, r)
				}
			}
			out[i] = m.decide(s, neighbours, hhmm)
			return nil
		})
	}
	_ = g.Wait()

	decisions := lo.SliceToMap(out, func(d *Decision) (string, *Decision) {
		return d.ID, d
	})
	ResolveAdjacency(decisions, m.adjacency)
	return decisions
}

// Commit 去抖提交阶段
// 功能：将非紧急路口的相位提议提交给去抖状态机，得到本周期实际放行的轴
// 参数：decisions-选择阶段的结果（原地写入Green），store-去抖状态，now-本周期时刻
// 说明：EMERGENCY直接放行子相位，不修改去抖状态
func (m *JunctionManager) Commit(decisions map[string]*Decision, store *trafficlight.PhaseStore, now time.Time) {
	ids := lo.Keys(decisions)
	slices.Sort(ids)
	for _, id := range ids {
		d := decisions[id]
		if d.IsEmergency() {
			d.Green = d.SubPhase
			continue
		}
		committed, _ := store.Propose(id, d.Phase, now)
		if committed != d.Phase {
			log.Debugf("intersection %s holds %s, proposal %s dropped", id, committed, d.Phase)
			d.Reason = ReasonDebounce
		}
		d.Green = committed
	}

	m.mtx.Lock()
	for id, d := range decisions {
		m.last[id] = *d
	}
	m.mtx.Unlock()
}

// Last 最近一次提交的决策，按路口ID排序
func (m *JunctionManager) Last() []Decision {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	out := lo.Values(m.last)
	slices.SortFunc(out, func(a, b Decision) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
