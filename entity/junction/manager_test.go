package junction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity/junction/trafficlight"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/config"
	"golang.org/x/exp/rand"
)

func newTestManager(t *testing.T, c config.Config) *JunctionManager {
	t.Helper()
	rc, err := config.NewRuntimeConfig(c)
	require.NoError(t, err)
	return NewManager(rc)
}

func snapshot(id string, roads entity.Intersection) entity.Snapshot {
	pred := entity.Prediction{}
	for road, c := range roads {
		pred[road] = float64(c.Get(entity.Car))
	}
	return entity.Snapshot{ID: id, Roads: roads, Prediction: pred}
}

func TestSelectAndCommitDebounce(t *testing.T) {
	m := newTestManager(t, config.Config{})
	store := trafficlight.NewPhaseStore(5 * time.Second)
	t0 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.Local)

	// 第一周期：南北10辆，东西1辆 -> A
	first := []entity.Snapshot{snapshot("1", entity.Intersection{
		entity.North: {entity.Car: 5},
		entity.South: {entity.Car: 5},
		entity.East:  {entity.Car: 1},
		entity.West:  {entity.Car: 0},
	})}
	decisions := m.Select(first, "09:00")
	m.Commit(decisions, store, t0)
	assert.Equal(t, entity.PhaseA, decisions["1"].Green)

	// 2秒后需求翻转，去抖保持A
	flipped := []entity.Snapshot{snapshot("1", entity.Intersection{
		entity.North: {entity.Car: 1},
		entity.South: {entity.Car: 0},
		entity.East:  {entity.Car: 5},
		entity.West:  {entity.Car: 5},
	})}
	decisions = m.Select(flipped, "09:00")
	assert.Equal(t, entity.PhaseB, decisions["1"].Phase)
	m.Commit(decisions, store, t0.Add(2*time.Second))
	assert.Equal(t, entity.PhaseA, decisions["1"].Green)
	assert.Equal(t, ReasonDebounce, decisions["1"].Reason)

	// 5秒后允许切换
	decisions = m.Select(flipped, "09:00")
	m.Commit(decisions, store, t0.Add(5*time.Second))
	assert.Equal(t, entity.PhaseB, decisions["1"].Green)
}

func TestEmergencyOverridesEverything(t *testing.T) {
	m := newTestManager(t, config.Config{
		Adjacency: map[string]string{"1": "2"},
	})
	store := trafficlight.NewPhaseStore(5 * time.Second)
	t0 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.Local)

	snaps := []entity.Snapshot{
		snapshot("1", entity.Intersection{
			entity.North: {entity.Car: 20},
			entity.West:  {entity.Ambulance: 1},
		}),
		snapshot("2", entity.Intersection{entity.North: {entity.Car: 3}}),
	}
	// 路口1已提交为A
	store.Propose("1", entity.PhaseA, t0)

	decisions := m.Select(snaps, "09:00")
	m.Commit(decisions, store, t0.Add(time.Second))
	d := decisions["1"]
	assert.Equal(t, entity.PhaseEmergency, d.Phase)
	assert.Equal(t, entity.PhaseB, d.SubPhase)
	assert.Equal(t, entity.PhaseB, d.Green)
	// 紧急优先不修改去抖状态
	st, _ := store.Get("1")
	assert.Equal(t, entity.PhaseA, st.Phase)
}

func TestAdjacentIntersectionsAgree(t *testing.T) {
	m := newTestManager(t, config.Config{
		Adjacency: map[string]string{"1": "2"},
	})
	snaps := []entity.Snapshot{
		snapshot("1", entity.Intersection{entity.North: {entity.Car: 10}, entity.East: {entity.Car: 2}}),
		snapshot("2", entity.Intersection{entity.North: {entity.Car: 3}, entity.East: {entity.Car: 8}}),
	}
	decisions := m.Select(snaps, "09:00")
	assert.Equal(t, entity.PhaseA, decisions["1"].Phase)
	assert.Equal(t, entity.PhaseA, decisions["2"].Phase)
}

func TestGridNeighbourDemand(t *testing.T) {
	weight := 1.
	m := newTestManager(t, config.Config{
		Grid:            config.Grid{Rows: 1, Cols: 2},
		AdjacencyWeight: &weight,
	})
	snaps := []entity.Snapshot{
		snapshot("1", entity.Intersection{entity.North: {entity.Car: 2}, entity.East: {entity.Car: 3}}),
		snapshot("2", entity.Intersection{entity.South: {entity.Car: 6}, entity.West: {entity.Car: 1}}),
	}
	decisions := m.Select(snaps, "09:00")
	// 路口1：A=2+6，B=3+1
	assert.InDelta(t, 8., decisions["1"].Demand.A, 1e-9)
	assert.InDelta(t, 4., decisions["1"].Demand.B, 1e-9)
	assert.Equal(t, entity.PhaseA, decisions["1"].Phase)
}

func TestSchoolPriorityWindow(t *testing.T) {
	m := newTestManager(t, config.Config{
		SchoolBusTime:      "15:10",
		SchoolIntersection: "1",
	})
	snaps := []entity.Snapshot{snapshot("1", entity.Intersection{
		entity.North: {entity.Car: 30},
		entity.East:  {entity.Car: 1, entity.SchoolBus: 1},
	})}
	assert.Equal(t, entity.PhaseA, m.Select(snaps, "15:09")["1"].Phase)
	d := m.Select(snaps, "15:10")["1"]
	assert.Equal(t, entity.PhaseB, d.Phase)
	assert.Equal(t, ReasonSchoolBus, d.Reason)
}

// 去抖性质：相邻两次生效的相位切换间隔不小于最小保持时间
func TestDebounceIntervalProperty(t *testing.T) {
	m := newTestManager(t, config.Config{})
	minDuration := 5 * time.Second
	store := trafficlight.NewPhaseStore(minDuration)
	rng := rand.New(rand.NewSource(7))
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.Local)

	var lastChange time.Time
	var last entity.Phase
	for i := 0; i < 500; i++ {
		now = now.Add(time.Duration(rng.Intn(3000)) * time.Millisecond)
		snaps := []entity.Snapshot{snapshot("1", entity.Intersection{
			entity.North: {entity.Car: rng.Intn(10)},
			entity.East:  {entity.Car: rng.Intn(10)},
		})}
		decisions := m.Select(snaps, "09:00")
		m.Commit(decisions, store, now)
		green := decisions["1"].Green
		if last != "" && green != last {
			assert.GreaterOrEqual(t, now.Sub(lastChange), minDuration)
		}
		if green != last {
			lastChange = now
			last = green
		}
	}
}
