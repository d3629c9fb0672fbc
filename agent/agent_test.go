package agent

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/config"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/randengine"
)

type fixedSampler struct{ weather, conn float64 }

func (s fixedSampler) Weather() float64      { return s.weather }
func (s fixedSampler) Connectivity() float64 { return s.conn }

// fixedEnv 每一步返回同一状态
type fixedEnv struct {
	state State
	steps int
}

func (e *fixedEnv) Reset() State { return e.state }

func (e *fixedEnv) Step(s State, action int) (float64, State, bool) {
	e.steps++
	return Reward(s, action), e.state, false
}

func testConfig() Config {
	return Config{
		Epsilon:         0.2,
		Gamma:           0.9,
		LearningRate:    1e-3,
		BatchSize:       8,
		Capacity:        100,
		Seed:            3,
		Base:            10,
		ExtensionFactor: 0.5,
		MaxExtension:    20,
	}
}

func TestReward(t *testing.T) {
	s := State{12, 4, 0.5, 0.9}
	assert.Equal(t, -5., Reward(s, ActionA))
	assert.Equal(t, -13., Reward(s, ActionB))
}

func TestSimulatedEnvRange(t *testing.T) {
	env := NewSimulatedEnv(randengine.New(1))
	s := env.Reset()
	for i := 0; i < 200; i++ {
		reward, next, done := env.Step(s, i%2)
		assert.False(t, done)
		assert.LessOrEqual(t, reward, 0.)
		for _, c := range next[:stateWeather] {
			assert.GreaterOrEqual(t, c, 0.)
			assert.LessOrEqual(t, c, 20.)
		}
		assert.Less(t, next[stateWeather], 1.)
		s = next
	}
}

func TestNetworkFitsTarget(t *testing.T) {
	n := NewNetwork([]int{4, 16, 2}, 1e-2, randengine.New(5))
	x := []float64{1, 2, 0.5, 0.5}
	first := n.TrainBatch([][]float64{x}, []int{0}, []float64{5})
	var last float64
	for i := 0; i < 1000; i++ {
		last = n.TrainBatch([][]float64{x}, []int{0}, []float64{5})
	}
	assert.Less(t, last, first)
	assert.InDelta(t, 5., n.Forward(x)[0], 0.5)
}

func TestChooseAction(t *testing.T) {
	cfg := testConfig()
	cfg.Epsilon = 0
	a := New(cfg, nil)
	s := State{3, 9, 0.1, 0.2}
	q := a.QValues(s)
	require.Len(t, q, 2)
	for i := 0; i < 10; i++ {
		assert.Equal(t, greedy(q), a.ChooseAction(s))
	}

	cfg.Epsilon = 1
	a = New(cfg, nil)
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		seen[a.ChooseAction(s)] = true
	}
	assert.True(t, seen[ActionA])
	assert.True(t, seen[ActionB])
}

func TestGreedyServingFromConfig(t *testing.T) {
	c, err := config.Load([]byte("rl:\n  epsilon: 0\n  batch_size: 8\n  buffer_capacity: 100\n"))
	require.NoError(t, err)
	rc, err := config.NewRuntimeConfig(c)
	require.NoError(t, err)
	cfg := NewConfig(rc)
	assert.Equal(t, 0., cfg.Epsilon)

	a := New(cfg, nil)
	s := State{14, 2, 0.5, 0.5}
	want := greedy(a.QValues(s))
	for i := 0; i < 100; i++ {
		assert.Equal(t, want, a.ChooseAction(s))
	}
}

func TestGreedyTieFavoursA(t *testing.T) {
	assert.Equal(t, ActionA, greedy([]float64{1, 1}))
	assert.Equal(t, ActionB, greedy([]float64{1, 2}))
}

func TestUpdateNeedsFullBatch(t *testing.T) {
	a := New(testConfig(), nil)
	tr := Transition{State: State{1, 2, 0, 0}, Action: ActionA, Reward: -2, Next: State{2, 1, 0, 0}}
	for i := 0; i < 7; i++ {
		a.Push(tr)
		_, ok := a.Update()
		assert.False(t, ok)
	}
	a.Push(tr)
	_, ok := a.Update()
	assert.True(t, ok)
}

func TestTrainStats(t *testing.T) {
	a := New(testConfig(), nil)
	env := &fixedEnv{state: State{10, 2, 0.3, 0.5}}
	stats := a.Train(env, 5, 10)
	assert.Equal(t, 5, stats.Episodes)
	assert.Equal(t, 50, stats.Steps)
	assert.Equal(t, 43, stats.Updates)
	assert.Equal(t, 50, env.steps)
	assert.Equal(t, 50, a.BufferLen())
	assert.False(t, math.IsNaN(stats.MeanLoss))
	assert.Less(t, stats.MeanReward, 0.)

	// 经验回放容量上限
	cfg := testConfig()
	cfg.Capacity = 16
	a = New(cfg, nil)
	a.Train(env, 2, 25)
	assert.Equal(t, 16, a.BufferLen())
}

func TestTrainLearnsPreference(t *testing.T) {
	cfg := testConfig()
	cfg.LearningRate = 5e-3
	cfg.Gamma = 0
	a := New(cfg, nil)
	// 南北拥堵：放行A的奖励高于放行B
	env := &fixedEnv{state: State{18, 1, 0, 0.5}}
	a.Train(env, 40, 10)
	q := a.QValues(env.state)
	assert.Greater(t, q[ActionA], q[ActionB])
}

func TestGetOptimalSignals(t *testing.T) {
	cfg := testConfig()
	cfg.Epsilon = 0
	a := New(cfg, fixedSampler{weather: 0.4, conn: 0.6})
	traffic := entity.TrafficData{
		"1": {entity.North: {entity.Car: 6}, entity.South: {entity.Car: 4}, entity.East: {entity.Car: 80}},
		"2": {},
	}
	recs := a.GetOptimalSignals(traffic)
	require.Len(t, recs, 2)

	q := a.QValues(State{10, 80, 0.4, 0.6})
	green := entity.PhaseA
	want := 15.
	if greedy(q) == ActionB {
		green, want = entity.PhaseB, 30.
	}
	for _, road := range entity.Roads {
		rec := recs["1"][road]
		assert.Equal(t, entity.SignalFor(road, green), rec.Signal)
		assert.Equal(t, want, rec.DynamicDuration)
	}
	assert.Len(t, recs["2"], 4)
	assert.Equal(t, 10., recs["2"][entity.North].DynamicDuration)
}

func TestPersistRoundTrip(t *testing.T) {
	a := New(testConfig(), nil)
	a.Train(&fixedEnv{state: State{5, 7, 0.2, 0.3}}, 3, 10)
	s := State{4, 11, 0.7, 0.1}
	want := a.QValues(s)

	path := filepath.Join(t.TempDir(), "model.msgpack")
	require.NoError(t, a.Save(path))

	cfg := testConfig()
	cfg.Seed = 99
	b := New(cfg, nil)
	require.NoError(t, b.Load(path))
	assert.InDeltaSlice(t, want, b.QValues(s), 1e-12)
}

func TestRestoreRejectsMismatch(t *testing.T) {
	a := New(testConfig(), nil)
	snap := a.Snapshot()

	bad := snap
	bad.Version = 7
	assert.ErrorIs(t, a.Restore(bad), ErrSnapshotVersion)

	bad = snap
	bad.Sizes = []int{4, 8, 2}
	assert.ErrorIs(t, a.Restore(bad), ErrShapeMismatch)

	var buf bytes.Buffer
	buf.WriteString("not msgpack")
	assert.Error(t, a.Decode(&buf))
}
