package trafficlight

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/config"
)

func defaultControl(t *testing.T, c config.Config) config.Control {
	t.Helper()
	rc, err := config.NewRuntimeConfig(c)
	require.NoError(t, err)
	return rc.C
}

func TestReactiveDuration(t *testing.T) {
	r := NewReactive(NewReactiveConfig(defaultControl(t, config.Config{})))
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local)
	cases := []struct {
		effective float64
		want      float64
	}{
		{0, 10},
		{8, 14},
		{15, 17.5},
		{40, 30},
		{-3, 10},
	}
	for _, c := range cases {
		got := r.Duration(DurationRequest{Intersection: "1", Axis: entity.PhaseA, Effective: c.effective, Now: now})
		assert.InDelta(t, c.want, got, 1e-9, "effective=%v", c.effective)
	}
	lo, hi := r.Bounds()
	assert.Equal(t, 10., lo)
	assert.Equal(t, 30., hi)
}

func TestReactiveSchoolBoost(t *testing.T) {
	r := NewReactive(NewReactiveConfig(defaultControl(t, config.Config{
		SchoolBusTime:      "15:00",
		SchoolIntersection: "2",
		SchoolRoad:         "east",
	})))
	at := func(h, m int) time.Time { return time.Date(2026, 1, 5, h, m, 0, 0, time.Local) }
	req := DurationRequest{Intersection: "2", Axis: entity.PhaseB, Effective: 10}

	// 窗口外：10+5
	req.Now = at(14, 59)
	assert.InDelta(t, 15., r.Duration(req), 1e-9)
	// 窗口内：15*1.5
	req.Now = at(15, 0)
	assert.InDelta(t, 22.5, r.Duration(req), 1e-9)
	req.Now = at(15, 29)
	assert.InDelta(t, 22.5, r.Duration(req), 1e-9)
	// 窗口结束
	req.Now = at(15, 30)
	assert.InDelta(t, 15., r.Duration(req), 1e-9)

	// 非校车进口道所在的轴不加成
	req.Now = at(15, 10)
	req.Axis = entity.PhaseA
	assert.InDelta(t, 15., r.Duration(req), 1e-9)
	// 其他路口不加成
	req.Axis = entity.PhaseB
	req.Intersection = "3"
	assert.InDelta(t, 15., r.Duration(req), 1e-9)

	// 加成后仍不超过上界
	req.Intersection = "2"
	req.Effective = 30
	assert.InDelta(t, 30., r.Duration(req), 1e-9)
}

type stubModel float64

func (m stubModel) PredictOptimalGreen(float64, time.Time) float64 { return float64(m) }

func TestRegressionClamp(t *testing.T) {
	assert.Nil(t, NewRegression(nil))
	req := DurationRequest{Intersection: "1", Axis: entity.PhaseA, Effective: 5}
	assert.Equal(t, 10., NewRegression(stubModel(3)).Duration(req))
	assert.Equal(t, 120., NewRegression(stubModel(500)).Duration(req))
	assert.Equal(t, 42.4, NewRegression(stubModel(42.37)).Duration(req))
	assert.Equal(t, 10., NewRegression(stubModel(math.NaN())).Duration(req))
	assert.Equal(t, entity.ModeML, NewRegression(stubModel(1)).Mode())
}

func TestLearnedFallback(t *testing.T) {
	fallback := NewReactive(NewReactiveConfig(defaultControl(t, config.Config{})))
	l := NewLearned(entity.Recommendations{
		"1": {
			entity.North: {Signal: entity.Green, DynamicDuration: 27.5},
			entity.East:  {Signal: entity.Red, DynamicDuration: 27.5},
		},
	}, fallback)
	assert.Equal(t, entity.ModeRL, l.Mode())
	assert.Equal(t, 27.5, l.Duration(DurationRequest{Intersection: "1", Effective: 2}))
	assert.Equal(t, 14., l.Duration(DurationRequest{Intersection: "9", Effective: 8}))
}
