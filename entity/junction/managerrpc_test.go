package junction

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity/junction/trafficlight"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/config"
)

func TestParseDirection(t *testing.T) {
	axis, err := ParseDirection("n-s")
	require.NoError(t, err)
	assert.Equal(t, entity.PhaseA, axis)
	axis, err = ParseDirection("e-w")
	require.NoError(t, err)
	assert.Equal(t, entity.PhaseB, axis)
	_, err = ParseDirection("north")
	assert.ErrorIs(t, err, ErrBadDirection)
}

func TestJunctionServiceRPC(t *testing.T) {
	m := newTestManager(t, config.Config{})
	store := trafficlight.NewPhaseStore(5 * time.Second)
	decisions := m.Select([]entity.Snapshot{
		snapshot("1", entity.Intersection{entity.North: {entity.Car: 4}}),
		snapshot("2", entity.Intersection{entity.West: {entity.Ambulance: 1}}),
	}, "10:00")
	m.Commit(decisions, store, time.Now())

	mux := http.NewServeMux()
	m.Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()
	ctx := context.Background()

	getPhases := connect.NewClient[GetPhasesRequest, GetPhasesResponse](
		srv.Client(), srv.URL+GetPhasesProcedure, utils.WithJSON(),
	)
	setOverride := connect.NewClient[SetOverrideRequest, SetOverrideResponse](
		srv.Client(), srv.URL+SetOverrideProcedure, utils.WithJSON(),
	)
	clearOverride := connect.NewClient[ClearOverrideRequest, ClearOverrideResponse](
		srv.Client(), srv.URL+ClearOverrideProcedure, utils.WithJSON(),
	)

	res, err := getPhases.CallUnary(ctx, connect.NewRequest(&GetPhasesRequest{}))
	require.NoError(t, err)
	require.Len(t, res.Msg.Phases, 2)
	assert.Equal(t, entity.PhaseA, res.Msg.Phases[0].Green)
	assert.Equal(t, entity.PhaseEmergency, res.Msg.Phases[1].Phase)
	assert.Equal(t, entity.PhaseB, res.Msg.Phases[1].Green)

	_, err = getPhases.CallUnary(ctx, connect.NewRequest(&GetPhasesRequest{ID: "9"}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = setOverride.CallUnary(ctx, connect.NewRequest(&SetOverrideRequest{ID: "1", Direction: "e-w"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]entity.Phase{"1": entity.PhaseB}, m.Overrides())

	res, err = getPhases.CallUnary(ctx, connect.NewRequest(&GetPhasesRequest{ID: "1"}))
	require.NoError(t, err)
	require.Len(t, res.Msg.Phases, 1)
	assert.Equal(t, entity.PhaseB, res.Msg.Phases[0].Override)

	_, err = setOverride.CallUnary(ctx, connect.NewRequest(&SetOverrideRequest{ID: "1", Direction: "up"}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	cleared, err := clearOverride.CallUnary(ctx, connect.NewRequest(&ClearOverrideRequest{ID: "1"}))
	require.NoError(t, err)
	assert.True(t, cleared.Msg.Cleared)
	cleared, err = clearOverride.CallUnary(ctx, connect.NewRequest(&ClearOverrideRequest{ID: "1"}))
	require.NoError(t, err)
	assert.False(t, cleared.Msg.Cleared)
	assert.Empty(t, m.Overrides())
}
