package junction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
)

func TestResolveAdjacencyCombinedTotals(t *testing.T) {
	decisions := map[string]*Decision{
		"1": {ID: "1", Phase: entity.PhaseA, Load: Demand{A: 10, B: 2}},
		"2": {ID: "2", Phase: entity.PhaseB, Load: Demand{A: 3, B: 8}},
	}
	ResolveAdjacency(decisions, map[string]string{"1": "2"})
	assert.Equal(t, entity.PhaseA, decisions["1"].Phase)
	assert.Equal(t, entity.PhaseA, decisions["2"].Phase)
	assert.Equal(t, ReasonAdjacency, decisions["2"].Reason)
}

func TestResolveAdjacencyTieFavoursA(t *testing.T) {
	decisions := map[string]*Decision{
		"1": {ID: "1", Phase: entity.PhaseA, Load: Demand{A: 5, B: 1}},
		"2": {ID: "2", Phase: entity.PhaseB, Load: Demand{A: 0, B: 4}},
	}
	ResolveAdjacency(decisions, map[string]string{"2": "1"})
	assert.Equal(t, entity.PhaseA, decisions["1"].Phase)
	assert.Equal(t, entity.PhaseA, decisions["2"].Phase)
}

func TestResolveAdjacencyEmergencyExempt(t *testing.T) {
	decisions := map[string]*Decision{
		"1": {ID: "1", Phase: entity.PhaseEmergency, SubPhase: entity.PhaseB, Load: Demand{A: 50}},
		"2": {ID: "2", Phase: entity.PhaseA, Load: Demand{A: 1, B: 0}},
	}
	ResolveAdjacency(decisions, map[string]string{"1": "2"})
	assert.Equal(t, entity.PhaseEmergency, decisions["1"].Phase)
	assert.Equal(t, entity.PhaseA, decisions["2"].Phase)
}

func TestResolveAdjacencyMissingSnapshot(t *testing.T) {
	decisions := map[string]*Decision{
		"1": {ID: "1", Phase: entity.PhaseB, Load: Demand{B: 3}},
	}
	assert.NotPanics(t, func() {
		ResolveAdjacency(decisions, map[string]string{"1": "9", "7": "1"})
	})
	assert.Equal(t, entity.PhaseB, decisions["1"].Phase)
}
