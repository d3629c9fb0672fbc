package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestBuildWriteModels(t *testing.T) {
	ts := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	models := buildWriteModels([]entity.SignalRecord{
		{Intersection: "3", Road: entity.West, Cars: 7, Signal: entity.Green, ManuallyOverridden: true, Timestamp: ts},
		{Intersection: "3", Road: entity.North, Signal: entity.Red},
	})
	require.Len(t, models, 2)

	m, ok := models[0].(*mongo.UpdateOneModel)
	require.True(t, ok)
	require.NotNil(t, m.Upsert)
	assert.True(t, *m.Upsert)
	assert.Equal(t, bson.D{
		{Key: "intersection", Value: "3"},
		{Key: "road", Value: entity.West},
	}, m.Filter)

	set := m.Update.(bson.D)[0]
	assert.Equal(t, "$set", set.Key)
	fields := set.Value.(bson.D).Map()
	assert.Equal(t, 7, fields["cars"])
	assert.Equal(t, entity.Green, fields["signal"])
	assert.Equal(t, true, fields["manuallyOverridden"])
	assert.Equal(t, ts, fields["updatedAt"])

	assert.Empty(t, buildWriteModels(nil))
}
