package events

import (
	"testing"

	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"github.com/stretchr/testify/assert"
)

func TestFurnaceSnapshotToUpdateEvents(t *testing.T) {

	assert := assert.New(t)

	snap := furnace.Snapshot{
		Stored:        900,
		Capacity:      1800,
		ProgressTicks: 40,
		RequiredTicks: 160,
		DisableTicks:  -1,
	}
	snap.Slots[furnace.SlotInput] = furnace.NewStack("iron_ore", 3)
	snap.Slots[furnace.SlotOutput] = furnace.NewStack("iron_ingot", 5)

	byId := map[string]any{}
	for _, ev := range FurnaceSnapshotToUpdateEvents("f1", snap) {
		sev, ok := ev.(domain.SensorUpdateEvent)
		assert.True(ok)
		byId[sev.SensorId()] = ev
	}

	assert.Equal(900.0, byId["f1_energy_stored"].(domain.FloatSensorUpdateEvent).Value)
	assert.Equal(75.0, byId["f1_smelting_progress"].(domain.FloatSensorUpdateEvent).Value)
	assert.Equal(0.0, byId["f1_disable_ticks"].(domain.FloatSensorUpdateEvent).Value)
	assert.Equal("iron_ore", byId["f1_input_item"].(domain.TextSensorUpdateEvent).Value)
	assert.Equal("empty", byId["f1_energy_item"].(domain.TextSensorUpdateEvent).Value)
	assert.Equal(5.0, byId["f1_output_count"].(domain.FloatSensorUpdateEvent).Value)
	assert.True(byId["f1_converting"].(domain.BinarySensorUpdateEvent).Value)
	assert.False(byId["f1_disable"].(domain.SwitchSensorUpdateEvent).Value)
}
