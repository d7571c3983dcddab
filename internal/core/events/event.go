package events

import (
	. "github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"
)

func FurnaceSnapshotToUpdateEvents(furnaceId string, s furnace.Snapshot) []any {
	var events []any

	// Energy
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: FurnaceEntityId(furnaceId, SENSOR_SUFFIX_ENERGY_STORED),
		},
		Value:    s.Stored,
		Decimals: 2,
	})
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: FurnaceEntityId(furnaceId, SENSOR_SUFFIX_ENERGY_CAPACITY),
		},
		Value:    s.Capacity,
		Decimals: 0,
	})
	// Smelting
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: FurnaceEntityId(furnaceId, SENSOR_SUFFIX_SMELTING_PROGRESS),
		},
		Value:    s.ProgressPercent(),
		Decimals: 1,
	})
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: FurnaceEntityId(furnaceId, SENSOR_SUFFIX_SMELTING_TICKS),
		},
		Value: float64(s.ProgressTicks),
	})
	disableTicks := s.DisableTicks
	if disableTicks < 0 {
		disableTicks = 0
	}
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: FurnaceEntityId(furnaceId, SENSOR_SUFFIX_DISABLE_TICKS),
		},
		Value: float64(disableTicks),
	})
	// Slots
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: FurnaceEntityId(furnaceId, SENSOR_SUFFIX_INPUT_ITEM),
		},
		Value: stackText(s.Slots[furnace.SlotInput]),
	})
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: FurnaceEntityId(furnaceId, SENSOR_SUFFIX_OUTPUT_ITEM),
		},
		Value: stackText(s.Slots[furnace.SlotOutput]),
	})
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: FurnaceEntityId(furnaceId, SENSOR_SUFFIX_ENERGY_ITEM),
		},
		Value: stackText(s.Slots[furnace.SlotEnergyItem]),
	})
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: FurnaceEntityId(furnaceId, SENSOR_SUFFIX_OUTPUT_COUNT),
		},
		Value: float64(s.Slots[furnace.SlotOutput].Count),
	})
	// Binary
	events = append(events, BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: FurnaceEntityId(furnaceId, SENSOR_SUFFIX_CONVERTING),
		},
		Value: s.Converting(),
	})
	events = append(events, BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: FurnaceEntityId(furnaceId, SENSOR_SUFFIX_DISABLED),
		},
		Value: s.Disabled,
	})
	events = append(events, FurnaceDisableSwitchUpdateEvent(furnaceId, s.Disabled))

	return events
}

func FurnaceDisableSwitchUpdateEvent(furnaceId string, disabled bool) any {
	return SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: FurnaceEntityId(furnaceId, SWITCH_SUFFIX_DISABLE),
		},
		Value: disabled,
	}
}

func GeneratorUpdateEvents(furnaceId string, watts, wasted float64) []any {
	var events []any
	events = append(events, InputNumberSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: FurnaceEntityId(furnaceId, INPUT_NUMBER_SUFFIX_GENERATOR_POW),
		},
		Value: watts,
	})
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: FurnaceEntityId(furnaceId, SENSOR_SUFFIX_GENERATOR_WASTED),
		},
		Value:    wasted,
		Decimals: 2,
	})
	return events
}

func stackText(stack furnace.ItemStack) string {
	if stack.IsEmpty() {
		return "empty"
	}
	return string(stack.Kind)
}
