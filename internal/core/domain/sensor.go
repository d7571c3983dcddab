package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE = "bridge"

	SENSOR_SUFFIX_ENERGY_STORED     = "energy_stored"
	SENSOR_SUFFIX_ENERGY_CAPACITY   = "energy_capacity"
	SENSOR_SUFFIX_SMELTING_PROGRESS = "smelting_progress"
	SENSOR_SUFFIX_SMELTING_TICKS    = "smelting_ticks"
	SENSOR_SUFFIX_DISABLE_TICKS     = "disable_ticks"
	SENSOR_SUFFIX_INPUT_ITEM        = "input_item"
	SENSOR_SUFFIX_OUTPUT_ITEM       = "output_item"
	SENSOR_SUFFIX_ENERGY_ITEM       = "energy_item"
	SENSOR_SUFFIX_OUTPUT_COUNT      = "output_count"
	SENSOR_SUFFIX_CONVERTING        = "converting"
	SENSOR_SUFFIX_DISABLED          = "disabled"
	SENSOR_SUFFIX_GENERATOR_WASTED  = "generator_wasted"

	SWITCH_SUFFIX_DISABLE             = "disable"
	INPUT_NUMBER_SUFFIX_GENERATOR_POW = "generator_power"

	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"
	DEVICE_CLASS_ENERGY_STORAGE  = "energy_storage"
	DEVICE_CLASS_CONNECTIVITY    = "connectivity"
	DEVICE_CLASS_RUNNING         = "running"
	DEVICE_CLASS_PROBLEM         = "problem"
	ENTITY_CLASS_DIAGNOSTIC      = "diagnostic"
	ENTITY_CLASS_CONFIG          = "config"
	SENSOR_TYPE_SENSOR           = "sensor"
	SENSOR_TYPE_BINARY           = "binary_sensor"
	INPUT_NUMBER_MODE_BOX        = "box"
	INPUT_NUMBER_MODE_SLIDER     = "slider"
)

func FurnaceEntityId(furnaceId, suffix string) string {
	return fmt.Sprintf("%s_%s", furnaceId, suffix)
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("furnace2mqtt_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "furnace2mqtt",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("furnace2mqtt %s", md5HashShort(baseTopic)),
	}
}

func FurnaceDevice(baseTopic, furnaceId string) Device {
	return Device{
		Id:           fmt.Sprintf("f2m_furnace_%s", md5HashShort(baseTopic+"/"+furnaceId)),
		Manufacturer: "ACasal",
		Model:        "Electric Furnace",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Electric furnace %s", furnaceId),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {
	return []GenericSensor{{
		Entity: Entity{
			Device:   bridgeDevice,
			Id:       SENSOR_ID_BRIDGE_STATE,
			Name:     "Connection state",
			UniqueId: uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
		},
		SensorType:     SENSOR_TYPE_BINARY,
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
	}}
}

// FurnaceSensors lists the sensors of one furnace. Only the first one carries the full device.
func FurnaceSensors(furnaceDevice Device, furnaceId string) []GenericSensor {

	sensor := func(suffix, name string) GenericSensor {
		return GenericSensor{
			Entity:     furnaceEntity(furnaceDevice, furnaceId, suffix, name),
			SensorType: SENSOR_TYPE_SENSOR,
		}
	}

	var sensors []GenericSensor

	// Energy stored
	stored := sensor(SENSOR_SUFFIX_ENERGY_STORED, "Energy stored")
	stored.Device = furnaceDevice
	stored.StateClass = STATE_CLASS_MEASUREMENT
	stored.DeviceClass = DEVICE_CLASS_ENERGY_STORAGE
	stored.UnitOfMeasurement = "Wh"
	sensors = append(sensors, stored)

	// Energy capacity
	capacity := sensor(SENSOR_SUFFIX_ENERGY_CAPACITY, "Energy capacity")
	capacity.DeviceClass = DEVICE_CLASS_ENERGY_STORAGE
	capacity.UnitOfMeasurement = "Wh"
	capacity.EntityCategory = ENTITY_CLASS_DIAGNOSTIC
	sensors = append(sensors, capacity)

	// Smelting progress
	progress := sensor(SENSOR_SUFFIX_SMELTING_PROGRESS, "Smelting progress")
	progress.StateClass = STATE_CLASS_MEASUREMENT
	progress.UnitOfMeasurement = "%"
	progress.Icon = "mdi:progress-clock"
	sensors = append(sensors, progress)

	// Smelting ticks
	ticks := sensor(SENSOR_SUFFIX_SMELTING_TICKS, "Smelting ticks left")
	ticks.StateClass = STATE_CLASS_MEASUREMENT
	ticks.EnabledByDefault = optionalBool(false)
	sensors = append(sensors, ticks)

	// Disable ticks
	disableTicks := sensor(SENSOR_SUFFIX_DISABLE_TICKS, "Disabled ticks left")
	disableTicks.StateClass = STATE_CLASS_MEASUREMENT
	disableTicks.EntityCategory = ENTITY_CLASS_DIAGNOSTIC
	sensors = append(sensors, disableTicks)

	// Slots
	input := sensor(SENSOR_SUFFIX_INPUT_ITEM, "Input item")
	input.Icon = "mdi:cube-outline"
	sensors = append(sensors, input)

	output := sensor(SENSOR_SUFFIX_OUTPUT_ITEM, "Output item")
	output.Icon = "mdi:cube"
	sensors = append(sensors, output)

	energyItem := sensor(SENSOR_SUFFIX_ENERGY_ITEM, "Energy item")
	energyItem.Icon = "mdi:battery"
	sensors = append(sensors, energyItem)

	outputCount := sensor(SENSOR_SUFFIX_OUTPUT_COUNT, "Output count")
	outputCount.StateClass = STATE_CLASS_MEASUREMENT
	sensors = append(sensors, outputCount)

	wasted := sensor(SENSOR_SUFFIX_GENERATOR_WASTED, "Generator wasted energy")
	wasted.StateClass = STATE_CLASS_TOTAL_INCREASING
	wasted.UnitOfMeasurement = "Wh"
	wasted.EntityCategory = ENTITY_CLASS_DIAGNOSTIC
	wasted.EnabledByDefault = optionalBool(false)
	sensors = append(sensors, wasted)

	// Binary sensors
	converting := sensor(SENSOR_SUFFIX_CONVERTING, "Converting")
	converting.SensorType = SENSOR_TYPE_BINARY
	converting.DeviceClass = DEVICE_CLASS_RUNNING
	sensors = append(sensors, converting)

	disabled := sensor(SENSOR_SUFFIX_DISABLED, "Disabled")
	disabled.SensorType = SENSOR_TYPE_BINARY
	disabled.DeviceClass = DEVICE_CLASS_PROBLEM
	sensors = append(sensors, disabled)

	return sensors
}

func FurnaceSwitches(furnaceDevice Device, furnaceId string) []GenericSwitch {
	disable := furnaceEntity(furnaceDevice, furnaceId, SWITCH_SUFFIX_DISABLE, "Disable")
	disable.Icon = "mdi:power-plug-off"
	return []GenericSwitch{{Entity: disable}}
}

func FurnaceInputNumbers(furnaceDevice Device, furnaceId string, maxWatts, initialWatts float64) []GenericInputNumber {
	power := furnaceEntity(furnaceDevice, furnaceId, INPUT_NUMBER_SUFFIX_GENERATOR_POW, "Generator power")
	power.Icon = "mdi:lightning-bolt"
	return []GenericInputNumber{{
		Entity:       power,
		Min:          0,
		Max:          maxWatts,
		Step:         1,
		Mode:         INPUT_NUMBER_MODE_BOX,
		InitialValue: initialWatts,
	}}
}

func furnaceEntity(furnaceDevice Device, furnaceId, suffix, name string) Entity {
	id := FurnaceEntityId(furnaceId, suffix)
	return Entity{
		Device:    IdDevice(furnaceDevice),
		Id:        id,
		Name:      name,
		UniqueId:  uniqueId(furnaceDevice.Id, id),
		FurnaceId: furnaceId,
	}
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
