package util

import (
	"github.com/berfenger/furnace2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	cfg := config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "furnace2mqtt",
			HADiscoveryTopic: "homeassistant",
		},
		Modbus: config.ModbusConfig{
			Enable: false,
			Host:   "localhost",
			Port:   5502,
		},
		Storage: config.StorageConfig{
			Driver:        config.STORAGE_DRIVER_MEMORY,
			TimeoutMillis: 1000,
		},
		Simulation: config.SimulationConfig{
			TickMillis:      10,
			StateEveryTicks: 5,
			SyncEveryTicks:  5,
		},
		Furnaces: []config.FurnaceConfig{config.DefaultFurnace("furnace_1")},
		Port:     8080,
	}
	cfg.Normalize()
	return cfg
}
