package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ENV_PREFIX = "furnace"

// Load reads the configuration from defaults, FURNACE_* env vars and the yaml file in CONFIG_FILE
func Load() (*Config, error) {

	// alias PORT => FURNACE_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("FURNACE_PORT", port)
	}

	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			v.SetConfigFile(cfgFile)

			err = v.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	cfg.LogLevel = ParseLogLevel(v.GetString("log_level"))

	// check and fix base topic
	baseTopic, err := CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	cfg.Normalize()

	// check bounds
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("port", 8080)
	v.SetDefault("http_log", false)
	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.ha_discovery_enable", false)
	v.SetDefault("mqtt.base_topic", "furnace2mqtt")
	v.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	v.SetDefault("mqtt.sync_enable", true)
	v.SetDefault("modbus.enable", false)
	v.SetDefault("modbus.host", "0.0.0.0")
	v.SetDefault("modbus.port", 5502)
	v.SetDefault("simulation.tick_millis", 50)
	v.SetDefault("simulation.state_every_ticks", 20)
	v.SetDefault("simulation.sync_every_ticks", 10)
	v.SetDefault("storage.driver", STORAGE_DRIVER_MEMORY)
	v.SetDefault("storage.autosave_cron", "0 */5 * * * *")
	v.SetDefault("storage.timeout_millis", 5000)
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.prefix", "furnaces/")
}

func ParseLogLevel(level string) zapcore.Level {
	switch level {
	case "trace":
		return zap.DebugLevel
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "error":
		return zap.ErrorLevel
	case "warn":
		return zap.WarnLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}
