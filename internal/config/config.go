package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"go.uber.org/zap/zapcore"
)

const (
	OVERLOAD_POLICY_DISABLE = "disable"
	OVERLOAD_POLICY_DESTROY = "destroy"

	STORAGE_DRIVER_MEMORY   = "memory"
	STORAGE_DRIVER_FILE     = "file"
	STORAGE_DRIVER_SQLITE   = "sqlite"
	STORAGE_DRIVER_POSTGRES = "postgres"
	STORAGE_DRIVER_S3       = "s3"
)

type Config struct {
	LogLevel   zapcore.Level
	MQTT       MQTTConfig        `mapstructure:"mqtt"`
	Modbus     ModbusConfig      `mapstructure:"modbus"`
	Storage    StorageConfig     `mapstructure:"storage"`
	Simulation SimulationConfig  `mapstructure:"simulation"`
	Furnaces   []FurnaceConfig   `mapstructure:"furnaces"`
	Recipes    map[string]string `mapstructure:"recipes"`
	Batteries  []BatteryConfig   `mapstructure:"batteries"`
	Port       uint              `mapstructure:"port"`
	HttpLog    bool              `mapstructure:"http_log"`
}

type SimulationConfig struct {
	TickMillis      uint32 `mapstructure:"tick_millis"`
	StateEveryTicks uint32 `mapstructure:"state_every_ticks"`
	SyncEveryTicks  uint32 `mapstructure:"sync_every_ticks"`
}

type FurnaceConfig struct {
	Id                   string
	Facing               string
	X                    int
	Y                    int
	Z                    int
	Capacity             float64
	Voltage              int
	RequiredTicks        int    `mapstructure:"required_ticks"`
	StackLimit           int    `mapstructure:"stack_limit"`
	DrainModel           string `mapstructure:"drain_model"`
	OverloadPolicy       string `mapstructure:"overload_policy"`
	OverloadDisableTicks int    `mapstructure:"overload_disable_ticks"`
	Texture              string
	Generator            GeneratorConfig `mapstructure:"generator"`
}

type GeneratorConfig struct {
	Watts          float64
	MaxWatts       float64 `mapstructure:"max_watts"`
	Voltage        int
	Side           string
	BufferCapacity float64 `mapstructure:"buffer_capacity"`
}

type BatteryConfig struct {
	Kind         string
	TransferRate float64 `mapstructure:"transfer_rate"`
	Voltage      int
	MaxCharge    float64 `mapstructure:"max_charge"`
}

type ModbusConfig struct {
	Enable bool
	Host   string
	Port   uint
}

type StorageConfig struct {
	Driver        string
	Path          string
	DSN           string   `mapstructure:"dsn"`
	AutosaveCron  string   `mapstructure:"autosave_cron"`
	TimeoutMillis uint32   `mapstructure:"timeout_millis"`
	S3            S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	Prefix    string
	PathStyle bool `mapstructure:"path_style"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
	SyncEnable        bool   `mapstructure:"sync_enable"`
}

func DefaultFurnace(id string) FurnaceConfig {
	return FurnaceConfig{
		Id:                   id,
		Facing:               "north",
		Capacity:             furnace.DefaultCapacity,
		Voltage:              furnace.DefaultVoltage,
		RequiredTicks:        furnace.DefaultRequiredTicks,
		StackLimit:           furnace.DefaultStackLimit,
		DrainModel:           string(furnace.DrainCommit),
		OverloadPolicy:       OVERLOAD_POLICY_DISABLE,
		OverloadDisableTicks: 200,
		Generator: GeneratorConfig{
			Watts:          12,
			MaxWatts:       120,
			Voltage:        furnace.DefaultVoltage,
			Side:           "south",
			BufferCapacity: 100,
		},
	}
}

// withDefaults fills every unset field from DefaultFurnace.
func (f FurnaceConfig) withDefaults() FurnaceConfig {
	def := DefaultFurnace(f.Id)
	if f.Facing == "" {
		f.Facing = def.Facing
	}
	if f.Capacity <= 0 {
		f.Capacity = def.Capacity
	}
	if f.Voltage <= 0 {
		f.Voltage = def.Voltage
	}
	if f.RequiredTicks <= 0 {
		f.RequiredTicks = def.RequiredTicks
	}
	if f.StackLimit <= 0 {
		f.StackLimit = def.StackLimit
	}
	if f.DrainModel == "" {
		f.DrainModel = def.DrainModel
	}
	if f.OverloadPolicy == "" {
		f.OverloadPolicy = def.OverloadPolicy
	}
	if f.OverloadDisableTicks <= 0 {
		f.OverloadDisableTicks = def.OverloadDisableTicks
	}
	if f.Generator.Voltage <= 0 {
		f.Generator.Voltage = def.Generator.Voltage
	}
	if f.Generator.Side == "" {
		if facing, err := furnace.ParseDirection(f.Facing); err == nil && facing.Horizontal() {
			f.Generator.Side = facing.Opposite().String()
		} else {
			f.Generator.Side = def.Generator.Side
		}
	}
	if f.Generator.MaxWatts <= 0 {
		f.Generator.MaxWatts = def.Generator.MaxWatts
	}
	return f
}

func (f FurnaceConfig) DeviceConfig() (furnace.Config, error) {
	facing, err := furnace.ParseDirection(f.Facing)
	if err != nil {
		return furnace.Config{}, err
	}
	drain, err := furnace.ParseDrainModel(f.DrainModel)
	if err != nil {
		return furnace.Config{}, err
	}
	cfg := furnace.DefaultConfig()
	cfg.Capacity = f.Capacity
	cfg.Voltage = f.Voltage
	cfg.RequiredTicks = f.RequiredTicks
	cfg.StackLimit = f.StackLimit
	cfg.Facing = facing
	cfg.Position = furnace.Position{X: f.X, Y: f.Y, Z: f.Z}
	cfg.DrainModel = drain
	if f.Texture != "" {
		cfg.Texture = f.Texture
	}
	return cfg, nil
}

func (f FurnaceConfig) GeneratorSide() (furnace.Direction, error) {
	return furnace.ParseDirection(f.Generator.Side)
}

// Normalize fills defaults that viper cannot express for list entries.
func (c *Config) Normalize() {
	if len(c.Furnaces) == 0 {
		c.Furnaces = []FurnaceConfig{DefaultFurnace("furnace_1")}
	}
	for i := range c.Furnaces {
		if c.Furnaces[i].Id == "" {
			c.Furnaces[i].Id = fmt.Sprintf("furnace_%d", i+1)
		}
		c.Furnaces[i].Id = strings.ToLower(c.Furnaces[i].Id)
		c.Furnaces[i] = c.Furnaces[i].withDefaults()
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = STORAGE_DRIVER_MEMORY
	}
}

func (c *Config) Validate() error {
	if c.Simulation.TickMillis < 10 {
		return errors.New("config param simulation.tick_millis should be >= 10")
	}
	if c.Simulation.StateEveryTicks == 0 {
		return errors.New("config param simulation.state_every_ticks should be > 0")
	}
	if c.MQTT.SyncEnable && c.Simulation.SyncEveryTicks == 0 {
		return errors.New("config param simulation.sync_every_ticks should be > 0")
	}
	ids := map[string]bool{}
	for _, f := range c.Furnaces {
		if _, err := CheckMQTTTopic(f.Id); err != nil {
			return fmt.Errorf("invalid furnace id %q. can only contain letters, numbers and underscores", f.Id)
		}
		if ids[f.Id] {
			return fmt.Errorf("duplicated furnace id %q", f.Id)
		}
		ids[f.Id] = true
		if _, err := f.DeviceConfig(); err != nil {
			return fmt.Errorf("furnace %s: %w", f.Id, err)
		}
		if _, err := f.GeneratorSide(); err != nil {
			return fmt.Errorf("furnace %s generator: %w", f.Id, err)
		}
		if f.StackLimit > furnace.MaxStackLimit {
			return fmt.Errorf("furnace %s: stack_limit should be <= %d", f.Id, furnace.MaxStackLimit)
		}
		if f.OverloadPolicy != OVERLOAD_POLICY_DISABLE && f.OverloadPolicy != OVERLOAD_POLICY_DESTROY {
			return fmt.Errorf("furnace %s: overload_policy should be %s or %s", f.Id, OVERLOAD_POLICY_DISABLE, OVERLOAD_POLICY_DESTROY)
		}
		if f.Generator.Watts < 0 || f.Generator.Watts > f.Generator.MaxWatts {
			return fmt.Errorf("furnace %s: generator.watts should be between 0 and generator.max_watts", f.Id)
		}
	}
	for _, b := range c.Batteries {
		if b.Kind == "" || b.TransferRate <= 0 {
			return errors.New("config param batteries needs a kind and a transfer_rate > 0")
		}
	}
	switch c.Storage.Driver {
	case STORAGE_DRIVER_MEMORY:
	case STORAGE_DRIVER_FILE, STORAGE_DRIVER_SQLITE:
		if c.Storage.Path == "" {
			return fmt.Errorf("config param storage.path is required for driver %s", c.Storage.Driver)
		}
	case STORAGE_DRIVER_POSTGRES:
		if c.Storage.DSN == "" {
			return errors.New("config param storage.dsn is required for driver postgres")
		}
	case STORAGE_DRIVER_S3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("config param storage.s3.bucket is required for driver s3")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

func (c *Config) Furnace(id string) (FurnaceConfig, bool) {
	for _, f := range c.Furnaces {
		if f.Id == id {
			return f, true
		}
	}
	return FurnaceConfig{}, false
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
