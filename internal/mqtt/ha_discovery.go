package mqtt

import (
	"fmt"

	"github.com/berfenger/furnace2mqtt/internal/core/domain"
)

const HA_AVAILABILITY_MODE_ALL = "all"

type HADiscoveryConfig struct {
	Device            HADiscoveryDevice    `json:"device"`
	StateTopic        string               `json:"state_topic"`
	CommandTopic      string               `json:"command_topic,omitempty"`
	StateClass        string               `json:"state_class,omitempty"`
	DeviceClass       string               `json:"device_class,omitempty"`
	UnitOfMeasurement string               `json:"unit_of_measurement,omitempty"`
	Availability      []HADiscoveryAvTopic `json:"availability,omitempty"`
	AvailabilityMode  string               `json:"availability_mode,omitempty"`
	EntityCategory    string               `json:"entity_category,omitempty"`
	Name              string               `json:"name"`
	UniqueId          string               `json:"unique_id"`
	Platform          string               `json:"platform"`
	EnabledByDefault  *bool                `json:"enabled_by_default,omitempty"`
	PayloadOn         string               `json:"payload_on,omitempty"`
	PayloadOff        string               `json:"payload_off,omitempty"`
	Icon              string               `json:"icon,omitempty"`
	Min               float64              `json:"min,omitempty"`
	Max               float64              `json:"max,omitempty"`
	Step              float64              `json:"step,omitempty"`
	Mode              string               `json:"mode,omitempty"`
	InitialValue      float64              `json:"initial,omitempty"`
}

// HADiscoveryAvTopic relies on the default online/offline payloads
type HADiscoveryAvTopic struct {
	Topic string `json:"topic"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

// DiscoveryMessage is a retained config document and the topic it goes to
type DiscoveryMessage struct {
	Topic  string
	Config HADiscoveryConfig
}

func (c *MQTTClient) HADiscoverySensorTopic(sensor domain.GenericSensor) string {
	return c.haDiscoveryTopic(sensor.SensorType, sensor.Entity)
}

func (c *MQTTClient) HADiscoverySwitchTopic(sw domain.GenericSwitch) string {
	return c.haDiscoveryTopic("switch", sw.Entity)
}

func (c *MQTTClient) HADiscoveryInputNumberTopic(number domain.GenericInputNumber) string {
	return c.haDiscoveryTopic("number", number.Entity)
}

func (c *MQTTClient) haDiscoveryTopic(component string, entity domain.Entity) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", c.cfg.HADiscoveryTopic, component, entity.Device.Id, entity.Id)
}

// DiscoveryMessages renders every entity into its discovery document, sensors first
func (c *MQTTClient) DiscoveryMessages(sensors []domain.GenericSensor, switches []domain.GenericSwitch,
	numbers []domain.GenericInputNumber) []DiscoveryMessage {
	msgs := make([]DiscoveryMessage, 0, len(sensors)+len(switches)+len(numbers))
	for _, s := range sensors {
		msgs = append(msgs, DiscoveryMessage{Topic: c.HADiscoverySensorTopic(s), Config: GenericSensorToHADiscoveryMessage(c, s)})
	}
	for _, s := range switches {
		msgs = append(msgs, DiscoveryMessage{Topic: c.HADiscoverySwitchTopic(s), Config: GenericSwitchToHADiscoveryMessage(c, s)})
	}
	for _, n := range numbers {
		msgs = append(msgs, DiscoveryMessage{Topic: c.HADiscoveryInputNumberTopic(n), Config: GenericInputNumberToHADiscoveryMessage(c, n)})
	}
	return msgs
}

func GenericSensorToHADiscoveryMessage(client *MQTTClient, sensor domain.GenericSensor) HADiscoveryConfig {
	disConfig := client.entityConfig(sensor.Entity)
	disConfig.StateClass = sensor.StateClass
	disConfig.DeviceClass = sensor.DeviceClass
	disConfig.UnitOfMeasurement = sensor.UnitOfMeasurement
	disConfig.EntityCategory = sensor.EntityCategory
	disConfig.EnabledByDefault = sensor.EnabledByDefault

	switch {
	case sensor.Id == domain.SENSOR_ID_BRIDGE_STATE:
		disConfig.StateTopic = client.BridgeStateTopic()
		disConfig.PayloadOn = MQTT_PAYLOAD_ONLINE
		disConfig.PayloadOff = MQTT_PAYLOAD_OFFLINE
		// the bridge sensor reports its own availability
		disConfig.Availability = nil
		disConfig.AvailabilityMode = ""
	case sensor.SensorType == domain.SENSOR_TYPE_BINARY:
		disConfig.StateTopic = client.BinarySensorStateTopic(sensor.Id)
		disConfig.PayloadOn = MQTT_PAYLOAD_ON
		disConfig.PayloadOff = MQTT_PAYLOAD_OFF
	default:
		disConfig.StateTopic = client.SensorStateTopic(sensor.Id)
	}
	return disConfig
}

func GenericSwitchToHADiscoveryMessage(client *MQTTClient, sw domain.GenericSwitch) HADiscoveryConfig {
	disConfig := client.entityConfig(sw.Entity)
	disConfig.StateTopic = client.SwitchStateTopic(sw.Id)
	disConfig.CommandTopic = client.SwitchCommandTopic(sw.Id)
	disConfig.PayloadOn = MQTT_PAYLOAD_ON
	disConfig.PayloadOff = MQTT_PAYLOAD_OFF
	return disConfig
}

func GenericInputNumberToHADiscoveryMessage(client *MQTTClient, number domain.GenericInputNumber) HADiscoveryConfig {
	disConfig := client.entityConfig(number.Entity)
	disConfig.StateTopic = client.InputNumberStateTopic(number.Id)
	disConfig.CommandTopic = client.InputNumberCommandTopic(number.Id)
	disConfig.Min = number.Min
	disConfig.Max = number.Max
	disConfig.Step = number.Step
	disConfig.Mode = number.Mode
	disConfig.InitialValue = number.InitialValue
	return disConfig
}

// entityConfig fills the fields shared by all entity kinds. Furnace entities
// are only available while both the bridge and their furnace are online.
func (c *MQTTClient) entityConfig(entity domain.Entity) HADiscoveryConfig {
	disConfig := HADiscoveryConfig{
		Device:       device(entity.Device),
		Name:         entity.Name,
		UniqueId:     entity.UniqueId,
		Icon:         entity.Icon,
		Platform:     "mqtt",
		Availability: []HADiscoveryAvTopic{{Topic: c.BridgeStateTopic()}},
	}
	if entity.OwnedByFurnace() {
		disConfig.Availability = append(disConfig.Availability, HADiscoveryAvTopic{Topic: c.FurnaceAvailabilityTopic(entity.FurnaceId)})
		disConfig.AvailabilityMode = HA_AVAILABILITY_MODE_ALL
	}
	return disConfig
}

func device(d domain.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{d.Id},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		Name:         d.Name,
		ViaDevice:    d.ViaDevice,
	}
}
