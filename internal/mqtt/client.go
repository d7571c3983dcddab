package mqtt

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"time"

	"github.com/berfenger/furnace2mqtt/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
	MQTT_PAYLOAD_ON      = "on"
	MQTT_PAYLOAD_OFF     = "off"

	COMMAND_SWITCH = "switch"
	COMMAND_NUMBER = "number"
)

var (
	ErrUnknownCommandTopic = errors.New("not a command topic")
	ErrInvalidPayload      = errors.New("invalid command payload")
)

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	return optsFromConfig(cfg, "furnace2mqtt")
}

// ObserverOptsFromConfig builds client options for a read-only observer, without LWT
func ObserverOptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := optsFromConfig(cfg, "furnace2mqtt_observer")
	opts.WillEnabled = false
	return opts
}

func optsFromConfig(cfg *config.Config, clientPrefix string) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("%s_%d", clientPrefix, rand.IntN(1000)))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client:     mqtt.NewClient(opts),
		cfg:        cfg.MQTT,
		commands:   commandRoutes(cfg.MQTT.BaseTopic),
		syncRegexp: entityTopicExtractor(cfg.MQTT.BaseTopic, "furnace", "sync"),
	}
}

type MQTTClient struct {
	client     mqtt.Client
	cfg        config.MQTTConfig
	commands   []commandRoute
	syncRegexp *regexp.Regexp
}

type ParsedMQTTCommand struct {
	DeviceId string
	Command  string
	Param    string
	Payload  string
}

// commandRoute maps a family of command topics to a command kind
type commandRoute struct {
	command  string
	filter   string
	pattern  *regexp.Regexp
	validate func(payload string) error
}

func commandRoutes(baseTopic string) []commandRoute {
	return []commandRoute{
		{
			command:  COMMAND_SWITCH,
			filter:   fmt.Sprintf("%s/switch/+/command", baseTopic),
			pattern:  entityTopicExtractor(baseTopic, "switch", "command"),
			validate: validateSwitchPayload,
		},
		{
			command:  COMMAND_NUMBER,
			filter:   fmt.Sprintf("%s/number/+/set", baseTopic),
			pattern:  entityTopicExtractor(baseTopic, "number", "set"),
			validate: validateNumberPayload,
		},
	}
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) SensorStateTopic(sensorId string) string {
	return fmt.Sprintf("%s/sensor/%s/state", c.baseTopic(), sensorId)
}

func (c *MQTTClient) BinarySensorStateTopic(sensorId string) string {
	return fmt.Sprintf("%s/binary_sensor/%s/state", c.baseTopic(), sensorId)
}

func (c *MQTTClient) SwitchStateTopic(switchId string) string {
	return fmt.Sprintf("%s/switch/%s/state", c.baseTopic(), switchId)
}

func (c *MQTTClient) SwitchCommandTopic(switchId string) string {
	return fmt.Sprintf("%s/switch/%s/command", c.baseTopic(), switchId)
}

func (c *MQTTClient) InputNumberStateTopic(id string) string {
	return fmt.Sprintf("%s/number/%s/state", c.baseTopic(), id)
}

func (c *MQTTClient) InputNumberCommandTopic(id string) string {
	return fmt.Sprintf("%s/number/%s/set", c.baseTopic(), id)
}

// FurnaceAvailabilityTopic carries the retained online/offline state of one furnace
func (c *MQTTClient) FurnaceAvailabilityTopic(furnaceId string) string {
	return fmt.Sprintf("%s/furnace/%s/availability", c.baseTopic(), furnaceId)
}

func (c *MQTTClient) SyncTopic(furnaceId string) string {
	return syncTopic(c.baseTopic(), furnaceId)
}

// SyncFurnaceId extracts the furnace id of a sync topic
func (c *MQTTClient) SyncFurnaceId(topic string) (string, bool) {
	matches := c.syncRegexp.FindStringSubmatch(topic)
	if len(matches) != 2 {
		return "", false
	}
	return matches[1], true
}

func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	return c.parseCommand(msg.Topic(), msg.Payload())
}

func (c *MQTTClient) parseCommand(topic string, payload []byte) (*ParsedMQTTCommand, error) {
	for _, route := range c.commands {
		matches := route.pattern.FindStringSubmatch(topic)
		if len(matches) != 2 {
			continue
		}
		if err := route.validate(string(payload)); err != nil {
			return nil, fmt.Errorf("%s command on %s: %w", route.command, matches[1], err)
		}
		return &ParsedMQTTCommand{
			DeviceId: matches[1],
			Command:  route.command,
			Payload:  string(payload),
		}, nil
	}
	return nil, ErrUnknownCommandTopic
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	awaitToken(c.client.Publish(topic, qos, retain, payload), "publish", continuation, timeout)
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	awaitToken(c.client.Subscribe(topic, qos, handler), "subscribe", continuation, timeout)
}

func (c *MQTTClient) SubscribeMultiple(filters map[string]byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	awaitToken(c.client.SubscribeMultiple(filters, handler), "subscribe", continuation, timeout)
}

func (c *MQTTClient) SubscribeToCommandTopic(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	c.SubscribeMultiple(c.commandTopics(), handler, continuation, timeout)
}

func (c *MQTTClient) SubscribeToSyncTopic(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	c.Subscribe(syncTopic(c.baseTopic(), "+"), 0, handler, continuation, timeout)
}

func (c *MQTTClient) Unsubscribe(topic string, continuation func(error), timeout time.Duration) {
	awaitToken(c.client.Unsubscribe(topic), "unsubscribe", continuation, timeout)
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	awaitToken(c.client.Connect(), "connect", continuation, timeout)
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func (c *MQTTClient) commandTopics() map[string]byte {
	filters := make(map[string]byte, len(c.commands))
	for _, route := range c.commands {
		filters[route.filter] = 1
	}
	return filters
}

// awaitToken waits for the token off the caller goroutine and hands the outcome to continuation
func awaitToken(token mqtt.Token, op string, continuation func(error), timeout time.Duration) {
	go func() {
		if !token.WaitTimeout(timeout) {
			continuation(fmt.Errorf("MQTT %s timed out", op))
			return
		}
		continuation(token.Error())
	}()
}

func validateSwitchPayload(payload string) error {
	if payload != MQTT_PAYLOAD_ON && payload != MQTT_PAYLOAD_OFF {
		return ErrInvalidPayload
	}
	return nil
}

func validateNumberPayload(payload string) error {
	if _, err := strconv.ParseFloat(payload, 64); err != nil {
		return ErrInvalidPayload
	}
	return nil
}

func entityTopicExtractor(baseTopic, component, action string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/%s/([a-zA-Z0-9_]+)/%s$", regexp.QuoteMeta(baseTopic), component, action))
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}

func syncTopic(baseTopic, furnaceId string) string {
	return fmt.Sprintf("%s/furnace/%s/sync", baseTopic, furnaceId)
}
