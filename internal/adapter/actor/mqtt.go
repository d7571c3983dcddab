package actor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/internal/mqtt"
	"github.com/berfenger/furnace2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type MQTTActor struct {
	config         *config.Config
	behavior       actor.Behavior
	stash          *actorutil.Stash
	client         *mqtt.MQTTClient
	eventStream    *eventstream.EventStream
	eventStreamSub *eventstream.Subscription
	logger         *zap.Logger
	// set by the test actor only
	published []rawMessage
}

type OnEventStreamMessage struct {
	message any
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type publishResult struct {
	ReplyTo  *actor.PID
	Error    error
	response func(error) any
}

type ParsedCommand struct {
	Command *mqtt.ParsedMQTTCommand
}

type rawMessage struct {
	topic   string
	message any
	retain  bool
}

func NewMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		// create MQTT client
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), func(_ pahomqtt.Client) {
		}, func(_ pahomqtt.Client, err error) {
			ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
		})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		for _, raw := range state.onlineMessages() {
			state.client.Publish(raw.topic, raw.message, 0, true, func(error) {}, 500*time.Millisecond)
		}

		// subscribe to eventStream
		state.subscribeEventStream(ctx)

		// subscribe to MQTT command topic
		state.client.SubscribeToCommandTopic(func(c pahomqtt.Client, m pahomqtt.Message) {
			cmd, err := state.client.ParseMQTTCommand(m)
			if err != nil {
				state.logger.Warn("mqtt: command dropped", zap.String("topic", m.Topic()), zap.Error(err))
				return
			}
			ctx.Send(ctx.Self(), ParsedCommand{Command: cmd})
		}, func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTSubscribed{})
			}
		}, 1*time.Second)
	case MQTTSubscribed:
		// init completed, transition to default state
		state.logger.Debug("mqtt@starting subscribed")
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case OnEventStreamMessage:
		state.onEvent(ctx, msg.message)
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case ParsedCommand:
		// route command to parent
		state.logger.Debug("mqtt@default parsedCommand", zap.Any("command", msg.Command))
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishMessageRequest:
		state.logger.Debug("mqtt@default PublishMessageRequest", zap.Any("message", msg))
		state.publish(ctx, rawMessage{topic: msg.Topic, message: msg.Payload, retain: msg.Retain}, msg.QoS, publishResult{
			ReplyTo: actorutil.ForRequest(msg).ReplyTo(ctx),
			response: func(err error) any {
				return domain.PublishMessageResponse{ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err}}
			},
		})
	case domain.PublishSensorUpdateRequest:
		state.logger.Debug("mqtt@default PublishSensorUpdateRequest", zap.String("type", fmt.Sprintf("%T", msg.Event)))
		if raw := state.event2MQTTMessage(msg.Event); raw != nil {
			raw.retain = raw.retain || msg.Retain
			state.publish(ctx, *raw, 1, publishResult{
				ReplyTo: actorutil.ForRequest(msg).ReplyTo(ctx),
				response: func(err error) any {
					return domain.PublishSensorUpdateResponse{ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err}}
				},
			})
		}
	case domain.PublishDiscoveryRequest:
		state.logger.Debug("mqtt@default PublishHADiscovery")
		err := state.PublishHomeAssistantDiscovery(msg.Sensors, msg.Switches, msg.InputNumbers)
		if err != nil {
			state.logger.Error("mqtt@default PublishHADiscovery error", zap.Error(err))
		}
		if replyTo := actorutil.ForRequest(msg).ReplyTo(ctx); replyTo != nil {
			ctx.Send(replyTo, domain.PublishDiscoveryResponse{ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err}})
		}
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MQTTActor) event2MQTTMessage(event any) *rawMessage {
	switch msg := event.(type) {
	case domain.FloatSensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.SensorStateTopic(msg.Id),
			message: fmt.Sprintf(fmt.Sprintf("%%.%df", msg.Decimals), msg.Value),
		}
	case domain.BinarySensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.BinarySensorStateTopic(msg.Id),
			message: bool2MQTTPayload(msg.Value),
		}
	case domain.SwitchSensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.SwitchStateTopic(msg.Id),
			message: bool2MQTTPayload(msg.Value),
			retain:  true,
		}
	case domain.InputNumberSensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.InputNumberStateTopic(msg.Id),
			message: fmt.Sprintf(fmt.Sprintf("%%.%df", msg.Decimals), msg.Value),
			retain:  true,
		}
	case domain.TextSensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.SensorStateTopic(msg.Id),
			message: msg.Value,
		}
	case domain.BridgeStateUpdateEvent:
		var stringMessage string
		if msg.Value {
			stringMessage = mqtt.MQTT_PAYLOAD_ONLINE
		} else {
			stringMessage = mqtt.MQTT_PAYLOAD_OFFLINE
		}
		return &rawMessage{
			topic:   state.client.BridgeStateTopic(),
			message: stringMessage,
		}
	default:
		return nil
	}
}

func (state *MQTTActor) subscribeEventStream(ctx actor.Context) {
	if state.eventStream == nil || state.eventStreamSub != nil {
		return
	}
	state.eventStreamSub = state.eventStream.Subscribe(func(value any) {
		ctx.Send(ctx.Self(), OnEventStreamMessage{
			message: value,
		})
	})
}

func (state *MQTTActor) unsubscribeEventStream() {
	if state.eventStream != nil && state.eventStreamSub != nil {
		state.eventStream.Unsubscribe(state.eventStreamSub)
		state.eventStreamSub = nil
	}
}

// onEvent publishes sensor updates, sync packets and furnace availability taken from the event stream
func (state *MQTTActor) onEvent(ctx actor.Context, event any) {
	switch msg := event.(type) {
	case domain.SensorUpdateEvent:
		if raw := state.event2MQTTMessage(msg); raw != nil {
			state.publish(ctx, *raw, 1, publishResult{})
		}
	case domain.SyncPacketEvent:
		raw := state.syncMessage(msg)
		if raw == nil {
			return
		}
		// sync packets are fire and forget
		state.client.Publish(raw.topic, raw.message, 0, false, func(err error) {
			if err != nil {
				state.logger.Debug("mqtt@publish: sync packet dropped", zap.String("furnace", msg.FurnaceId), zap.Error(err))
			}
		}, 1*time.Second)
	case domain.FurnaceOverloadEvent:
		if raw := state.availabilityMessage(msg); raw != nil {
			state.logger.Warn("mqtt@publish: furnace offline", zap.String("furnace", msg.FurnaceId))
			state.publish(ctx, *raw, 1, publishResult{})
		}
	}
}

func (state *MQTTActor) syncMessage(event domain.SyncPacketEvent) *rawMessage {
	if !state.config.MQTT.SyncEnable {
		return nil
	}
	return &rawMessage{topic: state.client.SyncTopic(event.FurnaceId), message: event.Payload}
}

// availabilityMessage marks a destroyed furnace offline, its entities become unavailable
func (state *MQTTActor) availabilityMessage(event domain.FurnaceOverloadEvent) *rawMessage {
	if !event.Destroyed {
		return nil
	}
	return &rawMessage{
		topic:   state.client.FurnaceAvailabilityTopic(event.FurnaceId),
		message: mqtt.MQTT_PAYLOAD_OFFLINE,
		retain:  true,
	}
}

func (state *MQTTActor) onlineMessages() []rawMessage {
	msgs := []rawMessage{{topic: state.client.BridgeStateTopic(), message: mqtt.MQTT_PAYLOAD_ONLINE, retain: true}}
	for _, f := range state.config.Furnaces {
		msgs = append(msgs, rawMessage{
			topic:   state.client.FurnaceAvailabilityTopic(f.Id),
			message: mqtt.MQTT_PAYLOAD_ONLINE,
			retain:  true,
		})
	}
	return msgs
}

// publish sends one message and waits for its outcome in PublishResultReceive
func (state *MQTTActor) publish(ctx actor.Context, raw rawMessage, qos byte, result publishResult) {
	state.logger.Sugar().Debugf("mqtt@publish: %s => %v", raw.topic, raw.message)
	state.client.Publish(raw.topic, raw.message, qos, raw.retain, func(err error) {
		result.Error = err
		ctx.Send(ctx.Self(), result)
	}, 5*time.Second)
	state.behavior.BecomeStacked(state.PublishResultReceive)
}

func (state *MQTTActor) PublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil && msg.response != nil {
			ctx.Send(msg.ReplyTo, msg.response(msg.Error))
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)), zap.Int("stashed", state.stash.Len()))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) PublishHomeAssistantDiscovery(sensors []domain.GenericSensor,
	switches []domain.GenericSwitch, inputNumbers []domain.GenericInputNumber) error {
	var errs []error
	for _, msg := range state.client.DiscoveryMessages(sensors, switches, inputNumbers) {
		payload, err := json.Marshal(msg.Config)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", msg.Topic, err))
			continue
		}
		state.client.Publish(msg.Topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	return errors.Join(errs...)
}

func (state *MQTTActor) stop() {
	state.logger.Debug("mqtt: disconnect")
	state.unsubscribeEventStream()
	if state.client != nil {
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
		state.client.Disconnect(500 * time.Millisecond)
	}
}

func bool2MQTTPayload(value bool) string {
	if value {
		return mqtt.MQTT_PAYLOAD_ON
	} else {
		return mqtt.MQTT_PAYLOAD_OFF
	}
}

// Dummy actor
func NewTestMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

// GetPublishedRequest returns the messages a test actor would have published
type GetPublishedRequest struct{}

type GetPublishedResponse struct {
	Topics   []string
	Payloads []string
}

func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), nil, nil)
		state.published = append(state.published, state.onlineMessages()...)
		state.subscribeEventStream(ctx)
	case *actor.Stopping:
		state.unsubscribeEventStream()
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "dummy",
		})
	case OnEventStreamMessage:
		var raw *rawMessage
		switch event := msg.message.(type) {
		case domain.SensorUpdateEvent:
			raw = state.event2MQTTMessage(event)
		case domain.SyncPacketEvent:
			raw = state.syncMessage(event)
		case domain.FurnaceOverloadEvent:
			raw = state.availabilityMessage(event)
		}
		if raw != nil {
			state.published = append(state.published, *raw)
		}
	case GetPublishedRequest:
		resp := GetPublishedResponse{}
		for _, raw := range state.published {
			resp.Topics = append(resp.Topics, raw.topic)
			resp.Payloads = append(resp.Payloads, payloadString(raw.message))
		}
		ctx.Respond(resp)
	case domain.PublishSensorUpdateRequest:
		if raw := state.event2MQTTMessage(msg.Event); raw != nil {
			state.published = append(state.published, *raw)
		}
		if msg.ReplyToRef != nil {
			ctx.Send((*actor.PID)(msg.ReplyToRef), domain.PublishSensorUpdateResponse{})
		}
	case domain.PublishDiscoveryRequest:
		for _, disc := range state.client.DiscoveryMessages(msg.Sensors, msg.Switches, msg.InputNumbers) {
			payload, _ := json.Marshal(disc.Config)
			state.published = append(state.published, rawMessage{topic: disc.Topic, message: payload, retain: true})
		}
	case domain.PublishMessageRequest:
		state.published = append(state.published, rawMessage{topic: msg.Topic, message: msg.Payload, retain: msg.Retain})
		if msg.ReplyToRef != nil {
			ctx.Send((*actor.PID)(msg.ReplyToRef), domain.PublishMessageResponse{})
		}
	}
}

func payloadString(payload any) string {
	switch p := payload.(type) {
	case string:
		return p
	case []byte:
		return string(p)
	default:
		return fmt.Sprint(p)
	}
}
