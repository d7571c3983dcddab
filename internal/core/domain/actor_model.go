package domain

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_MODBUS       = "modbus"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_STORAGE      = "storage"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
	ACTOR_ID_FURNACE      = "furnace"
	ACTOR_ID_GENERATOR    = "generator"
)

func FurnaceActorId(furnaceId string) string {
	return ACTOR_ID_FURNACE + "-" + furnaceId
}

func GeneratorActorId(furnaceId string) string {
	return ACTOR_ID_GENERATOR + "-" + furnaceId
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload any
	Retain  bool
	QoS     byte
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors      []GenericSensor
	Switches     []GenericSwitch
	InputNumbers []GenericInputNumber
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
