package mqtt

import (
	"testing"

	"github.com/berfenger/furnace2mqtt/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientWithBase(baseTopic string) *MQTTClient {
	cfg := config.Config{MQTT: config.MQTTConfig{BaseTopic: baseTopic}}
	return CreateMQTTClient(&cfg, OptsFromConfig(&cfg), nil, nil)
}

func TestParseCommand(t *testing.T) {

	require := require.New(t)

	client := clientWithBase("loremTopic")

	cmd, err := client.parseCommand("loremTopic/switch/furnace_1_disable/command", []byte("on"))
	require.NoError(err)
	require.Equal(COMMAND_SWITCH, cmd.Command)
	require.Equal("furnace_1_disable", cmd.DeviceId)
	require.Equal("on", cmd.Payload)

	cmd, err = client.parseCommand("loremTopic/number/furnace_1_generator_power/set", []byte("37.5"))
	require.NoError(err)
	require.Equal(COMMAND_NUMBER, cmd.Command)
	require.Equal("furnace_1_generator_power", cmd.DeviceId)
}

func TestParseCommandRejects(t *testing.T) {

	assert := assert.New(t)

	client := clientWithBase("loremTopic")

	_, err := client.parseCommand("loremTopic/switch/my_device/state", []byte("on"))
	assert.ErrorIs(err, ErrUnknownCommandTopic)

	_, err = client.parseCommand("other/switch/my_device/command", []byte("on"))
	assert.ErrorIs(err, ErrUnknownCommandTopic)

	_, err = client.parseCommand("loremTopic/switch/my_device/command", []byte("maybe"))
	assert.ErrorIs(err, ErrInvalidPayload)

	_, err = client.parseCommand("loremTopic/number/my_number/set", []byte("12W"))
	assert.ErrorIs(err, ErrInvalidPayload)
}

func TestCommandTopics(t *testing.T) {

	assert := assert.New(t)

	topics := clientWithBase("f2m").commandTopics()
	assert.Equal(map[string]byte{
		"f2m/switch/+/command": 1,
		"f2m/number/+/set":     1,
	}, topics)
}

func TestSyncTopicParse(t *testing.T) {

	assert := assert.New(t)

	client := clientWithBase("furnace2mqtt")

	topic := client.SyncTopic("furnace_1")
	assert.Equal("furnace2mqtt/furnace/furnace_1/sync", topic)

	id, ok := client.SyncFurnaceId(topic)
	assert.True(ok)
	assert.Equal("furnace_1", id)

	_, ok = client.SyncFurnaceId("furnace2mqtt/furnace/furnace_1/state")
	assert.False(ok)
	_, ok = client.SyncFurnaceId("other/furnace2mqtt/furnace/furnace_1/sync")
	assert.False(ok)
	assert.Equal("furnace2mqtt/furnace/furnace_1/availability", client.FurnaceAvailabilityTopic("furnace_1"))
}
