package actorutil

import (
	"testing"

	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/internal/mqtt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsedMQTTCommandToCommand(t *testing.T) {

	require := require.New(t)

	cmd, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "furnace_1_disable",
		Command:  "switch",
		Payload:  "on",
	})
	require.NoError(err)
	disable, ok := cmd.(domain.DisableFurnaceRequest)
	require.True(ok)
	require.Equal("furnace_1", disable.FurnaceId())
	require.True(disable.Disable)

	cmd, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "furnace_1_generator_power",
		Command:  "number",
		Payload:  "42.5",
	})
	require.NoError(err)
	power, ok := cmd.(domain.SetGeneratorPowerRequest)
	require.True(ok)
	require.Equal("furnace_1", power.FurnaceId())
	require.Equal(42.5, power.Watts)
}

func TestParsedMQTTCommandToCommandUnknown(t *testing.T) {

	assert := assert.New(t)

	cmd, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{DeviceId: "lamp", Command: "switch", Payload: "on"})
	assert.NoError(err)
	assert.Nil(cmd)

	cmd, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{DeviceId: "_disable", Command: "switch", Payload: "on"})
	assert.NoError(err)
	assert.Nil(cmd)

	_, err = ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{DeviceId: "f_generator_power", Command: "number", Payload: "-3"})
	assert.Error(err)
}
