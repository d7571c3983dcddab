package service

import (
	"testing"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"github.com/stretchr/testify/assert"
)

func TestBuildRecipeTable(t *testing.T) {

	assert := assert.New(t)

	table, err := BuildRecipeTable(map[string]string{"netherrack": "nether_brick"})
	assert.NoError(err)

	result, ok := table.Lookup(furnace.NewStack("netherrack", 3))
	assert.True(ok)
	assert.Equal(furnace.NewStack("nether_brick", 1), result)

	_, ok = table.Lookup(furnace.NewStack("iron_ore", 1))
	assert.True(ok, "defaults are kept")

	_, err = BuildRecipeTable(map[string]string{"dirt": " "})
	assert.Error(err)
}

func TestBuildBatteryTable(t *testing.T) {

	assert := assert.New(t)

	table := BuildBatteryTable([]config.BatteryConfig{{Kind: "lapotron", TransferRate: 50, MaxCharge: 1e6}})

	item, ok := table.ElectricItem("lapotron")
	assert.True(ok)
	assert.Equal(50.0, item.TransferRate())
	assert.Equal(furnace.DefaultVoltage, item.Volts())

	_, ok = table.ElectricItem("battery")
	assert.True(ok)
}
