package service

import (
	"fmt"
	"strings"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"
)

// BuildRecipeTable extends the default recipes with the configured input => output pairs
func BuildRecipeTable(recipes map[string]string) (furnace.RecipeTable, error) {
	table := furnace.DefaultRecipes()
	for input, output := range recipes {
		input = strings.TrimSpace(input)
		output = strings.TrimSpace(output)
		if input == "" || output == "" {
			return nil, fmt.Errorf("invalid recipe %q => %q", input, output)
		}
		table[furnace.ItemKind(input)] = furnace.NewStack(furnace.ItemKind(output), 1)
	}
	return table, nil
}

// BuildBatteryTable extends the default electric items with the configured batteries
func BuildBatteryTable(batteries []config.BatteryConfig) furnace.BatteryTable {
	table := furnace.DefaultBatteries()
	for _, b := range batteries {
		voltage := b.Voltage
		if voltage <= 0 {
			voltage = furnace.DefaultVoltage
		}
		table[furnace.ItemKind(b.Kind)] = furnace.Battery{
			Rate:      b.TransferRate,
			Voltage:   voltage,
			MaxCharge: b.MaxCharge,
		}
	}
	return table
}
