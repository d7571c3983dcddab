package furnace

import "math"

// ElectricItem is an item kind that carries its own charge and can feed it
// into a device placed in the energy item slot.
type ElectricItem interface {
	CanProduceElectricity() bool
	TransferRate() float64
	Volts() int
	// Discharge drains up to amount from the stack charge and returns what was drained.
	Discharge(stack *ItemStack, amount float64) float64
	// Recharge puts up to amount back into the stack and returns what was stored.
	Recharge(stack *ItemStack, amount float64) float64
}

type ElectricItems interface {
	ElectricItem(kind ItemKind) (ElectricItem, bool)
}

type Battery struct {
	Rate      float64 `mapstructure:"transfer_rate"`
	Voltage   int     `mapstructure:"voltage"`
	MaxCharge float64 `mapstructure:"max_charge"`
}

func (b Battery) CanProduceElectricity() bool {
	return true
}

func (b Battery) TransferRate() float64 {
	return b.Rate
}

func (b Battery) Volts() int {
	return b.Voltage
}

func (b Battery) Discharge(stack *ItemStack, amount float64) float64 {
	drained := math.Max(math.Min(amount, stack.Charge), 0)
	stack.Charge -= drained
	return drained
}

func (b Battery) Recharge(stack *ItemStack, amount float64) float64 {
	space := b.MaxCharge - stack.Charge
	if b.MaxCharge <= 0 {
		space = amount
	}
	stored := math.Max(math.Min(amount, space), 0)
	stack.Charge += stored
	return stored
}

type BatteryTable map[ItemKind]Battery

func (t BatteryTable) ElectricItem(kind ItemKind) (ElectricItem, bool) {
	b, ok := t[kind]
	if !ok {
		return nil, false
	}
	return b, true
}

func DefaultBatteries() BatteryTable {
	return BatteryTable{
		"battery":          {Rate: 10, Voltage: 120, MaxCharge: 10000},
		"infinite_battery": {Rate: 100, Voltage: 120, MaxCharge: 0},
	}
}
