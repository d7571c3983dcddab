package port

import "github.com/berfenger/furnace2mqtt/pkg/furnace"

type EnergySourceStats struct {
	Offered   float64
	Delivered float64
	Wasted    float64
	Buffered  float64
}

type EnergySource interface {
	Offer() float64
	Settle(offered, rejected float64)
	SetOutput(watts float64) error
	Output() float64
	Voltage() int
	Side() furnace.Direction
	Stats() EnergySourceStats
}
