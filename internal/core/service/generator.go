package service

import (
	"fmt"
	"math"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/core/port"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"go.uber.org/zap"
)

// DefaultGenerator offers a fixed output per tick plus whatever the furnace rejected before,
// up to the buffer capacity. Rejections above the buffer capacity are wasted.
type DefaultGenerator struct {
	output         float64
	maxOutput      float64
	voltage        int
	side           furnace.Direction
	bufferCapacity float64
	buffered       float64
	stats          port.EnergySourceStats
	logger         *zap.Logger
}

func NewDefaultGenerator(cfg config.GeneratorConfig, logger *zap.Logger) (*DefaultGenerator, error) {
	side, err := furnace.ParseDirection(cfg.Side)
	if err != nil {
		return nil, err
	}
	g := &DefaultGenerator{
		maxOutput:      cfg.MaxWatts,
		voltage:        cfg.Voltage,
		side:           side,
		bufferCapacity: math.Max(0, cfg.BufferCapacity),
		logger:         logger,
	}
	if err := g.SetOutput(cfg.Watts); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *DefaultGenerator) Offer() float64 {
	offered := g.output + g.buffered
	g.buffered = 0
	g.stats.Offered += offered
	return offered
}

func (g *DefaultGenerator) Settle(offered, rejected float64) {
	rejected = math.Min(math.Max(rejected, 0), offered)
	g.stats.Delivered += offered - rejected
	if rejected <= 0 {
		return
	}
	keep := math.Min(rejected, g.bufferCapacity-g.buffered)
	g.buffered += keep
	if wasted := rejected - keep; wasted > 0 {
		g.stats.Wasted += wasted
		g.logger.Debug("generator: energy wasted", zap.Float64("wasted", wasted))
	}
	g.stats.Buffered = g.buffered
}

func (g *DefaultGenerator) SetOutput(watts float64) error {
	if watts < 0 || math.IsNaN(watts) || (g.maxOutput > 0 && watts > g.maxOutput) {
		return fmt.Errorf("generator output %v out of range [0, %v]", watts, g.maxOutput)
	}
	g.output = watts
	return nil
}

func (g *DefaultGenerator) Output() float64 {
	return g.output
}

func (g *DefaultGenerator) Voltage() int {
	return g.voltage
}

func (g *DefaultGenerator) Side() furnace.Direction {
	return g.side
}

func (g *DefaultGenerator) Stats() port.EnergySourceStats {
	return g.stats
}

// ensure interface compliance
var _ port.EnergySource = (*DefaultGenerator)(nil)
