package modbus

import (
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

// FurnaceRegisters is the decoded input register block of one unit
type FurnaceRegisters struct {
	Stored        float64
	Capacity      float64
	ProgressTicks int
	RequiredTicks int
	DisableTicks  int
	Converting    bool
	Counts        [3]int
	Voltage       int
}

type Instrument struct {
	RecordTime func(fnName string, readTime time.Duration)
}

// Client reads furnace units from a modbus server
type Client struct {
	client     *modbus.ModbusClient
	instrument []Instrument
}

func NewClient(host string, port uint, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", host, port),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	var inst []Instrument
	if logger != nil {
		inst = append(inst, Instrument{
			RecordTime: func(fnName string, readTime time.Duration) {
				logger.Debug("modbus client", zap.String("fn", fnName), zap.Duration("took", readTime))
			},
		})
	}
	return &Client{client: client, instrument: inst}, nil
}

func (c *Client) Open() error {
	return c.client.Open()
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) ReadFurnace(unitId uint8) (*FurnaceRegisters, error) {
	defer recordTimer("ReadFurnace", c.instrument)()
	if err := c.client.SetUnitId(unitId); err != nil {
		return nil, err
	}
	regs, err := c.client.ReadRegisters(0, INPUT_REGISTERS, modbus.INPUT_REGISTER)
	if err != nil {
		return nil, err
	}
	return &FurnaceRegisters{
		Stored:        DecodeFloat64(regs[REG_STORED:]),
		Capacity:      DecodeFloat64(regs[REG_CAPACITY:]),
		ProgressTicks: int(regs[REG_PROGRESS_TICKS]),
		RequiredTicks: int(regs[REG_REQUIRED_TICKS]),
		DisableTicks:  int(int16(regs[REG_DISABLE_TICKS])),
		Converting:    regs[REG_CONVERTING] != 0,
		Counts:        [3]int{int(regs[REG_ENERGY_COUNT]), int(regs[REG_INPUT_COUNT]), int(regs[REG_OUTPUT_COUNT])},
		Voltage:       int(regs[REG_VOLTAGE]),
	}, nil
}

func (c *Client) ReadFlags(unitId uint8) (disabled bool, converting bool, err error) {
	defer recordTimer("ReadFlags", c.instrument)()
	if err := c.client.SetUnitId(unitId); err != nil {
		return false, false, err
	}
	flags, err := c.client.ReadDiscreteInputs(0, DISCRETE_INPUTS)
	if err != nil {
		return false, false, err
	}
	return flags[DI_DISABLED], flags[DI_CONVERTING], nil
}

func (c *Client) SetDisabled(unitId uint8, disable bool) error {
	defer recordTimer("SetDisabled", c.instrument)()
	if err := c.client.SetUnitId(unitId); err != nil {
		return err
	}
	return c.client.WriteCoil(COIL_DISABLE, disable)
}

func recordTimer(name string, instrument []Instrument) func() {
	if instrument == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		duration := time.Since(start)
		for i := range instrument {
			instrument[i].RecordTime(name, duration)
		}
	}
}
