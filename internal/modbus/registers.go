package modbus

import (
	"encoding/binary"
	"math"

	"github.com/berfenger/furnace2mqtt/pkg/furnace"
)

// Input register layout of one furnace unit
const (
	REG_STORED         = 0 // float64, 4 registers
	REG_CAPACITY       = 4 // float64, 4 registers
	REG_PROGRESS_TICKS = 8
	REG_REQUIRED_TICKS = 9
	REG_DISABLE_TICKS  = 10 // int16
	REG_CONVERTING     = 11
	REG_ENERGY_COUNT   = 12
	REG_INPUT_COUNT    = 13
	REG_OUTPUT_COUNT   = 14
	REG_VOLTAGE        = 15
	INPUT_REGISTERS    = 16

	DI_DISABLED     = 0
	DI_CONVERTING   = 1
	DISCRETE_INPUTS = 2
	COIL_DISABLE    = 0
	COILS           = 1
)

// EncodeInputRegisters lays a snapshot out as big-endian, high word first registers
func EncodeInputRegisters(s furnace.Snapshot) []uint16 {
	regs := make([]uint16, INPUT_REGISTERS)
	putFloat64(regs[REG_STORED:], s.Stored)
	putFloat64(regs[REG_CAPACITY:], s.Capacity)
	regs[REG_PROGRESS_TICKS] = clampUint16(s.ProgressTicks)
	regs[REG_REQUIRED_TICKS] = clampUint16(s.RequiredTicks)
	regs[REG_DISABLE_TICKS] = uint16(clampInt16(s.DisableTicks))
	regs[REG_CONVERTING] = boolRegister(s.Converting())
	regs[REG_ENERGY_COUNT] = clampUint16(s.Slots[furnace.SlotEnergyItem].Count)
	regs[REG_INPUT_COUNT] = clampUint16(s.Slots[furnace.SlotInput].Count)
	regs[REG_OUTPUT_COUNT] = clampUint16(s.Slots[furnace.SlotOutput].Count)
	regs[REG_VOLTAGE] = clampUint16(s.Voltage)
	return regs
}

func EncodeDiscreteInputs(s furnace.Snapshot) []bool {
	return []bool{s.Disabled, s.Converting()}
}

// DecodeFloat64 reads 4 registers written by EncodeInputRegisters
func DecodeFloat64(regs []uint16) float64 {
	var buf [8]byte
	for i := 0; i < 4; i++ {
		binary.BigEndian.PutUint16(buf[i*2:], regs[i])
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf[:]))
}

func putFloat64(regs []uint16, v float64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
	for i := 0; i < 4; i++ {
		regs[i] = binary.BigEndian.Uint16(buf[i*2:])
	}
}

func clampUint16(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}

func clampInt16(v int) int16 {
	if v < math.MinInt16 {
		return math.MinInt16
	}
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	return int16(v)
}

func boolRegister(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
