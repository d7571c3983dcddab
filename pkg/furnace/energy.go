package furnace

import "math"

// EnergyBuffer holds stored energy against a fixed capacity.
type EnergyBuffer struct {
	stored   float64
	capacity float64
}

func NewEnergyBuffer(capacity float64) *EnergyBuffer {
	return &EnergyBuffer{capacity: capacity}
}

func (b *EnergyBuffer) Stored() float64 {
	return b.stored
}

func (b *EnergyBuffer) Capacity() float64 {
	return b.capacity
}

// Deposit adds amount to the buffer. Whatever does not fit is rejected and the
// stored value never drops below zero.
func (b *EnergyBuffer) Deposit(amount float64) (accepted, rejected float64) {
	rejected = math.Max(b.stored+amount-b.capacity, 0)
	b.stored = math.Max(b.stored+amount-rejected, 0)
	if b.stored > b.capacity {
		// guard on top of the rejection formula: with large magnitudes
		// stored+amount-rejected can round above capacity
		b.stored = b.capacity
	}
	return amount - rejected, rejected
}

func (b *EnergyBuffer) CanWithdraw(amount float64) bool {
	return b.stored >= amount
}

// PerTick is the fixed drain of one conversion step.
func (b *EnergyBuffer) PerTick(requiredTicks int) float64 {
	if requiredTicks <= 0 {
		return b.capacity
	}
	return b.capacity / float64(requiredTicks)
}

// WithdrawForTick removes one conversion step worth of energy. The result is
// not clamped.
func (b *EnergyBuffer) WithdrawForTick(requiredTicks int) {
	b.stored -= b.PerTick(requiredTicks)
}

func (b *EnergyBuffer) Drain() {
	b.stored = 0
}

// restore overwrites the stored value as received from a record or a packet.
func (b *EnergyBuffer) restore(stored float64) {
	b.stored = stored
}

func (b *EnergyBuffer) Full() bool {
	return b.stored >= b.capacity
}
