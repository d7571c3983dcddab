package furnace

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDepositWithinCapacity(t *testing.T) {

	assert := assert.New(t)

	b := NewEnergyBuffer(DefaultCapacity)
	accepted, rejected := b.Deposit(100)

	assert.Equal(100.0, accepted)
	assert.Equal(0.0, rejected)
	assert.Equal(100.0, b.Stored())
}

func TestDepositOverflow(t *testing.T) {

	assert := assert.New(t)

	b := NewEnergyBuffer(DefaultCapacity)
	b.Deposit(1700)
	accepted, rejected := b.Deposit(300)

	assert.Equal(100.0, accepted)
	assert.Equal(200.0, rejected)
	assert.Equal(DefaultCapacity, b.Stored())
	assert.True(b.Full())
}

func TestDepositKeepsBufferInBounds(t *testing.T) {

	amounts := []float64{0, 0.5, 1, 17.25, 899.9, 1800, 1800.0001, 1e6, 1e18, math.MaxFloat64 / 4}
	starts := []float64{0, 1, 900, 1799.99, 1800}

	for _, start := range starts {
		for _, amount := range amounts {
			b := NewEnergyBuffer(DefaultCapacity)
			b.restore(start)

			accepted, rejected := b.Deposit(amount)

			assert.GreaterOrEqual(t, b.Stored(), 0.0, "start=%v amount=%v", start, amount)
			assert.LessOrEqual(t, b.Stored(), DefaultCapacity, "start=%v amount=%v", start, amount)
			assert.GreaterOrEqual(t, rejected, 0.0, "start=%v amount=%v", start, amount)
			assert.Equal(t, amount-rejected, accepted, "start=%v amount=%v", start, amount)
		}
	}
}

func TestNegativeDepositClampsStoredToZero(t *testing.T) {

	assert := assert.New(t)

	b := NewEnergyBuffer(DefaultCapacity)
	b.Deposit(3)
	accepted, rejected := b.Deposit(-5)

	assert.Equal(0.0, b.Stored())
	assert.Equal(0.0, rejected)
	assert.Equal(-5.0, accepted)
}

func TestWithdrawForTickIsNotClamped(t *testing.T) {

	assert := assert.New(t)

	b := NewEnergyBuffer(DefaultCapacity)
	b.restore(1)

	assert.Equal(11.25, b.PerTick(DefaultRequiredTicks))
	assert.False(b.CanWithdraw(b.PerTick(DefaultRequiredTicks)))

	b.WithdrawForTick(DefaultRequiredTicks)
	assert.Equal(-10.25, b.Stored())
}
