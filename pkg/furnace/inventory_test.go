package furnace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetTruncatesToStackLimit(t *testing.T) {

	assert := assert.New(t)

	inv := NewSlotInventory(DefaultStackLimit)
	inv.Set(SlotInput, NewStack("iron_ore", 100))

	assert.Equal(NewStack("iron_ore", 64), inv.Get(SlotInput))
}

func TestSetNonPositiveCountEmptiesSlot(t *testing.T) {

	assert := assert.New(t)

	inv := NewSlotInventory(DefaultStackLimit)
	inv.Set(SlotInput, NewStack("iron_ore", 3))
	inv.Set(SlotInput, ItemStack{Kind: "iron_ore", Count: 0})

	assert.True(inv.Get(SlotInput).IsEmpty())
	assert.Equal(Empty, inv.Get(SlotInput))
}

func TestTake(t *testing.T) {

	assert := assert.New(t)

	inv := NewSlotInventory(DefaultStackLimit)
	inv.Set(SlotOutput, NewStack("glass", 10))

	taken := inv.Take(SlotOutput, 4)
	assert.Equal(NewStack("glass", 4), taken)
	assert.Equal(NewStack("glass", 6), inv.Get(SlotOutput))

	taken = inv.Take(SlotOutput, 50)
	assert.Equal(NewStack("glass", 6), taken)
	assert.Equal(Empty, inv.Get(SlotOutput))

	taken = inv.Take(SlotOutput, 1)
	assert.True(taken.IsEmpty(), "take from empty slot")
}

func TestTakeAll(t *testing.T) {

	assert := assert.New(t)

	inv := NewSlotInventory(DefaultStackLimit)
	inv.Set(SlotEnergyItem, ItemStack{Kind: "battery", Count: 1, Charge: 50})

	taken := inv.TakeAll(SlotEnergyItem)
	assert.Equal(ItemStack{Kind: "battery", Count: 1, Charge: 50}, taken)
	assert.Equal(Empty, inv.Get(SlotEnergyItem))
}

func TestInvalidSlotPanics(t *testing.T) {

	inv := NewSlotInventory(DefaultStackLimit)

	assert.Panics(t, func() { inv.Get(SlotCount) })
	assert.Panics(t, func() { inv.Set(Slot(-1), NewStack("sand", 1)) })
	assert.Panics(t, func() { inv.Take(Slot(7), 1) })
	assert.False(t, Slot(3).Valid())
	assert.True(t, SlotOutput.Valid())
}

func TestSplit(t *testing.T) {

	assert := assert.New(t)

	taken, rest := NewStack("sand", 5).Split(2)
	assert.Equal(NewStack("sand", 2), taken)
	assert.Equal(NewStack("sand", 3), rest)

	taken, rest = NewStack("sand", 5).Split(0)
	assert.True(taken.IsEmpty())
	assert.Equal(NewStack("sand", 5), rest)
}
