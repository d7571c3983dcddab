package furnace

import (
	"fmt"
	"math"
)

type Slot int

const (
	SlotEnergyItem Slot = iota
	SlotInput
	SlotOutput
	SlotCount
)

const (
	DefaultStackLimit = 64
	// MaxStackLimit bounds stack counts to what a record slot (signed byte) holds
	MaxStackLimit = math.MaxInt8
)

var slotNames = [SlotCount]string{"energy_item", "input", "output"}

func (s Slot) Valid() bool {
	return s >= 0 && s < SlotCount
}

func (s Slot) String() string {
	if s.Valid() {
		return slotNames[s]
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

// SlotInventory is a fixed set of item slots. Every slot is either empty or
// holds at least one item. An out of range slot index panics.
type SlotInventory struct {
	slots      [SlotCount]ItemStack
	stackLimit int
}

func NewSlotInventory(stackLimit int) *SlotInventory {
	if stackLimit <= 0 {
		stackLimit = DefaultStackLimit
	}
	stackLimit = min(stackLimit, MaxStackLimit)
	return &SlotInventory{stackLimit: stackLimit}
}

func (inv *SlotInventory) Size() int {
	return int(SlotCount)
}

func (inv *SlotInventory) StackLimit() int {
	return inv.stackLimit
}

func (inv *SlotInventory) Get(slot Slot) ItemStack {
	mustValid(slot)
	return inv.slots[slot]
}

// Set stores the stack, silently dropping anything above the stack limit.
func (inv *SlotInventory) Set(slot Slot, stack ItemStack) {
	mustValid(slot)
	stack = stack.normalized()
	if stack.Count > inv.stackLimit {
		stack.Count = inv.stackLimit
	}
	inv.slots[slot] = stack
}

// Take removes up to max items from the slot and returns what was removed.
func (inv *SlotInventory) Take(slot Slot, max int) ItemStack {
	mustValid(slot)
	taken, rest := inv.slots[slot].Split(max)
	inv.slots[slot] = rest.normalized()
	return taken
}

func (inv *SlotInventory) TakeAll(slot Slot) ItemStack {
	mustValid(slot)
	stack := inv.slots[slot]
	inv.slots[slot] = Empty
	return stack
}

// put stores the stack without applying the stack limit.
func (inv *SlotInventory) put(slot Slot, stack ItemStack) {
	mustValid(slot)
	inv.slots[slot] = stack.normalized()
}

func (inv *SlotInventory) grow(slot Slot, n int) {
	mustValid(slot)
	inv.slots[slot].Count += n
}

func (inv *SlotInventory) clear() {
	for i := range inv.slots {
		inv.slots[i] = Empty
	}
}

func mustValid(slot Slot) {
	if !slot.Valid() {
		panic(fmt.Sprintf("furnace: invalid slot index %d", int(slot)))
	}
}
