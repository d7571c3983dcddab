package furnace

import "fmt"

type DrainModel string

const (
	// DrainCommit zeroes the buffer when a conversion starts. Every following
	// step still needs one step worth of fresh energy.
	DrainCommit DrainModel = "commit"
	// DrainFixedRate only takes capacity/requiredTicks per step, so a full
	// conversion costs exactly one full buffer.
	DrainFixedRate DrainModel = "fixed_rate"
)

func ParseDrainModel(s string) (DrainModel, error) {
	switch DrainModel(s) {
	case DrainCommit, "":
		return DrainCommit, nil
	case DrainFixedRate:
		return DrainFixedRate, nil
	}
	return DrainCommit, fmt.Errorf("invalid drain model %q", s)
}

type ConversionState int

const (
	Idle ConversionState = iota
	Converting
)

func (s ConversionState) String() string {
	if s == Converting {
		return "converting"
	}
	return "idle"
}

type StepResult struct {
	Started    bool
	Progressed bool
	Completed  bool
	Produced   ItemStack
}

// ConversionStateMachine counts a conversion down from requiredTicks to zero.
type ConversionStateMachine struct {
	progress int
	required int
	drain    DrainModel
}

func NewConversionStateMachine(requiredTicks int, drain DrainModel) *ConversionStateMachine {
	if requiredTicks <= 0 {
		requiredTicks = DefaultRequiredTicks
	}
	if drain == "" {
		drain = DrainCommit
	}
	return &ConversionStateMachine{required: requiredTicks, drain: drain}
}

func (m *ConversionStateMachine) State() ConversionState {
	if m.progress > 0 {
		return Converting
	}
	return Idle
}

func (m *ConversionStateMachine) Progress() int {
	return m.progress
}

func (m *ConversionStateMachine) Required() int {
	return m.required
}

func (m *ConversionStateMachine) DrainModel() DrainModel {
	return m.drain
}

// Eligible reports whether a conversion may start or advance right now and
// returns the result template of the current input.
func (m *ConversionStateMachine) Eligible(energy *EnergyBuffer, inv *SlotInventory, recipes RecipeLookup) (ItemStack, bool) {
	input := inv.Get(SlotInput)
	if input.IsEmpty() || recipes == nil {
		return Empty, false
	}
	result, ok := recipes.Lookup(input)
	if !ok {
		return Empty, false
	}
	if !energy.CanWithdraw(energy.PerTick(m.required)) {
		return Empty, false
	}
	output := inv.Get(SlotOutput)
	if output.IsEmpty() {
		return result, true
	}
	if output.Kind != result.Kind {
		return Empty, false
	}
	return result, output.Count+1 <= inv.StackLimit()
}

// Step runs one tick of the conversion. The caller is responsible for the
// disable gate.
func (m *ConversionStateMachine) Step(energy *EnergyBuffer, inv *SlotInventory, recipes RecipeLookup) StepResult {
	var res StepResult

	result, eligible := m.Eligible(energy, inv, recipes)
	if m.progress == 0 && eligible {
		if m.drain == DrainCommit {
			energy.Drain()
		}
		m.progress = m.required
		res.Started = true
		result, eligible = m.Eligible(energy, inv, recipes)
	}

	if m.progress > 0 && eligible {
		m.progress--
		energy.WithdrawForTick(m.required)
		res.Progressed = true
		if m.progress == 0 {
			res.Produced = m.complete(inv, result)
			res.Completed = true
		}
	}
	return res
}

// complete moves one unit of result into the output slot and consumes one
// input. The stack limit is not checked here.
func (m *ConversionStateMachine) complete(inv *SlotInventory, result ItemStack) ItemStack {
	produced := NewStack(result.Kind, 1)
	output := inv.Get(SlotOutput)
	if output.IsEmpty() {
		inv.put(SlotOutput, produced)
	} else if output.Kind == result.Kind {
		inv.grow(SlotOutput, 1)
	}
	inv.Take(SlotInput, 1)
	m.progress = 0
	return produced
}

// restore takes a received counter as is. Values above the required ticks
// just count down longer; negative values would never start nor progress
// again, so they load as idle.
func (m *ConversionStateMachine) restore(progress int) {
	m.progress = max(progress, 0)
}
