package furnace

const notDisabled = -1

// DisableGate suspends a device for a number of ticks. Remaining is -1 when
// the gate is open.
type DisableGate struct {
	remaining int
}

func NewDisableGate() DisableGate {
	return DisableGate{remaining: notDisabled}
}

// Disable closes the gate for the given number of ticks. Zero or negative
// values open it.
func (g *DisableGate) Disable(ticks int) {
	if ticks <= 0 {
		g.remaining = notDisabled
		return
	}
	g.remaining = ticks
}

func (g *DisableGate) Active() bool {
	return g.remaining > 0
}

func (g *DisableGate) Remaining() int {
	return g.remaining
}

// Tick consumes one suspended tick. It returns true when the tick was
// swallowed by the gate.
func (g *DisableGate) Tick() bool {
	if !g.Active() {
		g.remaining = notDisabled
		return false
	}
	g.remaining--
	if g.remaining == 0 {
		g.remaining = notDisabled
	}
	return true
}

// restore loads a raw counter received over the wire.
func (g *DisableGate) restore(remaining int) {
	if remaining <= 0 {
		remaining = notDisabled
	}
	g.remaining = remaining
}
