package furnace

import (
	"go.uber.org/zap"
)

const (
	DefaultCapacity      = 1800.0
	DefaultVoltage       = 120
	DefaultRequiredTicks = 160
	SyncPacketKind       = int32(3)
	UsableDistanceSq     = 64.0
	InventoryName        = "Electric Furnace"
	DefaultTexture       = "electric_furnace"
)

// Capabilities a host can query independently.

type ElectricityConsumer interface {
	ReceiveEnergy(amount float64, voltage int, side Direction) (rejected float64, overloaded bool)
	AcceptsEnergy(side Direction) bool
	Stored() float64
	Capacity() float64
	Voltage() int
}

type Inventory interface {
	Size() int
	StackLimit() int
	Get(slot Slot) ItemStack
	Set(slot Slot, stack ItemStack)
	Take(slot Slot, max int) ItemStack
	TakeAll(slot Slot) ItemStack
	UsableBy(pos Vec3) bool
}

type SidedInventory interface {
	StartSlot(side Direction) Slot
	SlotsForSide(side Direction) int
}

type PacketReceiver interface {
	PacketKind() int32
	DecodeSyncPacket(data []byte) error
}

type Ticker interface {
	Advance() TickReport
}

type Disableable interface {
	Disable(ticks int)
	IsDisabled() bool
}

type OverloadHandler interface {
	OnOverload(d *Device, voltage int)
}

type OverloadFunc func(d *Device, voltage int)

func (f OverloadFunc) OnOverload(d *Device, voltage int) {
	f(d, voltage)
}

// Position is the block the device is placed on.
type Position struct {
	X int `json:"x" mapstructure:"x"`
	Y int `json:"y" mapstructure:"y"`
	Z int `json:"z" mapstructure:"z"`
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Config struct {
	Capacity      float64
	Voltage       int
	RequiredTicks int
	StackLimit    int
	Facing        Direction
	Position      Position
	DrainModel    DrainModel
	PacketKind    int32
	// Texture is an opaque key for whatever renders the device
	Texture string
}

func DefaultConfig() Config {
	return Config{
		Capacity:      DefaultCapacity,
		Voltage:       DefaultVoltage,
		RequiredTicks: DefaultRequiredTicks,
		StackLimit:    DefaultStackLimit,
		Facing:        North,
		DrainModel:    DrainCommit,
		PacketKind:    SyncPacketKind,
		Texture:       DefaultTexture,
	}
}

type TickReport struct {
	StepResult
	Skipped bool
	Charged float64
}

type Option func(*Device)

func WithElectricItems(items ElectricItems) Option {
	return func(d *Device) {
		d.electric = items
	}
}

func WithOverloadHandler(h OverloadHandler) Option {
	return func(d *Device) {
		d.overload = h
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(d *Device) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Device is an electric furnace. It is not safe for concurrent use; the host
// serializes every call on a device.
type Device struct {
	cfg       Config
	inputSide Direction
	energy    *EnergyBuffer
	slots     *SlotInventory
	conv      *ConversionStateMachine
	gate      DisableGate
	recipes   RecipeLookup
	electric  ElectricItems
	overload  OverloadHandler
	removed   bool
	logger    *zap.Logger
}

func NewDevice(cfg Config, recipes RecipeLookup, opts ...Option) *Device {
	def := DefaultConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.Voltage <= 0 {
		cfg.Voltage = def.Voltage
	}
	if cfg.RequiredTicks <= 0 {
		cfg.RequiredTicks = def.RequiredTicks
	}
	if cfg.StackLimit <= 0 {
		cfg.StackLimit = def.StackLimit
	}
	if !cfg.Facing.Horizontal() {
		cfg.Facing = def.Facing
	}
	if cfg.DrainModel == "" {
		cfg.DrainModel = def.DrainModel
	}
	if cfg.PacketKind == 0 {
		cfg.PacketKind = def.PacketKind
	}
	d := &Device{
		cfg:       cfg,
		inputSide: cfg.Facing.Opposite(),
		energy:    NewEnergyBuffer(cfg.Capacity),
		slots:     NewSlotInventory(cfg.StackLimit),
		conv:      NewConversionStateMachine(cfg.RequiredTicks, cfg.DrainModel),
		gate:      NewDisableGate(),
		recipes:   recipes,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) Config() Config {
	return d.cfg
}

func (d *Device) Name() string {
	return InventoryName
}

// Identity is how hosts label the device. Neither field affects behavior.
type Identity struct {
	Name    string `json:"name"`
	Texture string `json:"texture,omitempty"`
}

func (d *Device) Identity() Identity {
	return Identity{Name: d.Name(), Texture: d.cfg.Texture}
}

// Energy

func (d *Device) Stored() float64 {
	return d.energy.Stored()
}

func (d *Device) Capacity() float64 {
	return d.energy.Capacity()
}

func (d *Device) Voltage() int {
	return d.cfg.Voltage
}

func (d *Device) InputSide() Direction {
	return d.inputSide
}

// AcceptsEnergy reports whether a neighbour on side may connect.
func (d *Device) AcceptsEnergy(side Direction) bool {
	return side == d.inputSide
}

// ReceiveEnergy offers amount at voltage from side and returns the rejected
// part. Any voltage above the rating signals an overload, whether or not the
// energy is accepted.
func (d *Device) ReceiveEnergy(amount float64, voltage int, side Direction) (rejected float64, overloaded bool) {
	if voltage > d.cfg.Voltage {
		overloaded = true
		d.logger.Warn("furnace overload", zap.Int("voltage", voltage), zap.Int("rating", d.cfg.Voltage))
		if d.overload != nil {
			d.overload.OnOverload(d, voltage)
		}
	}
	if d.removed || d.gate.Active() {
		return amount, overloaded
	}
	if side != d.inputSide && side != Internal {
		return amount, overloaded
	}
	_, rejected = d.energy.Deposit(amount)
	return rejected, overloaded
}

// Ticking

func (d *Device) Disable(ticks int) {
	d.gate.Disable(ticks)
}

func (d *Device) IsDisabled() bool {
	return d.gate.Active()
}

func (d *Device) DisableTicks() int {
	return d.gate.Remaining()
}

func (d *Device) State() ConversionState {
	return d.conv.State()
}

func (d *Device) Progress() int {
	return d.conv.Progress()
}

func (d *Device) RequiredTicks() int {
	return d.conv.Required()
}

// Advance runs one simulation step.
func (d *Device) Advance() TickReport {
	var report TickReport
	if d.removed {
		report.Skipped = true
		return report
	}
	if d.gate.Tick() {
		report.Skipped = true
		return report
	}

	report.Charged = d.chargeFromItem()
	if d.removed {
		return report
	}

	report.StepResult = d.conv.Step(d.energy, d.slots, d.recipes)
	return report
}

func (d *Device) chargeFromItem() float64 {
	if d.electric == nil || d.energy.Full() {
		return 0
	}
	stack := d.slots.Get(SlotEnergyItem)
	if stack.IsEmpty() {
		return 0
	}
	item, ok := d.electric.ElectricItem(stack.Kind)
	if !ok || !item.CanProduceElectricity() {
		return 0
	}
	drained := item.Discharge(&stack, item.TransferRate())
	if drained <= 0 {
		return 0
	}
	rejected, _ := d.ReceiveEnergy(drained, item.Volts(), Internal)
	if rejected > 0 {
		item.Recharge(&stack, rejected)
	}
	if !d.removed {
		d.slots.put(SlotEnergyItem, stack)
	}
	return drained - rejected
}

// Inventory

func (d *Device) Size() int {
	return d.slots.Size()
}

func (d *Device) StackLimit() int {
	return d.slots.StackLimit()
}

func (d *Device) Get(slot Slot) ItemStack {
	return d.slots.Get(slot)
}

func (d *Device) Set(slot Slot, stack ItemStack) {
	d.slots.Set(slot, stack)
}

func (d *Device) Take(slot Slot, max int) ItemStack {
	return d.slots.Take(slot, max)
}

func (d *Device) TakeAll(slot Slot) ItemStack {
	return d.slots.TakeAll(slot)
}

func (d *Device) StartSlot(side Direction) Slot {
	switch side {
	case Down:
		return SlotInput
	case Up:
		return SlotEnergyItem
	}
	return SlotOutput
}

func (d *Device) SlotsForSide(side Direction) int {
	return 1
}

// UsableBy reports whether an actor standing at pos can open the inventory.
func (d *Device) UsableBy(pos Vec3) bool {
	if d.removed {
		return false
	}
	dx := pos.X - (float64(d.cfg.Position.X) + 0.5)
	dy := pos.Y - (float64(d.cfg.Position.Y) + 0.5)
	dz := pos.Z - (float64(d.cfg.Position.Z) + 0.5)
	return dx*dx+dy*dy+dz*dz <= UsableDistanceSq
}

// Invalidate removes the device and returns everything it was holding. No
// further calls are valid afterwards.
func (d *Device) Invalidate() []ItemStack {
	var dropped []ItemStack
	for slot := Slot(0); slot < SlotCount; slot++ {
		if stack := d.slots.TakeAll(slot); !stack.IsEmpty() {
			dropped = append(dropped, stack)
		}
	}
	d.removed = true
	return dropped
}

func (d *Device) Removed() bool {
	return d.removed
}

type Snapshot struct {
	Stored        float64              `json:"stored"`
	Capacity      float64              `json:"capacity"`
	Voltage       int                  `json:"voltage"`
	State         string               `json:"state"`
	ProgressTicks int                  `json:"progress_ticks"`
	RequiredTicks int                  `json:"required_ticks"`
	DisableTicks  int                  `json:"disable_ticks"`
	Disabled      bool                 `json:"disabled"`
	InputSide     string               `json:"input_side"`
	DrainModel    string               `json:"drain_model"`
	Slots         [SlotCount]ItemStack `json:"slots"`
	Removed       bool                 `json:"removed"`
	Identity      Identity             `json:"identity"`
}

func (d *Device) Snapshot() Snapshot {
	s := Snapshot{
		Stored:        d.energy.Stored(),
		Capacity:      d.energy.Capacity(),
		Voltage:       d.cfg.Voltage,
		State:         d.conv.State().String(),
		ProgressTicks: d.conv.Progress(),
		RequiredTicks: d.conv.Required(),
		DisableTicks:  d.gate.Remaining(),
		Disabled:      d.gate.Active(),
		InputSide:     d.inputSide.String(),
		DrainModel:    string(d.conv.DrainModel()),
		Removed:       d.removed,
		Identity:      d.Identity(),
	}
	for slot := Slot(0); slot < SlotCount; slot++ {
		s.Slots[slot] = d.slots.Get(slot)
	}
	return s
}

func (s Snapshot) Converting() bool {
	return s.ProgressTicks > 0
}

func (s Snapshot) ProgressPercent() float64 {
	if s.ProgressTicks <= 0 || s.RequiredTicks <= 0 {
		return 0
	}
	return float64(s.RequiredTicks-s.ProgressTicks) / float64(s.RequiredTicks) * 100
}

// ensure interface compliance
var (
	_ ElectricityConsumer = (*Device)(nil)
	_ Inventory           = (*Device)(nil)
	_ SidedInventory      = (*Device)(nil)
	_ PacketReceiver      = (*Device)(nil)
	_ Ticker              = (*Device)(nil)
	_ Disableable         = (*Device)(nil)
)
