package modbus

import (
	"sync"

	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

// DisableFunc is called on a coil write. disable false reopens the furnace.
type DisableFunc func(furnaceId string, disable bool) error

type unit struct {
	furnaceId string
	ready     bool
	regs      []uint16
	inputs    []bool
}

// Handler serves the cached state of every furnace, one modbus unit per furnace.
// Unit ids start at 1 and follow the configured furnace order.
type Handler struct {
	mu        sync.RWMutex
	units     map[uint8]*unit
	byId      map[string]*unit
	onDisable DisableFunc
	logger    *zap.Logger
}

func NewHandler(furnaceIds []string, onDisable DisableFunc, logger *zap.Logger) *Handler {
	h := &Handler{
		units:     map[uint8]*unit{},
		byId:      map[string]*unit{},
		onDisable: onDisable,
		logger:    logger,
	}
	for i, id := range furnaceIds {
		if i >= 247 {
			logger.Warn("modbus: too many furnaces, ignoring the rest", zap.Int("max", 247))
			break
		}
		u := &unit{furnaceId: id}
		h.units[uint8(i+1)] = u
		h.byId[id] = u
	}
	return h
}

// UnitId returns the modbus unit serving a furnace
func (h *Handler) UnitId(furnaceId string) (uint8, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, u := range h.units {
		if u.furnaceId == furnaceId {
			return id, true
		}
	}
	return 0, false
}

func (h *Handler) Update(furnaceId string, snapshot furnace.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	u, ok := h.byId[furnaceId]
	if !ok {
		return
	}
	u.regs = EncodeInputRegisters(snapshot)
	u.inputs = EncodeDiscreteInputs(snapshot)
	u.ready = true
}

func (h *Handler) lookup(unitId uint8) (*unit, error) {
	u, ok := h.units[unitId]
	if !ok {
		return nil, modbus.ErrIllegalDataAddress
	}
	if !u.ready {
		return nil, modbus.ErrServerDeviceBusy
	}
	return u, nil
}

func inRange(addr, quantity uint16, size int) bool {
	return quantity > 0 && int(addr)+int(quantity) <= size
}

func (h *Handler) HandleCoils(req *modbus.CoilsRequest) ([]bool, error) {
	h.mu.RLock()
	u, err := h.lookup(req.UnitId)
	if err != nil {
		h.mu.RUnlock()
		return nil, err
	}
	if !inRange(req.Addr, req.Quantity, COILS) {
		h.mu.RUnlock()
		return nil, modbus.ErrIllegalDataAddress
	}
	disabled := u.inputs[DI_DISABLED]
	furnaceId := u.furnaceId
	h.mu.RUnlock()

	if !req.IsWrite {
		return []bool{disabled}, nil
	}
	value := req.Args[0]
	h.logger.Debug("modbus: coil write", zap.String("furnace", furnaceId), zap.Bool("disable", value))
	if h.onDisable == nil {
		return nil, modbus.ErrIllegalFunction
	}
	if err := h.onDisable(furnaceId, value); err != nil {
		h.logger.Error("modbus: disable failed", zap.String("furnace", furnaceId), zap.Error(err))
		return nil, modbus.ErrServerDeviceFailure
	}
	return nil, nil
}

func (h *Handler) HandleDiscreteInputs(req *modbus.DiscreteInputsRequest) ([]bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	u, err := h.lookup(req.UnitId)
	if err != nil {
		return nil, err
	}
	if !inRange(req.Addr, req.Quantity, DISCRETE_INPUTS) {
		return nil, modbus.ErrIllegalDataAddress
	}
	res := make([]bool, req.Quantity)
	copy(res, u.inputs[req.Addr:])
	return res, nil
}

func (h *Handler) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	return nil, modbus.ErrIllegalFunction
}

func (h *Handler) HandleInputRegisters(req *modbus.InputRegistersRequest) ([]uint16, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	u, err := h.lookup(req.UnitId)
	if err != nil {
		return nil, err
	}
	if !inRange(req.Addr, req.Quantity, INPUT_REGISTERS) {
		return nil, modbus.ErrIllegalDataAddress
	}
	res := make([]uint16, req.Quantity)
	copy(res, u.regs[req.Addr:])
	return res, nil
}
