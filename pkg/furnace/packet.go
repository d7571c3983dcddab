package furnace

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
)

// SyncPacketSize is the length of a sync packet:
// [int32 kind][float64 stored][float64 smeltingTicks][float64 disableTicks], big endian.
const SyncPacketSize = 4 + 3*8

var (
	ErrMalformedPacket = errors.New("malformed sync packet")
	ErrPacketKind      = errors.New("unexpected packet kind")
	ErrUnknownReceiver = errors.New("no receiver registered")
)

type SyncPacket struct {
	Kind          int32
	Stored        float64
	SmeltingTicks float64
	DisableTicks  float64
}

func (p SyncPacket) Encode() []byte {
	buf := make([]byte, SyncPacketSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(p.Kind))
	binary.BigEndian.PutUint64(buf[4:12], math.Float64bits(p.Stored))
	binary.BigEndian.PutUint64(buf[12:20], math.Float64bits(p.SmeltingTicks))
	binary.BigEndian.PutUint64(buf[20:28], math.Float64bits(p.DisableTicks))
	return buf
}

func PeekPacketKind(data []byte) (int32, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("%w: %d bytes, header needs 4", ErrMalformedPacket, len(data))
	}
	return int32(binary.BigEndian.Uint32(data[0:4])), nil
}

// ParseSyncPacket reads every field before returning, so a short buffer never
// yields a partial packet. Trailing bytes are ignored.
func ParseSyncPacket(data []byte) (SyncPacket, error) {
	if len(data) < SyncPacketSize {
		return SyncPacket{}, fmt.Errorf("%w: %d bytes, want %d", ErrMalformedPacket, len(data), SyncPacketSize)
	}
	p := SyncPacket{
		Kind:          int32(binary.BigEndian.Uint32(data[0:4])),
		Stored:        math.Float64frombits(binary.BigEndian.Uint64(data[4:12])),
		SmeltingTicks: math.Float64frombits(binary.BigEndian.Uint64(data[12:20])),
		DisableTicks:  math.Float64frombits(binary.BigEndian.Uint64(data[20:28])),
	}
	if math.IsNaN(p.Stored) || math.IsInf(p.Stored, 0) {
		return SyncPacket{}, fmt.Errorf("%w: stored energy is not finite", ErrMalformedPacket)
	}
	return p, nil
}

func (d *Device) PacketKind() int32 {
	return d.cfg.PacketKind
}

func (d *Device) SyncPacket() SyncPacket {
	return SyncPacket{
		Kind:          d.cfg.PacketKind,
		Stored:        d.energy.Stored(),
		SmeltingTicks: float64(d.conv.Progress()),
		DisableTicks:  float64(d.gate.Remaining()),
	}
}

func (d *Device) EncodeSyncPacket() []byte {
	return d.SyncPacket().Encode()
}

// DecodeSyncPacket overwrites stored energy, progress and the disable counter
// from a packet. On error the device is left untouched.
func (d *Device) DecodeSyncPacket(data []byte) error {
	err := d.applySyncPacket(data)
	if err != nil {
		d.logger.Warn("furnace: discarding sync packet", zap.Int("length", len(data)), zap.Error(err))
	}
	return err
}

func (d *Device) applySyncPacket(data []byte) error {
	p, err := ParseSyncPacket(data)
	if err != nil {
		return err
	}
	if p.Kind != d.cfg.PacketKind {
		return fmt.Errorf("%w: got %d, want %d", ErrPacketKind, p.Kind, d.cfg.PacketKind)
	}
	progress, err := truncateTicks(p.SmeltingTicks)
	if err != nil {
		return fmt.Errorf("smelting ticks: %w", err)
	}
	disable, err := truncateTicks(p.DisableTicks)
	if err != nil {
		return fmt.Errorf("disable ticks: %w", err)
	}
	d.energy.restore(p.Stored)
	d.conv.restore(progress)
	d.gate.restore(disable)
	return nil
}

func truncateTicks(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrMalformedPacket
	}
	t := math.Trunc(v)
	if t < math.MinInt32 || t > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %v out of range", ErrMalformedPacket, v)
	}
	return int(t), nil
}

// Channel routes sync packets to the device registered under an id.
type Channel struct {
	mu        sync.Mutex
	receivers map[string]PacketReceiver
	logger    *zap.Logger
}

func NewChannel(logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		receivers: make(map[string]PacketReceiver),
		logger:    logger,
	}
}

func (c *Channel) Register(id string, r PacketReceiver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receivers[id] = r
}

func (c *Channel) Unregister(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.receivers, id)
}

func (c *Channel) Receiver(id string) (PacketReceiver, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.receivers[id]
	return r, ok
}

// Dispatch decodes data into the receiver registered under id. Receivers are
// called one at a time.
func (c *Channel) Dispatch(id string, data []byte) error {
	kind, err := PeekPacketKind(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.receivers[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReceiver, id)
	}
	if kind != r.PacketKind() {
		return fmt.Errorf("%w: got %d, want %d", ErrPacketKind, kind, r.PacketKind())
	}
	c.logger.Debug("channel: dispatch", zap.String("receiver", id), zap.Int32("kind", kind))
	return r.DecodeSyncPacket(data)
}
