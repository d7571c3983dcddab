package observer

import (
	"fmt"
	"sync"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"go.uber.org/zap"
)

// Observer mirrors remote furnaces from their sync packets
type Observer struct {
	mu       sync.Mutex
	channel  *furnace.Channel
	replicas map[string]*furnace.Device
	logger   *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) (*Observer, error) {
	o := &Observer{
		channel:  furnace.NewChannel(logger),
		replicas: map[string]*furnace.Device{},
		logger:   logger,
	}
	for _, f := range cfg.Furnaces {
		deviceCfg, err := f.DeviceConfig()
		if err != nil {
			return nil, fmt.Errorf("furnace %s: %w", f.Id, err)
		}
		replica := furnace.NewDevice(deviceCfg, nil, furnace.WithLogger(logger.With(zap.String("replica", f.Id))))
		o.replicas[f.Id] = replica
		o.channel.Register(f.Id, replica)
	}
	return o, nil
}

// Apply decodes a sync packet into the replica of furnaceId and returns its new state
func (o *Observer) Apply(furnaceId string, payload []byte) (furnace.Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.channel.Dispatch(furnaceId, payload); err != nil {
		return furnace.Snapshot{}, err
	}
	snap := o.replicas[furnaceId].Snapshot()
	o.logger.Info("observer: furnace mirrored",
		zap.String("furnace", furnaceId),
		zap.Float64("stored", snap.Stored),
		zap.Int("progress_ticks", snap.ProgressTicks),
		zap.Int("disable_ticks", snap.DisableTicks))
	return snap, nil
}

func (o *Observer) Snapshot(furnaceId string) (furnace.Snapshot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	replica, ok := o.replicas[furnaceId]
	if !ok {
		return furnace.Snapshot{}, false
	}
	return replica.Snapshot(), true
}
