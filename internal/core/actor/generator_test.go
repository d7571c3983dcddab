package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/internal/core/service"
	"github.com/berfenger/furnace2mqtt/internal/metrics"
	"github.com/berfenger/furnace2mqtt/internal/util"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// energySink answers every delivery rejecting half of it
type energySink struct {
	mu       sync.Mutex
	received []domain.ReceiveEnergyRequest
}

func (s *energySink) Receive(ctx actor.Context) {
	if msg, ok := ctx.Message().(domain.ReceiveEnergyRequest); ok {
		s.mu.Lock()
		s.received = append(s.received, msg)
		s.mu.Unlock()
		ctx.Respond(domain.ReceiveEnergyResponse{Rejected: msg.Amount / 2})
	}
}

func (s *energySink) deliveries() []domain.ReceiveEnergyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ReceiveEnergyRequest(nil), s.received...)
}

func TestGeneratorActor(t *testing.T) {

	require := require.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	as := actor.NewActorSystem()
	defer as.Shutdown()

	sink := &energySink{}
	sinkPID := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor { return sink }))

	source, err := service.NewDefaultGenerator(config.GeneratorConfig{
		Watts:          10,
		MaxWatts:       50,
		Voltage:        120,
		Side:           "south",
		BufferCapacity: 0,
	}, logger)
	require.NoError(err)

	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewGeneratorActor(&cfg, "furnace_1", source, sinkPID, nil, metrics.New(), logger)
	}))

	require.Eventually(func() bool {
		return len(sink.deliveries()) >= 3
	}, 2*time.Second, 10*time.Millisecond)

	first := sink.deliveries()[0]
	require.Equal("furnace_1", first.FurnaceId())
	require.Equal(10.0, first.Amount)
	require.Equal(120, first.Voltage)
	require.Equal(furnace.South, first.Side)

	res, err := as.Root.RequestFuture(pid, domain.SetGeneratorPowerRequest{FurnaceRequestMixIn: domain.ForFurnace("furnace_1"), Watts: 500}, time.Second).Result()
	require.NoError(err)
	power := res.(domain.SetGeneratorPowerResponse)
	require.Error(power.ResponseError)
	require.Equal(10.0, power.Watts)

	res, err = as.Root.RequestFuture(pid, domain.SetGeneratorPowerRequest{FurnaceRequestMixIn: domain.ForFurnace("furnace_1"), Watts: 40}, time.Second).Result()
	require.NoError(err)
	require.NoError(res.(domain.SetGeneratorPowerResponse).ResponseError)

	require.Eventually(func() bool {
		d := sink.deliveries()
		return d[len(d)-1].Amount == 40
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(as.Root.StopFuture(pid).Wait())
	stats := source.Stats()
	require.Greater(stats.Delivered, 0.0)
	require.Greater(stats.Wasted, 0.0, "half of every delivery is rejected and there is no buffer")
}
