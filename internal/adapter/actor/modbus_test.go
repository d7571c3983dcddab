package actor

import (
	"testing"
	"time"

	"github.com/berfenger/furnace2mqtt/internal/config"
	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/internal/modbus"
	"github.com/berfenger/furnace2mqtt/internal/util"
	"github.com/berfenger/furnace2mqtt/internal/util/actorutil"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	simmodbus "github.com/simonvetter/modbus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// disableRecorder stands in for the master and records disable requests
type disableRecorder struct {
	config  *config.Config
	es      *eventstream.EventStream
	modbus  *actor.PID
	act     *ModbusActor
	disable chan domain.DisableFurnaceRequest
}

func (r *disableRecorder) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		r.act = NewTestModbusActor(r.config, r.es, zap.NewNop())
		r.modbus = ctx.Spawn(actor.PropsFromProducer(func() actor.Actor {
			return r.act
		}))
	case domain.DisableFurnaceRequest:
		r.disable <- msg
		ctx.Respond(domain.DisableFurnaceResponse{Ticks: msg.Ticks})
	case GetModbusRegistersRequest:
		ctx.Forward(r.modbus)
	}
}

func TestModbusActor(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	es := &eventstream.EventStream{}

	rec := &disableRecorder{config: &cfg, es: es, disable: make(chan domain.DisableFurnaceRequest, 1)}
	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor { return rec }))

	time.Sleep(200 * time.Millisecond)

	// no state published yet
	result, err := as.Root.RequestFuture(pid, GetModbusRegistersRequest{UnitId: 1}, time.Second).Result()
	assert.NoError(err)
	assert.ErrorIs(result.(GetModbusRegistersResponse).ResponseError, simmodbus.ErrServerDeviceBusy)

	snapshot := furnace.Snapshot{Stored: 900, Capacity: 1800, Voltage: 120, RequiredTicks: 160, DisableTicks: -1}
	es.Publish(domain.FurnaceStateEvent{FurnaceId: "furnace_1", Snapshot: snapshot})
	time.Sleep(100 * time.Millisecond)

	result, err = as.Root.RequestFuture(pid, GetModbusRegistersRequest{UnitId: 1}, time.Second).Result()
	assert.NoError(err)
	resp := result.(GetModbusRegistersResponse)
	assert.NoError(resp.ResponseError)
	assert.Equal(900.0, modbus.DecodeFloat64(resp.Registers[modbus.REG_STORED:]))
	assert.Equal(uint16(120), resp.Registers[modbus.REG_VOLTAGE])

	// coil writes reach the parent as disable requests
	_, err = rec.act.handler.HandleCoils(&simmodbus.CoilsRequest{UnitId: 1, Addr: 0, Quantity: 1, IsWrite: true, Args: []bool{true}})
	assert.NoError(err)
	select {
	case req := <-rec.disable:
		assert.Equal("furnace_1", req.FurnaceId())
		assert.True(req.Disable)
	case <-time.After(time.Second):
		t.Error("disable request not received")
	}

	as.Shutdown()
}
