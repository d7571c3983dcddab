package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	adactor "github.com/berfenger/furnace2mqtt/internal/adapter/actor"
	coreactor "github.com/berfenger/furnace2mqtt/internal/core/actor"
	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/internal/metrics"
	"github.com/berfenger/furnace2mqtt/internal/storage"
	"github.com/berfenger/furnace2mqtt/internal/util"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) http.Handler {
	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	m := metrics.New()

	as := actor.NewActorSystem()
	t.Cleanup(as.Shutdown)
	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return coreactor.NewMasterOfPuppetsActor(cfg, func() *adactor.StorageActor {
			return adactor.NewStorageActor(storage.NewMemoryStore(), time.Second, logger)
		}, nil, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, m, logger)
	}))

	return newServer(cfg, as.Root, pid, m, logger).RegisterRoutes()
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestFurnaceRoutes(t *testing.T) {

	require := require.New(t)

	h := newTestHandler(t)

	rec := do(h, http.MethodGet, "/api/furnaces", "")
	require.Equal(http.StatusOK, rec.Code)
	require.JSONEq(`["furnace_1"]`, rec.Body.String())

	rec = do(h, http.MethodPut, "/api/furnaces/furnace_1/slots/input", `{"kind":"iron_ore","count":3}`)
	require.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = do(h, http.MethodPost, "/api/furnaces/furnace_1/energy", `{"amount":10,"voltage":120,"side":"south"}`)
	require.Equal(http.StatusOK, rec.Code, rec.Body.String())
	var energy energyResponse
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &energy))
	require.False(energy.Overloaded)

	rec = do(h, http.MethodGet, "/api/furnaces/furnace_1", "")
	require.Equal(http.StatusOK, rec.Code)
	var state furnaceStateResponse
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &state))
	require.Equal("furnace_1", state.Id)
	require.Equal(furnace.NewStack("iron_ore", 3), state.Slots[furnace.SlotInput])

	rec = do(h, http.MethodDelete, "/api/furnaces/furnace_1/slots/1?count=2", "")
	require.Equal(http.StatusOK, rec.Code)
	var taken furnace.ItemStack
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &taken))
	require.Equal(furnace.NewStack("iron_ore", 2), taken)

	rec = do(h, http.MethodPost, "/api/furnaces/furnace_1/disable", `{"disable":true,"ticks":500}`)
	require.Equal(http.StatusOK, rec.Code)
	require.JSONEq(`{"ticks":500}`, rec.Body.String())

	rec = do(h, http.MethodPost, "/api/furnaces/furnace_1/generator", `{"watts":20}`)
	require.Equal(http.StatusOK, rec.Code)
	require.JSONEq(`{"watts":20}`, rec.Body.String())

	rec = do(h, http.MethodPost, "/api/furnaces/furnace_1/save", "")
	require.Equal(http.StatusNoContent, rec.Code)

	rec = do(h, http.MethodPost, "/api/furnaces/save", "")
	require.Equal(http.StatusOK, rec.Code)
	require.JSONEq(`{"saved":1}`, rec.Body.String())
}

func TestFurnaceRoutesErrors(t *testing.T) {

	assert := assert.New(t)

	h := newTestHandler(t)

	rec := do(h, http.MethodGet, "/api/furnaces/unknown", "")
	assert.Equal(http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPut, "/api/furnaces/furnace_1/slots/chimney", `{"kind":"sand","count":1}`)
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodDelete, "/api/furnaces/furnace_1/slots/9", "")
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/furnaces/furnace_1/energy", `{"amount":10,"voltage":120,"side":"up-ish"}`)
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/furnaces/furnace_1/generator", `{"watts":100000}`)
	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {

	assert := assert.New(t)

	h := newTestHandler(t)

	assert.Eventually(func() bool {
		return do(h, http.MethodGet, "/healthcheck", "").Code == http.StatusOK
	}, 5*time.Second, 100*time.Millisecond)

	rec := do(h, http.MethodGet, "/metrics", "")
	assert.Equal(http.StatusOK, rec.Code)
	assert.Contains(rec.Body.String(), "furnace_ticks_total")
}

func TestParseSlot(t *testing.T) {

	assert := assert.New(t)

	slot, err := parseSlot("output")
	assert.NoError(err)
	assert.Equal(furnace.SlotOutput, slot)

	slot, err = parseSlot("0")
	assert.NoError(err)
	assert.Equal(furnace.SlotEnergyItem, slot)

	_, err = parseSlot("3")
	assert.ErrorIs(err, domain.ErrInvalidSlot)
}
