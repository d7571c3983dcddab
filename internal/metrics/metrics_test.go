package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTick(t *testing.T) {

	assert := assert.New(t)

	m := New()
	m.Tick("furnace_1", 100, 3, false)
	m.Tick("furnace_1", 80, 4, true)
	m.Tick("furnace_2", 10, 0, false)

	assert.Equal(2.0, testutil.ToFloat64(m.ticks.WithLabelValues("furnace_1")))
	assert.Equal(80.0, testutil.ToFloat64(m.energyStored.WithLabelValues("furnace_1")))
	assert.Equal(4.0, testutil.ToFloat64(m.smeltingTicks.WithLabelValues("furnace_1")))
	assert.Equal(1.0, testutil.ToFloat64(m.itemsSmelted.WithLabelValues("furnace_1")))
	assert.Equal(1.0, testutil.ToFloat64(m.ticks.WithLabelValues("furnace_2")))
}

func TestEnergyAndGenerator(t *testing.T) {

	assert := assert.New(t)

	m := New()
	m.EnergyReceived("furnace_1", 12, 0)
	m.EnergyReceived("furnace_1", 5, 7)
	m.Overload("furnace_1")
	m.Generator("furnace_1", 17, 3)

	assert.Equal(17.0, testutil.ToFloat64(m.energyReceived.WithLabelValues("furnace_1")))
	assert.Equal(7.0, testutil.ToFloat64(m.energyRejected.WithLabelValues("furnace_1")))
	assert.Equal(1.0, testutil.ToFloat64(m.overloads.WithLabelValues("furnace_1")))
	assert.Equal(17.0, testutil.ToFloat64(m.generatorDelivery.WithLabelValues("furnace_1")))
	assert.Equal(3.0, testutil.ToFloat64(m.generatorWasted.WithLabelValues("furnace_1")))
}

func TestNilMetrics(t *testing.T) {

	assert := assert.New(t)

	var m *Metrics
	assert.NotPanics(func() {
		m.Tick("furnace_1", 1, 1, true)
		m.EnergyReceived("furnace_1", 1, 1)
		m.Overload("furnace_1")
		m.Generator("furnace_1", 1, 1)
	})
	assert.Nil(m.Registry())
}

func TestHandler(t *testing.T) {

	assert := assert.New(t)

	m := New()
	m.Overload("furnace_1")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(http.StatusOK, rec.Code)
	assert.True(strings.Contains(rec.Body.String(), `furnace_overloads_total{furnace="furnace_1"} 1`))
}
