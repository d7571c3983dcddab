package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "furnace"

// Metrics holds the collectors of the furnace host. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	ticks             *prometheus.CounterVec
	energyStored      *prometheus.GaugeVec
	smeltingTicks     *prometheus.GaugeVec
	itemsSmelted      *prometheus.CounterVec
	energyReceived    *prometheus.CounterVec
	energyRejected    *prometheus.CounterVec
	overloads         *prometheus.CounterVec
	generatorDelivery *prometheus.CounterVec
	generatorWasted   *prometheus.CounterVec
}

func New() *Metrics {
	label := []string{"furnace"}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ticks_total", Help: "Simulation ticks advanced.",
		}, label),
		energyStored: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "energy_stored", Help: "Energy held in the furnace buffer.",
		}, label),
		smeltingTicks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "smelting_ticks", Help: "Progress of the current conversion.",
		}, label),
		itemsSmelted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "items_smelted_total", Help: "Completed conversions.",
		}, label),
		energyReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "energy_received_total", Help: "Energy accepted into the buffer.",
		}, label),
		energyRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "energy_rejected_total", Help: "Energy handed back to the source.",
		}, label),
		overloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "overloads_total", Help: "Deliveries above the rated voltage.",
		}, label),
		generatorDelivery: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "generator_delivered_total", Help: "Energy delivered by the generator.",
		}, label),
		generatorWasted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "generator_wasted_total", Help: "Generator energy lost to a full buffer.",
		}, label),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ticks,
		m.energyStored,
		m.smeltingTicks,
		m.itemsSmelted,
		m.energyReceived,
		m.energyRejected,
		m.overloads,
		m.generatorDelivery,
		m.generatorWasted,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Tick(furnaceId string, stored float64, progress int, completed bool) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(furnaceId).Inc()
	m.energyStored.WithLabelValues(furnaceId).Set(stored)
	m.smeltingTicks.WithLabelValues(furnaceId).Set(float64(progress))
	if completed {
		m.itemsSmelted.WithLabelValues(furnaceId).Inc()
	}
}

func (m *Metrics) EnergyReceived(furnaceId string, accepted, rejected float64) {
	if m == nil {
		return
	}
	if accepted > 0 {
		m.energyReceived.WithLabelValues(furnaceId).Add(accepted)
	}
	if rejected > 0 {
		m.energyRejected.WithLabelValues(furnaceId).Add(rejected)
	}
}

func (m *Metrics) Overload(furnaceId string) {
	if m == nil {
		return
	}
	m.overloads.WithLabelValues(furnaceId).Inc()
}

func (m *Metrics) Generator(furnaceId string, delivered, wasted float64) {
	if m == nil {
		return
	}
	if delivered > 0 {
		m.generatorDelivery.WithLabelValues(furnaceId).Add(delivered)
	}
	if wasted > 0 {
		m.generatorWasted.WithLabelValues(furnaceId).Add(wasted)
	}
}
