// Package observability exports expansion statistics as Prometheus metrics.
//
// A Collector implements expand.Hooks, so it is installed with
// expand.WithHooks and fed by the traversal itself. Each Collector owns its
// registry; callers that serve metrics over HTTP register Registry() with
// their handler.
package observability

import (
	"time"

	"github.com/chazu/ramify/pkg/expand"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metric names.
const (
	producersTotal   = "ramify_producers_expanded_total"
	invocationsTotal = "ramify_invocations_total"
	meshesTotal      = "ramify_meshes_emitted_total"
	verticesTotal    = "ramify_vertices_emitted_total"
	worklistSize     = "ramify_worklist_size"
	worklistPeak     = "ramify_worklist_peak"
	bakeDuration     = "ramify_bake_duration_seconds"
)

// Collector records expansion events. Like the traversal that drives it,
// it must only be fed from one goroutine.
type Collector struct {
	reg *prometheus.Registry

	producers   prometheus.Counter
	invocations prometheus.Counter
	meshes      *prometheus.CounterVec
	vertices    prometheus.Counter
	size        prometheus.Gauge
	peak        prometheus.Gauge
	bake        prometheus.Histogram

	peakValue int
}

var _ expand.Hooks = (*Collector)(nil)

// NewCollector creates a Collector with a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		reg: reg,
		producers: f.NewCounter(prometheus.CounterOpts{
			Name: producersTotal,
			Help: "Number of producer expansions",
		}),
		invocations: f.NewCounter(prometheus.CounterOpts{
			Name: invocationsTotal,
			Help: "Number of rule entries scheduled by producer expansions",
		}),
		meshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: meshesTotal,
			Help: "Number of emitted mesh instances",
		}, []string{"mesh"}),
		vertices: f.NewCounter(prometheus.CounterOpts{
			Name: verticesTotal,
			Help: "Number of vertices across emitted mesh instances",
		}),
		size: f.NewGauge(prometheus.GaugeOpts{
			Name: worklistSize,
			Help: "Worklist size after the latest producer expansion",
		}),
		peak: f.NewGauge(prometheus.GaugeOpts{
			Name: worklistPeak,
			Help: "Largest worklist size observed",
		}),
		bake: f.NewHistogram(prometheus.HistogramOpts{
			Name:    bakeDuration,
			Help:    "Duration of parallel vertex baking",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

func (c *Collector) OnExpand(entries int) {
	c.producers.Inc()
	c.invocations.Add(float64(entries))
}

func (c *Collector) OnEmit(m expand.OutputMesh) {
	name := m.Name()
	if name == "" {
		name = "custom"
	}
	c.meshes.WithLabelValues(name).Inc()
	c.vertices.Add(float64(m.VertexCount()))
}

func (c *Collector) OnWorklist(size int) {
	c.size.Set(float64(size))
	if size > c.peakValue {
		c.peakValue = size
		c.peak.Set(float64(size))
	}
}

// ObserveBake records how long a bake took.
func (c *Collector) ObserveBake(d time.Duration) {
	c.bake.Observe(d.Seconds())
}

// Summary is a snapshot of the collector's counters.
type Summary struct {
	Producers    int
	Invocations  int
	Meshes       int
	Vertices     int
	PeakWorklist int
	ByMesh       map[string]int
}

// Summary gathers the registry into a Summary.
func (c *Collector) Summary() (Summary, error) {
	families, err := c.reg.Gather()
	if err != nil {
		return Summary{}, err
	}
	s := Summary{ByMesh: make(map[string]int)}
	for _, mf := range families {
		switch mf.GetName() {
		case producersTotal:
			s.Producers = int(sumCounters(mf))
		case invocationsTotal:
			s.Invocations = int(sumCounters(mf))
		case verticesTotal:
			s.Vertices = int(sumCounters(mf))
		case worklistPeak:
			for _, m := range mf.GetMetric() {
				s.PeakWorklist = int(m.GetGauge().GetValue())
			}
		case meshesTotal:
			for _, m := range mf.GetMetric() {
				n := int(m.GetCounter().GetValue())
				s.Meshes += n
				s.ByMesh[labelValue(m, "mesh")] += n
			}
		}
	}
	return s, nil
}

func sumCounters(mf *dto.MetricFamily) float64 {
	var total float64
	for _, m := range mf.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	return total
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
