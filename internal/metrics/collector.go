package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickgao/amqppool/pool"
)

// StatSource is anything that reports pool statistics.
type StatSource interface {
	Stat() pool.Stat
}

// Collector exports a pool's statistics on every scrape.
type Collector struct {
	src StatSource

	total        *prometheus.Desc
	idle         *prometheus.Desc
	acquired     *prometheus.Desc
	constructing *prometheus.Desc
	max          *prometheus.Desc

	acquires         *prometheus.Desc
	emptyAcquires    *prometheus.Desc
	canceledAcquires *prometheus.Desc
	evicted          *prometheus.Desc
}

// NewCollector creates a collector for src. Every metric carries a "pool"
// label set to name.
func NewCollector(namespace, name string, src StatSource) *Collector {
	labels := prometheus.Labels{"pool": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pool", metric), help, nil, labels)
	}

	return &Collector{
		src:              src,
		total:            desc("connections", "Open connections, idle or checked out."),
		idle:             desc("idle_connections", "Connections waiting in the pool."),
		acquired:         desc("acquired_connections", "Connections currently checked out."),
		constructing:     desc("constructing_connections", "Connections being established."),
		max:              desc("max_connections", "Configured maximum pool size."),
		acquires:         desc("acquires_total", "Successful checkouts."),
		emptyAcquires:    desc("empty_acquires_total", "Checkouts that had to wait for or create a connection."),
		canceledAcquires: desc("canceled_acquires_total", "Checkouts abandoned because their context ended."),
		evicted:          desc("evicted_total", "Connections destroyed as broken or invalid."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.idle
	ch <- c.acquired
	ch <- c.constructing
	ch <- c.max
	ch <- c.acquires
	ch <- c.emptyAcquires
	ch <- c.canceledAcquires
	ch <- c.evicted
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stat()

	gauge := func(d *prometheus.Desc, v int32) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v))
	}
	counter := func(d *prometheus.Desc, v int64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}

	gauge(c.total, s.Total)
	gauge(c.idle, s.Idle)
	gauge(c.acquired, s.Acquired)
	gauge(c.constructing, s.Constructing)
	gauge(c.max, s.Max)
	counter(c.acquires, s.AcquireCount)
	counter(c.emptyAcquires, s.EmptyAcquireCount)
	counter(c.canceledAcquires, s.CanceledAcquireCount)
	counter(c.evicted, s.Evicted)
}

// NewRegistry returns a registry holding the given collectors plus the
// standard Go and process collectors.
func NewRegistry(cs ...prometheus.Collector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	cs = append(cs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
