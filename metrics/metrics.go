// Package metrics exposes coordinator internals to Prometheus: pool
// queue depth, instance population by state, and operation counts.
// Grounded on the teacher's stats package idiom of a small process-wide
// registry of gauges updated by a periodic collector, adapted here to
// github.com/prometheus/client_golang instead of a hand-rolled exporter.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gce-tools/hadoop-coordinator/cluster"
)

// Metrics owns the process's Prometheus collectors.
type Metrics struct {
	instancesByState *prometheus.GaugeVec
	liveSlaves       prometheus.Gauge
	clusterState     *prometheus.GaugeVec
	poolDepth        *prometheus.GaugeVec
	operationsTotal  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		instancesByState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hadoop_coordinator",
			Name:      "instances",
			Help:      "Number of instances currently in each InstanceState.",
		}, []string{"state"}),
		liveSlaves: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "hadoop_coordinator",
			Name:      "live_slaves",
			Help:      "Slaves currently HADOOP_READY.",
		}),
		clusterState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hadoop_coordinator",
			Name:      "cluster_state",
			Help:      "1 for the cluster's current ClusterState, 0 otherwise.",
		}, []string{"state"}),
		poolDepth: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hadoop_coordinator",
			Name:      "pool_queue_depth",
			Help:      "Tasks currently queued in a worker pool.",
		}, []string{"pool"}),
		operationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "hadoop_coordinator",
			Name:      "operations_total",
			Help:      "Total operations ever allocated (xfer_N).",
		}),
	}
}

// ObserveSnapshot refreshes the gauge-valued metrics from a registry
// snapshot; called on a timer from cmd/coordinator.
func (m *Metrics) ObserveSnapshot(snap cluster.Snapshot) {
	for _, st := range cluster.DescOrder {
		m.instancesByState.WithLabelValues(st.String()).Set(float64(len(snap.ByState[st])))
	}
	m.liveSlaves.Set(float64(snap.LiveSlaves))
	for s := cluster.Down; s <= cluster.Ready; s++ {
		v := 0.0
		if s == snap.ClusterState {
			v = 1.0
		}
		m.clusterState.WithLabelValues(s.String()).Set(v)
	}
}

// ObservePoolDepth records one pool's current queue depth.
func (m *Metrics) ObservePoolDepth(pool string, depth int) {
	m.poolDepth.WithLabelValues(pool).Set(float64(depth))
}

// IncOperations counts a newly allocated operation.
func (m *Metrics) IncOperations() { m.operationsTotal.Inc() }

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler { return promhttp.Handler() }
