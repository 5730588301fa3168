package orchestrator

import (
	"sync"
	"time"
)

// telemetry holds the last HadoopMonitor push, opaque to the
// coordinator per spec.md §9 ("dynamic JSON blobs from snitches ...
// treat as a generic JSON value").
type telemetry struct {
	mu         sync.Mutex
	latestData interface{}
	lastUpdate time.Time
}

// ReportHadoopTelemetry records a HadoopMonitor push (the write side of
// /hadoop/status_update).
func (o *Orchestrator) ReportHadoopTelemetry(data interface{}) {
	o.telem.mu.Lock()
	o.telem.latestData = data
	o.telem.lastUpdate = time.Now()
	o.telem.mu.Unlock()
}

// HadoopTelemetry returns the latest pushed blob and how long ago it
// arrived, for /status/cluster's hadoop_data/hadoop_staleness fields.
func (o *Orchestrator) HadoopTelemetry() (data interface{}, staleness time.Duration) {
	o.telem.mu.Lock()
	defer o.telem.mu.Unlock()
	if o.telem.lastUpdate.IsZero() {
		return nil, -1
	}
	return o.telem.latestData, time.Since(o.telem.lastUpdate)
}
