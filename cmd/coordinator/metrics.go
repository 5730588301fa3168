package main

import (
	"context"
	"time"

	"github.com/gce-tools/hadoop-coordinator/metrics"
	"github.com/gce-tools/hadoop-coordinator/orchestrator"
)

// reportPoolDepths refreshes the /metrics gauges every 10s until ctx is
// cancelled.
func reportPoolDepths(ctx context.Context, orch *orchestrator.Orchestrator, m *metrics.Metrics) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			spawn, ops := orch.PoolDepths()
			m.ObservePoolDepth("spawn", spawn)
			m.ObservePoolDepth("ops", ops)
			m.ObserveSnapshot(orch.Registry().Snapshot())
		}
	}
}
