package orchestrator

import (
	"context"

	"github.com/gce-tools/hadoop-coordinator/cluster"
	"github.com/gce-tools/hadoop-coordinator/iaas"
)

// getStatus is the composite probe from spec.md §4.6.4: IaaS state plus,
// once RUNNING, a live /status poke to the instance's own agent.
func (o *Orchestrator) getStatus(ctx context.Context, name string) cluster.InstanceState {
	inst, err := o.api.Get(ctx, o.cfg.Zone, name)
	if err != nil {
		if err == iaas.ErrNotFound {
			return cluster.NonExistent
		}
		return cluster.Broken
	}

	switch inst.Status {
	case "PROVISIONING":
		return cluster.Provisioning
	case "STAGING":
		return cluster.Staging
	case "RUNNING":
		return o.probeAgent(ctx, name)
	default:
		return cluster.Broken
	}
}

// probeAgent is only reached once the IaaS reports RUNNING; it asks the
// instance's own snitch whether Hadoop-level setup has finished.
func (o *Orchestrator) probeAgent(ctx context.Context, name string) cluster.InstanceState {
	reply := o.agents.GetByName(ctx, name, "/status")
	if reply == nil {
		// Agent not answering yet: still booting, retry next tick.
		return cluster.Running
	}
	state, _ := reply["state"].(string)
	switch state {
	case "READY":
		return cluster.SnitchReady
	case "STARTING":
		return cluster.Running
	default:
		o.reg.RecordFailure(name, "agent reported "+state)
		return cluster.Broken
	}
}
