package orchestrator

import (
	"context"

	"github.com/gce-tools/hadoop-coordinator/cluster"
)

// AddSlaves implements add_slaves: requires ClusterState >= LAUNCHING,
// allocates k names, marks them NON_EXISTENT, and fans launch_slave1 out
// across the spawn pool (spec.md §4.6.3).
func (o *Orchestrator) AddSlaves(ctx context.Context, k int) bool {
	if o.reg.ClusterState() < cluster.Launching {
		return false
	}
	names := o.reg.AllocateSlaveNames(k)
	for _, name := range names {
		o.reg.EnsureInstance(name, cluster.RoleSlave)
		o.reg.SetInstanceState(name, cluster.NonExistent)
		n := name
		o.spawn.Submit(func() { o.launchSlave1(ctx, n) })
	}
	return true
}

// launchSlave1 is phase 1: Insert the VM, then immediately mark it
// PROVISIONING regardless of the IaaS's own reported status, so it never
// appears unstarted while queued for slower polling on the ops pool
// (spec.md §4.6.3 deliberate note). On Insert failure the slave is
// silently dropped — no cluster-level BROKEN propagation for slaves.
func (o *Orchestrator) launchSlave1(ctx context.Context, name string) {
	if !o.vmf.Spawn(ctx, name, cluster.RoleSlave, o.snitch(cluster.RoleSlave)) {
		return
	}
	o.reg.SetInstanceState(name, cluster.Provisioning)
	o.opsPool.Submit(func() { o.launchSlave2(ctx, name) })
}

// launchSlave2 is phase 2, a single non-blocking probe iteration that
// re-enqueues itself on the ops pool until the slave is started or
// found BROKEN, so no worker is ever pinned to one slow slave
// (spec.md §4.6.3).
func (o *Orchestrator) launchSlave2(ctx context.Context, name string) {
	state, ok := o.reg.InstanceState(name)
	if !ok {
		return
	}
	if state < cluster.SnitchReady {
		newState := o.getStatus(ctx, name)
		o.reg.SetInstanceState(name, newState)
		if newState == cluster.Broken {
			o.reg.RecordFailure(name, "launch_slave2 observed BROKEN")
			return
		}
		o.opsPool.Submit(func() { o.launchSlave2(ctx, name) })
		return
	}
	if o.reg.MastersUp() {
		o.startSlave(ctx, name)
		return
	}
	o.opsPool.Submit(func() { o.launchSlave2(ctx, name) })
}

// startSlave preconditions on masters_up(), POSTs /start, and atomically
// advances the slave to HADOOP_READY while incrementing live_slaves
// (I5), possibly flipping the cluster to READY.
func (o *Orchestrator) startSlave(ctx context.Context, name string) {
	if !o.reg.MastersUp() {
		o.opsPool.Submit(func() { o.launchSlave2(ctx, name) })
		return
	}
	if err := o.agents.CheckedPost(ctx, name, "/start", nil); err != nil {
		o.reg.RecordFailure(name, err.Error())
		return
	}
	o.reg.SetInstanceState(name, cluster.HadoopReady)
	o.reg.IncrementLiveSlaves()
}
