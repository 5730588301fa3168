// Package orchestrator is the coordinator's state-machine driver: cluster
// launch, master and slave bring-up, work routing, and teardown. It is
// the Go analogue of original_source/coordinator/hadoop_cluster.py's
// HadoopCluster class, split across files the way the teacher's xaction
// package splits a single state machine into one file per concern.
package orchestrator

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/gce-tools/hadoop-coordinator/agentclient"
	"github.com/gce-tools/hadoop-coordinator/artifact"
	"github.com/gce-tools/hadoop-coordinator/cluster"
	"github.com/gce-tools/hadoop-coordinator/cmn"
	"github.com/gce-tools/hadoop-coordinator/iaas"
	"github.com/gce-tools/hadoop-coordinator/workqueue"
)

// Orchestrator wires the registry, the two worker pools, the agent
// client, the VM factory and the artifact stager together into the
// operations listed in spec.md §4.6.
type Orchestrator struct {
	cfg     *cmn.Config
	reg     *cluster.Registry
	ops     *cluster.Operations
	spawn   *workqueue.Pool
	opsPool *workqueue.Pool
	agents  *agentclient.Client
	vmf     *iaas.Factory
	stager  *artifact.Stager
	api     iaas.InstanceAPI

	snitch  func(role cluster.Role) iaas.SnitchFiles
	confDir string
	telem   telemetry
}

// New builds an Orchestrator. snitch supplies the per-role payload
// VMFactory embeds into instance metadata; confDir is the local
// hadoop/conf tree staged to object storage during launch_sequence.
func New(
	cfg *cmn.Config,
	api iaas.InstanceAPI,
	snitch func(role cluster.Role) iaas.SnitchFiles,
	confDir string,
) *Orchestrator {
	reg := cluster.NewRegistry(cmn.NameNode, cmn.JobTracker, cfg.NeededSlaves)
	return &Orchestrator{
		cfg:     cfg,
		reg:     reg,
		ops:     cluster.NewOperations(),
		spawn:   workqueue.New("spawn", cfg.NumWorkers),
		opsPool: workqueue.New("ops", 2*cfg.NumWorkers),
		agents:  agentclient.New(cfg, api),
		vmf:     iaas.NewFactory(cfg, api),
		stager:  artifact.NewStager(cfg),
		api:     api,
		snitch:  snitch,
		confDir: confDir,
	}
}

// Registry exposes the read model for the control plane's status
// endpoints.
func (o *Orchestrator) Registry() *cluster.Registry { return o.reg }

// Operations exposes the operation registry for the control plane.
func (o *Orchestrator) Operations() *cluster.Operations { return o.ops }

// PoolDepths reports both pools' queue depths for the /metrics collector.
func (o *Orchestrator) PoolDepths() (spawn, ops int) { return o.spawn.Depth(), o.opsPool.Depth() }

// Stop drains both worker pools; used by tests and graceful shutdown.
func (o *Orchestrator) Stop() {
	o.spawn.Stop()
	o.opsPool.Stop()
}

// Launch starts the cluster launch protocol (spec.md §4.6.1). Returns
// false without side effects if the cluster isn't DOWN (I4).
func (o *Orchestrator) Launch(ctx context.Context, numSlaves int) bool {
	if !o.reg.CompareAndSetClusterState(cluster.Down, cluster.Downloading) {
		return false
	}
	o.opsPool.Submit(func() { o.launchSequence(ctx, numSlaves) })
	return true
}

// launchSequence runs the three staging steps (unguarded per Q1), then
// transitions to LAUNCHING, spawns both masters, and requests the
// initial slave batch.
func (o *Orchestrator) launchSequence(ctx context.Context, numSlaves int) {
	if err := o.stager.Stage(ctx, o.confDir); err != nil {
		glog.Warningf("launch_sequence: staging had errors (continuing per design): %v", err)
	}

	o.reg.SetClusterState(cluster.Launching)
	o.reg.EnsureInstance(cmn.NameNode, cluster.RoleNameNode)
	o.reg.EnsureInstance(cmn.JobTracker, cluster.RoleJobTracker)
	o.reg.SetInstanceState(cmn.NameNode, cluster.NonExistent)
	o.reg.SetInstanceState(cmn.JobTracker, cluster.NonExistent)

	o.spawn.Submit(func() { o.launchNameNode(ctx) })
	o.spawn.Submit(func() { o.launchJobTracker(ctx) })
	o.AddSlaves(ctx, numSlaves)
}

// launchNameNode is launch_nn: Insert the NameNode, monitor it to
// SNITCH_READY, then directly attest HADOOP_READY (its startup script
// brings up HDFS as part of boot, spec.md §4.6.2).
func (o *Orchestrator) launchNameNode(ctx context.Context) {
	if !o.vmf.Spawn(ctx, cmn.NameNode, cluster.RoleNameNode, o.snitch(cluster.RoleNameNode)) {
		o.reg.SetClusterState(cluster.ClusterBroken)
		return
	}
	o.reg.SetInstanceState(cmn.NameNode, cluster.Provisioning)
	if !o.monitorInstance(ctx, cmn.NameNode, cluster.SnitchReady) {
		return
	}
	o.reg.SetInstanceState(cmn.NameNode, cluster.HadoopReady)
}

// launchJobTracker is launch_jt: Insert, monitor to SNITCH_READY, wait
// for the NameNode gate, then start the JobTracker daemon and fork its
// monitor.
func (o *Orchestrator) launchJobTracker(ctx context.Context) {
	if !o.vmf.Spawn(ctx, cmn.JobTracker, cluster.RoleJobTracker, o.snitch(cluster.RoleJobTracker)) {
		o.reg.SetClusterState(cluster.ClusterBroken)
		return
	}
	o.reg.SetInstanceState(cmn.JobTracker, cluster.Provisioning)
	if !o.monitorInstance(ctx, cmn.JobTracker, cluster.SnitchReady) {
		return
	}
	o.reg.WaitUntil(cmn.NameNode, cluster.HadoopReady)

	if err := o.agents.CheckedPost(ctx, cmn.JobTracker, "/start", nil); err != nil {
		o.reg.RecordFailure(cmn.JobTracker, err.Error())
		o.reg.SetClusterState(cluster.ClusterBroken)
		return
	}
	o.reg.SetInstanceState(cmn.JobTracker, cluster.HadoopReady)
	forkHadoopMonitor(o.cfg)
}

// monitorInstance polls InstanceAPI/get_status every PollDelay until the
// instance reaches at least target, or BROKEN, returning whether target
// was reached.
func (o *Orchestrator) monitorInstance(ctx context.Context, name string, target cluster.InstanceState) bool {
	ticker := time.NewTicker(o.cfg.PollDelay)
	defer ticker.Stop()
	for {
		state := o.getStatus(ctx, name)
		o.reg.SetInstanceState(name, state)
		if state == cluster.Broken {
			o.reg.RecordFailure(name, "monitor_instance observed BROKEN")
			o.reg.SetClusterState(cluster.ClusterBroken)
			return false
		}
		if state >= target {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
