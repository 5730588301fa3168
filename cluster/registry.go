package cluster

import (
	"fmt"
	"sort"
	"sync"

	"github.com/golang/glog"
)

// Registry is the single mutex+condvar guarding cluster_state, the
// per-instance state map, live_slaves and first_free_slave (spec.md
// I5, O1, O2). One Registry exists per coordinator process.
type Registry struct {
	mu  sync.Mutex
	cv  *sync.Cond
	set map[string]*Instance

	clusterState   ClusterState
	liveSlaves     int
	firstFreeSlave int
	neededSlaves   int

	namenodeName   string
	jobtrackerName string

	errors []string
}

func NewRegistry(namenode, jobtracker string, neededSlaves int) *Registry {
	r := &Registry{
		set:            make(map[string]*Instance),
		namenodeName:   namenode,
		jobtrackerName: jobtracker,
		neededSlaves:   neededSlaves,
	}
	r.cv = sync.NewCond(&r.mu)
	return r
}

// ClusterState returns the current cluster-wide state.
func (r *Registry) ClusterState() ClusterState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clusterState
}

// SetClusterState logs and notifies waiters only when the state actually
// changes (I6, P6: set_cluster_state(X) when already X is a no-op).
func (r *Registry) SetClusterState(new ClusterState) {
	r.mu.Lock()
	old := r.clusterState
	if old != new {
		r.clusterState = new
	}
	r.mu.Unlock()
	if old != new {
		glog.Infof("cluster now %s", new)
		r.mu.Lock()
		r.cv.Broadcast()
		r.mu.Unlock()
	}
}

// CompareAndSetClusterState sets the cluster state iff it currently equals
// expect, returning whether the swap happened. Used by launch() to make
// exactly one concurrent caller win (I4).
func (r *Registry) CompareAndSetClusterState(expect, new ClusterState) bool {
	r.mu.Lock()
	ok := r.clusterState == expect
	if ok {
		r.clusterState = new
	}
	r.mu.Unlock()
	if ok {
		glog.Infof("cluster now %s", new)
		r.mu.Lock()
		r.cv.Broadcast()
		r.mu.Unlock()
	}
	return ok
}

// EnsureInstance creates an entry in NON_EXISTENT if one doesn't already
// exist, which is how every instance is born (spec.md §3: "created by
// update_state(name, NON_EXISTENT) before any IaaS call").
func (r *Registry) EnsureInstance(name string, role Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.set[name]; !ok {
		r.set[name] = &Instance{Name: name, Role: role, State: NonExistent}
		glog.Infof("%s now %s", name, NonExistent)
	}
}

// SetInstanceState logs only if the state differs (I6) and does not
// enforce the InstanceState ordering: transitions may go backward, e.g.
// RUNNING -> BROKEN.
func (r *Registry) SetInstanceState(name string, new InstanceState) {
	r.mu.Lock()
	inst, ok := r.set[name]
	if !ok {
		r.mu.Unlock()
		return
	}
	old := inst.State
	changed := old != new
	inst.State = new
	isMaster := name == r.namenodeName || name == r.jobtrackerName
	r.mu.Unlock()

	if changed {
		glog.Infof("%s now %s", name, new)
	}
	if changed && isMaster {
		// O1: every master transition is visible to waiters under the
		// single cv before any slave advances past SNITCH_READY.
		r.mu.Lock()
		r.cv.Broadcast()
		r.mu.Unlock()
	}
}

// InstanceState returns the current state of name, or NonExistent/false if
// the instance isn't registered (get_status treats an unknown instance as
// NON_EXISTENT at the call site, not here).
func (r *Registry) InstanceState(name string) (InstanceState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.set[name]
	if !ok {
		return NonExistent, false
	}
	return inst.State, true
}

// WaitUntil blocks until instance[name] >= state, returning immediately if
// it already is. A name that never appears blocks forever by design (the
// spec provides no cancellation, §5).
func (r *Registry) WaitUntil(name string, state InstanceState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		inst, ok := r.set[name]
		if ok && inst.State >= state {
			return
		}
		r.cv.Wait()
	}
}

// MastersUp reports whether both the NameNode and JobTracker are
// HADOOP_READY.
func (r *Registry) MastersUp() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	nn, ok1 := r.set[r.namenodeName]
	jt, ok2 := r.set[r.jobtrackerName]
	return ok1 && ok2 && nn.State == HadoopReady && jt.State == HadoopReady
}

// AllocateSlaveNames atomically reserves k consecutive slave names and
// advances first_free_slave (I3, O2: linearizable, disjoint across
// concurrent callers).
func (r *Registry) AllocateSlaveNames(k int) []string {
	r.mu.Lock()
	start := r.firstFreeSlave
	r.firstFreeSlave = start + k
	r.mu.Unlock()

	names := make([]string, k)
	for i := 0; i < k; i++ {
		names[i] = slaveName(start + i)
	}
	return names
}

func slaveName(n int) string {
	return fmt.Sprintf("hadoop-slave-%03d", n)
}

// IncrementLiveSlaves increments live_slaves under the registry lock and
// transitions the cluster to READY once it reaches neededSlaves (I1, I5).
// Must be called exactly once per slave, at SNITCH_READY -> HADOOP_READY.
func (r *Registry) IncrementLiveSlaves() {
	r.mu.Lock()
	r.liveSlaves++
	ready := r.liveSlaves >= r.neededSlaves
	r.mu.Unlock()
	if ready {
		r.SetClusterState(Ready)
	}
}

func (r *Registry) LiveSlaves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.liveSlaves
}

// Remove deletes an instance's entry (post successful delete, per nix()).
// If the map empties out while the cluster is DOOMED, the cluster becomes
// DOWN.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	delete(r.set, name)
	empty := len(r.set) == 0
	doomed := r.clusterState == ClusterDoomed
	r.mu.Unlock()
	if empty && doomed {
		r.SetClusterState(Down)
	}
}

// RecordFailure appends a snitch-reported problem to the cluster-level
// error log (spec.md §7: "does not force the instance to BROKEN by
// itself").
func (r *Registry) RecordFailure(name, reason string) {
	msg := name + ": " + reason
	glog.Warning(msg)
	r.mu.Lock()
	r.errors = append(r.errors, msg)
	if inst, ok := r.set[name]; ok {
		inst.LastErr = reason
	}
	r.mu.Unlock()
}

// Names returns every registered instance name.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.set))
	for n := range r.set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Snapshot is a read-only copy of the registry used to answer
// /status/cluster; grouped by state the same way the CLI renders it.
type Snapshot struct {
	ClusterState ClusterState
	LiveSlaves   int
	Errors       []string
	ByState      map[InstanceState][]string
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	byState := make(map[InstanceState][]string, 8)
	for name, inst := range r.set {
		byState[inst.State] = append(byState[inst.State], name)
	}
	for _, names := range byState {
		sort.Strings(names)
	}
	errs := make([]string, len(r.errors))
	copy(errs, r.errors)
	return Snapshot{
		ClusterState: r.clusterState,
		LiveSlaves:   r.liveSlaves,
		Errors:       errs,
		ByState:      byState,
	}
}
