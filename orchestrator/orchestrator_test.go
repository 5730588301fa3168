package orchestrator

import (
	"context"
	"testing"
	"time"

	compute "google.golang.org/api/compute/v1"

	"github.com/gce-tools/hadoop-coordinator/cluster"
	"github.com/gce-tools/hadoop-coordinator/cmn"
	"github.com/gce-tools/hadoop-coordinator/iaas"
)

func testConfig() *cmn.Config {
	c := cmn.Default()
	c.NumWorkers = 2
	c.PollDelay = 10 * time.Millisecond
	c.NeededSlaves = 2
	c.Zone = "us-central1-a"
	c.Secret = "s3cr3t"
	return c
}

func noopSnitch(cluster.Role) iaas.SnitchFiles { return iaas.SnitchFiles{} }

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakeAPI) {
	t.Helper()
	api := newFakeAPI()
	o := New(testConfig(), api, noopSnitch, t.TempDir())
	t.Cleanup(o.Stop)
	return o, api
}

// TestAddSlavesRequiresLaunchingFloor covers the add_slaves precondition
// from spec.md §4.6.3: no-op (and no allocation) below LAUNCHING.
func TestAddSlavesRequiresLaunchingFloor(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	if o.AddSlaves(context.Background(), 2) {
		t.Fatal("add_slaves succeeded while cluster was DOWN")
	}
	if len(o.Registry().Names()) != 0 {
		t.Fatal("add_slaves allocated names despite failing its precondition")
	}
}

// TestTransferRequiresReady covers transfer/submit_job/clean_hdfs's
// shared READY precondition (spec.md §4.6.5).
func TestTransferRequiresReady(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	if _, err := o.Transfer(context.Background(), "/hdfs/x", "gs://b/x"); err != cmn.ErrClusterNotReady {
		t.Fatalf("Transfer err = %v, want ErrClusterNotReady", err)
	}
	if err := o.SubmitJob(context.Background(), "jar", nil); err != cmn.ErrClusterNotReady {
		t.Fatalf("SubmitJob err = %v, want ErrClusterNotReady", err)
	}
	if err := o.CleanHDFS(context.Background(), "/hdfs/x"); err != cmn.ErrClusterNotReady {
		t.Fatalf("CleanHDFS err = %v, want ErrClusterNotReady", err)
	}
}

func TestIsHDFSPath(t *testing.T) {
	cases := map[string]bool{
		"/user/hadoop/input": true,
		"gs://bucket/object": false,
	}
	for path, want := range cases {
		if got := isHDFSPath(path); got != want {
			t.Errorf("isHDFSPath(%q) = %v, want %v", path, got, want)
		}
	}
}

// TestGetStatusNonExistent covers get_status's NOT_FOUND -> NON_EXISTENT
// mapping (spec.md §4.6.4).
func TestGetStatusNonExistent(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	if got := o.getStatus(context.Background(), "hadoop-slave-999"); got != cluster.NonExistent {
		t.Fatalf("getStatus() = %s, want NON_EXISTENT", got)
	}
}

// TestGetStatusRunningProbesAgent covers the RUNNING -> probe-the-agent
// branch; with no reachable agent the probe must return RUNNING again
// (retry next tick) rather than erroring out.
func TestGetStatusRunningProbesAgent(t *testing.T) {
	o, api := newTestOrchestrator(t)
	_, _ = api.Insert(context.Background(), "us-central1-a", &compute.Instance{Name: "hadoop-slave-000"})

	got := o.getStatus(context.Background(), "hadoop-slave-000")
	if got != cluster.Running {
		t.Fatalf("getStatus() = %s, want RUNNING when the agent is unreachable", got)
	}
}

// TestTeardownEmptiesRegistry covers R1's shape against a live
// orchestrator: allocate slaves, mark them HADOOP_READY, then teardown.
func TestTeardownEmptiesRegistry(t *testing.T) {
	o, api := newTestOrchestrator(t)
	reg := o.Registry()

	names := reg.AllocateSlaveNames(3)
	for _, n := range names {
		reg.EnsureInstance(n, cluster.RoleSlave)
		_, _ = api.Insert(context.Background(), "us-central1-a", &compute.Instance{Name: n})
		reg.SetInstanceState(n, cluster.HadoopReady)
	}

	o.Teardown(context.Background())

	deadline := time.After(2 * time.Second)
	for len(reg.Names()) != 0 {
		select {
		case <-deadline:
			t.Fatalf("registry still has %v after teardown", reg.Names())
		case <-time.After(5 * time.Millisecond):
		}
	}
	if reg.ClusterState() != cluster.Down {
		t.Fatalf("cluster state = %s, want DOWN", reg.ClusterState())
	}
}
