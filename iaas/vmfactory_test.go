package iaas

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	compute "google.golang.org/api/compute/v1"

	"github.com/gce-tools/hadoop-coordinator/cluster"
	"github.com/gce-tools/hadoop-coordinator/cmn"
)

type recordingAPI struct {
	inserted *compute.Instance
}

func (r *recordingAPI) Insert(_ context.Context, _ string, inst *compute.Instance) (*compute.Operation, error) {
	r.inserted = inst
	return &compute.Operation{}, nil
}
func (r *recordingAPI) Delete(context.Context, string, string) (*compute.Operation, error) {
	return &compute.Operation{}, nil
}
func (r *recordingAPI) Get(context.Context, string, string) (*compute.Instance, error) {
	return nil, ErrNotFound
}
func (r *recordingAPI) List(context.Context, string) ([]*compute.Instance, error) { return nil, nil }

func testCfg() *cmn.Config {
	c := cmn.Default()
	c.Zone = "us-central1-a"
	c.MachineType = "n1-standard-4"
	return c
}

// TestDisksNoDiskConfigured covers spec.md §4.4's first branch: no disk
// at all means no attached disks.
func TestDisksNoDiskConfigured(t *testing.T) {
	f := NewFactory(testCfg(), &recordingAPI{})
	if disks := f.disks("hadoop-namenode"); disks != nil {
		t.Fatalf("disks = %v, want nil", disks)
	}
}

// TestDisksSharedReadOnly covers the no-rw-owner branch: every instance
// mounts the configured disk read-only.
func TestDisksSharedReadOnly(t *testing.T) {
	cfg := testCfg()
	cfg.Disk = "projects/p/zones/z/disks/shared"
	f := NewFactory(cfg, &recordingAPI{})

	disks := f.disks("hadoop-slave-000")
	if len(disks) != 1 || disks[0].Mode != "READ_ONLY" || disks[0].Source != cfg.Disk {
		t.Fatalf("disks = %+v, want one READ_ONLY disk", disks)
	}
}

// TestDisksRWOwnerGetsReadWriteEveryoneElseNone covers the
// rw_disk_instance branch: only the named owner mounts it, read-write;
// every other instance mounts nothing.
func TestDisksRWOwnerGetsReadWriteEveryoneElseNone(t *testing.T) {
	cfg := testCfg()
	cfg.Disk = "projects/p/zones/z/disks/shared"
	cfg.RWDiskInstance = "hadoop-namenode"
	f := NewFactory(cfg, &recordingAPI{})

	owner := f.disks("hadoop-namenode")
	if len(owner) != 1 || owner[0].Mode != "READ_WRITE" {
		t.Fatalf("owner disks = %+v, want one READ_WRITE disk", owner)
	}
	other := f.disks("hadoop-slave-000")
	if other != nil {
		t.Fatalf("non-owner disks = %v, want nil", other)
	}
}

// TestNetworkInterfacesExternalIPPolicy covers spec.md §4.4: masters
// always get an external NAT config; slaves only do when cfg.ExternalIPs
// is set.
func TestNetworkInterfacesExternalIPPolicy(t *testing.T) {
	cfg := testCfg()
	cfg.ExternalIPs = false
	f := NewFactory(cfg, &recordingAPI{})

	if ni := f.networkInterfaces("hadoop-namenode", cluster.RoleNameNode); len(ni[0].AccessConfigs) == 0 {
		t.Fatal("NameNode should always get an external NAT config")
	}
	if ni := f.networkInterfaces("hadoop-slave-000", cluster.RoleSlave); len(ni[0].AccessConfigs) != 0 {
		t.Fatal("slave should have no external NAT config when ExternalIPs is unset")
	}

	cfg.ExternalIPs = true
	if ni := f.networkInterfaces("hadoop-slave-000", cluster.RoleSlave); len(ni[0].AccessConfigs) == 0 {
		t.Fatal("slave should get an external NAT config once ExternalIPs is set")
	}
}

// TestScopesByRole covers spec.md §4.4: only the NameNode gets the
// read-write storage scope, everything else is read-only.
func TestScopesByRole(t *testing.T) {
	f := NewFactory(testCfg(), &recordingAPI{})
	if got := f.scopes(cluster.RoleNameNode); len(got) != 1 || got[0] != rwStorageScope {
		t.Fatalf("NameNode scopes = %v, want [%s]", got, rwStorageScope)
	}
	if got := f.scopes(cluster.RoleJobTracker); len(got) != 1 || got[0] != roStorageScope {
		t.Fatalf("JobTracker scopes = %v, want [%s]", got, roStorageScope)
	}
	if got := f.scopes(cluster.RoleSlave); len(got) != 1 || got[0] != roStorageScope {
		t.Fatalf("slave scopes = %v, want [%s]", got, roStorageScope)
	}
}

// TestSpawnSetsBootDiskRegardlessOfPersistentDisk covers the boot-disk
// regression: with no persistent disk configured (the default), Spawn
// must still build a valid, indexable Disks slice whose first entry is
// the boot disk image, matching what f.disks() would return (nothing)
// appended after it.
func TestSpawnSetsBootDiskRegardlessOfPersistentDisk(t *testing.T) {
	cfg := testCfg()
	cfg.Image = "projects/debian-cloud/global/images/family/debian-11"
	api := &recordingAPI{}
	f := NewFactory(cfg, api)

	if !f.Spawn(context.Background(), "hadoop-namenode", cluster.RoleNameNode, SnitchFiles{}) {
		t.Fatal("Spawn failed")
	}
	if len(api.inserted.Disks) != 1 {
		t.Fatalf("Disks = %+v, want exactly the boot disk", api.inserted.Disks)
	}
	boot := api.inserted.Disks[0]
	if !boot.Boot || !boot.AutoDelete || boot.InitializeParams == nil || boot.InitializeParams.SourceImage != cfg.Image {
		t.Fatalf("boot disk = %+v, want Boot/AutoDelete set with SourceImage %q", boot, cfg.Image)
	}
}

// TestSpawnAppendsPersistentDiskAfterBootDisk covers §4.4's persistent
// disk policy layered on top of the boot disk.
func TestSpawnAppendsPersistentDiskAfterBootDisk(t *testing.T) {
	cfg := testCfg()
	cfg.Image = "projects/debian-cloud/global/images/family/debian-11"
	cfg.Disk = "projects/p/zones/z/disks/shared"
	api := &recordingAPI{}
	f := NewFactory(cfg, api)

	if !f.Spawn(context.Background(), "hadoop-slave-000", cluster.RoleSlave, SnitchFiles{}) {
		t.Fatal("Spawn failed")
	}
	if len(api.inserted.Disks) != 2 {
		t.Fatalf("Disks = %+v, want boot disk plus one persistent disk", api.inserted.Disks)
	}
	if !api.inserted.Disks[0].Boot {
		t.Fatalf("Disks[0] = %+v, want the boot disk", api.inserted.Disks[0])
	}
	if api.inserted.Disks[1].Mode != "READ_ONLY" {
		t.Fatalf("Disks[1] = %+v, want READ_ONLY persistent disk", api.inserted.Disks[1])
	}
}

// TestSpawnRejectsOperationError covers Spawn's failure path when the
// IaaS accepts the call but reports an operation error.
func TestSpawnRejectsOperationError(t *testing.T) {
	f := NewFactory(testCfg(), &failingAPI{})
	if f.Spawn(context.Background(), "hadoop-namenode", cluster.RoleNameNode, SnitchFiles{}) {
		t.Fatal("Spawn should fail when the operation carries an error")
	}
}

type failingAPI struct{ recordingAPI }

func (*failingAPI) Insert(context.Context, string, *compute.Instance) (*compute.Operation, error) {
	return &compute.Operation{Error: &compute.OperationError{
		Errors: []*compute.OperationErrorErrors{{Message: "quota exceeded"}},
	}}, nil
}

// TestLoadSnitchFiles covers the on-disk read used by cmd/coordinator's
// snitch closure.
func TestLoadSnitchFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "start_setup.sh"), []byte("startup"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "hadoop"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "hadoop", "bootstrap.sh"), []byte("bootstrap"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "snitch_namenode.py"), []byte("snitch"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadSnitchFiles(dir, "snitch_namenode.py")
	if err != nil {
		t.Fatalf("LoadSnitchFiles: %v", err)
	}
	if got.StartupScript != "startup" || got.Bootstrap != "bootstrap" || got.Snitch != "snitch" {
		t.Fatalf("got %+v", got)
	}
}

func TestLoadSnitchFilesMissing(t *testing.T) {
	if _, err := LoadSnitchFiles(t.TempDir(), "snitch.py"); err == nil {
		t.Fatal("expected an error for a missing snitch directory")
	}
}
