package iaas

import (
	"context"
	"fmt"
	"os"

	"github.com/OneOfOne/xxhash"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	compute "google.golang.org/api/compute/v1"

	"github.com/gce-tools/hadoop-coordinator/cluster"
	"github.com/gce-tools/hadoop-coordinator/cmn"
)

const (
	rwStorageScope = "https://www.googleapis.com/auth/devstorage.read_write"
	roStorageScope = "https://www.googleapis.com/auth/devstorage.read_only"
	computeScope   = "https://www.googleapis.com/auth/compute"
)

// SnitchFiles holds the three agent payload files VMFactory embeds into
// instance metadata (only Snitch differs by role); their content is
// opaque to the coordinator
// (spec.md §1(c)).
type SnitchFiles struct {
	StartupScript string // contents of start_setup.sh
	Bootstrap     string // contents of hadoop/bootstrap.sh
	Snitch        string // contents of the role-specific snitch.py
}

// Factory builds per-role Insert requests and hands them to InstanceAPI.
// Grounded on original_source/coordinator/hadoop_cluster.py's
// spawn_instance().
type Factory struct {
	cfg *cmn.Config
	api InstanceAPI
}

func NewFactory(cfg *cmn.Config, api InstanceAPI) *Factory {
	return &Factory{cfg: cfg, api: api}
}

// Spawn creates name with the given role and snitch payload, returning
// true iff the IaaS accepted the request without an error field
// (spec.md §4.4).
func (f *Factory) Spawn(ctx context.Context, name string, role cluster.Role, snitch SnitchFiles) bool {
	inst := &compute.Instance{
		Name:              name,
		Zone:              f.cfg.Zone,
		MachineType:       f.cfg.MachineType,
		Disks:             append([]*compute.AttachedDisk{f.bootDisk()}, f.disks(name)...),
		NetworkInterfaces: f.networkInterfaces(name, role),
		ServiceAccounts: []*compute.ServiceAccount{{
			Email:  "default",
			Scopes: f.scopes(role),
		}},
		Metadata: f.metadata(snitch),
	}

	op, err := f.api.Insert(ctx, f.cfg.Zone, inst)
	if err != nil {
		glog.Warningf("spawn %s failed: %v", name, err)
		return false
	}
	if op != nil && op.Error != nil && len(op.Error.Errors) > 0 {
		glog.Warningf("spawn %s failed: %v", name, op.Error.Errors[0].Message)
		return false
	}
	f.logChecksum(name, snitch)
	return true
}

// bootDisk is always entry zero: a fresh boot disk imaged from
// cfg.Image, auto-deleted with the instance. Kept separate from disks()
// so the §4.4 persistent-disk policy below never has to reason about
// index 0 being the boot disk.
func (f *Factory) bootDisk() *compute.AttachedDisk {
	return &compute.AttachedDisk{
		Boot:             true,
		AutoDelete:       true,
		InitializeParams: &compute.AttachedDiskInitializeParams{SourceImage: f.cfg.Image},
	}
}

// disks implements the attachment policy from spec.md §4.4: no disk
// configured means nothing attached; an rw_disk_instance configured means
// only that instance mounts it read-write and every other instance mounts
// nothing; otherwise every instance mounts it read-only.
func (f *Factory) disks(name string) []*compute.AttachedDisk {
	if f.cfg.Disk == "" {
		return nil
	}
	if f.cfg.RWDiskInstance != "" {
		if f.cfg.RWDiskInstance == name {
			return []*compute.AttachedDisk{{Source: f.cfg.Disk, Mode: "READ_WRITE"}}
		}
		return nil
	}
	return []*compute.AttachedDisk{{Source: f.cfg.Disk, Mode: "READ_ONLY"}}
}

func (f *Factory) networkInterfaces(name string, role cluster.Role) []*compute.NetworkInterface {
	wantsExternal := role != cluster.RoleSlave || f.cfg.ExternalIPs
	ni := &compute.NetworkInterface{Network: "default"}
	if wantsExternal {
		ni.AccessConfigs = []*compute.AccessConfig{{Type: "ONE_TO_ONE_NAT", Name: "External NAT"}}
	}
	return []*compute.NetworkInterface{ni}
}

func (f *Factory) scopes(role cluster.Role) []string {
	if role == cluster.RoleNameNode {
		return []string{rwStorageScope}
	}
	return []string{roStorageScope}
}

func (f *Factory) metadata(snitch SnitchFiles) *compute.Metadata {
	items := []*compute.MetadataItems{
		kv("gs_bucket", f.cfg.GSBucket),
		kv("snitch-tarball.tgz", f.cfg.GSSnitchTarball()),
		kv("startup-script", snitch.StartupScript),
		kv("bootstrap.sh", snitch.Bootstrap),
		kv("snitch.py", snitch.Snitch),
	}
	return &compute.Metadata{Items: items}
}

func kv(key, value string) *compute.MetadataItems {
	v := value
	return &compute.MetadataItems{Key: key, Value: &v}
}

// logChecksum records an xxhash digest of the staged snitch payload so a
// later /status/cluster read can show what a given instance was actually
// launched with, grounded on cluster.Snode.Digest()'s use of the same
// library for node identity.
func (f *Factory) logChecksum(name string, snitch SnitchFiles) {
	h := xxhash.New64()
	_, _ = h.WriteString(snitch.StartupScript)
	_, _ = h.WriteString(snitch.Bootstrap)
	_, _ = h.WriteString(snitch.Snitch)
	glog.Infof("%s: staged payload digest %x", name, h.Sum64())
}

// LoadSnitchFiles reads the three embedded payloads off disk, where the
// coordinator's own startup tarball (coordinator-tarball.tgz) unpacked
// them.
func LoadSnitchFiles(dir, snitchRelPath string) (SnitchFiles, error) {
	read := func(rel string) (string, error) {
		b, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, rel))
		if err != nil {
			return "", errors.Wrapf(err, "read %s", rel)
		}
		return string(b), nil
	}
	startup, err := read("start_setup.sh")
	if err != nil {
		return SnitchFiles{}, err
	}
	bootstrap, err := read("hadoop/bootstrap.sh")
	if err != nil {
		return SnitchFiles{}, err
	}
	snitch, err := read(snitchRelPath)
	if err != nil {
		return SnitchFiles{}, err
	}
	return SnitchFiles{StartupScript: startup, Bootstrap: bootstrap, Snitch: snitch}, nil
}
