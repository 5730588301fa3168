package orchestrator

import (
	"context"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/gce-tools/hadoop-coordinator/cluster"
)

// Teardown implements teardown: DOOMED the cluster, then nix every
// registered instance concurrently on the ops pool (spec.md §4.6.6).
// Preserved per Q3: an already-BROKEN cluster still transitions through
// DOOMED to DOWN.
func (o *Orchestrator) Teardown(ctx context.Context) {
	o.reg.SetClusterState(cluster.ClusterDoomed)
	for _, name := range o.reg.Names() {
		n := name
		o.opsPool.Submit(func() { o.nix(ctx, n) })
	}
}

// nix blockingly deletes an instance, then removes its registry entry;
// the registry itself flips DOOMED -> DOWN once the map empties.
func (o *Orchestrator) nix(ctx context.Context, name string) {
	if _, err := o.api.Delete(ctx, o.cfg.Zone, name); err != nil {
		glog.Warningf("delete %s: %v", name, errors.Wrap(err, "nix"))
	}
	o.reg.Remove(name)
}
