// Command coordinator is the cluster coordinator daemon: it loads its
// configuration from instance metadata, wires the orchestrator and
// control plane together, and serves the REST surface until killed.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"github.com/gce-tools/hadoop-coordinator/cluster"
	"github.com/gce-tools/hadoop-coordinator/cmn"
	"github.com/gce-tools/hadoop-coordinator/control"
	"github.com/gce-tools/hadoop-coordinator/iaas"
	"github.com/gce-tools/hadoop-coordinator/metrics"
	"github.com/gce-tools/hadoop-coordinator/orchestrator"
)

var (
	certFile  = flag.String("cert", "/etc/hadoop-coordinator/server.crt", "TLS certificate")
	keyFile   = flag.String("key", "/etc/hadoop-coordinator/server.key", "TLS key")
	snitchDir = flag.String("snitch_dir", "/opt/hadoop-coordinator/snitch", "directory holding the three snitch payload files")
	confDir   = flag.String("conf_dir", "/opt/hadoop/conf", "hadoop/conf tree staged during launch_sequence")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := cmn.FromInstanceMetadata()
	if err != nil {
		glog.Fatalf("load config: %v", err)
	}

	api, err := iaas.NewComputeClient(context.Background(), cfg.ProjectID)
	if err != nil {
		glog.Fatalf("init IaaS client: %v", err)
	}

	snitch := func(role cluster.Role) iaas.SnitchFiles {
		rel := map[cluster.Role]string{
			cluster.RoleNameNode:   "namenode_snitch.py",
			cluster.RoleJobTracker: "jobtracker_snitch.py",
			cluster.RoleSlave:      "slave_snitch.py",
		}[role]
		files, err := iaas.LoadSnitchFiles(*snitchDir, rel)
		if err != nil {
			glog.Errorf("load snitch files for %s: %v", role, err)
		}
		return files
	}

	orch := orchestrator.New(cfg, api, snitch, *confDir)
	m := metrics.New()
	srv := control.New(cfg, orch, m, *certFile, *keyFile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go reportPoolDepths(ctx, orch, m)

	glog.Infof("coordinator listening on port %d", cfg.Port)
	if err := srv.ListenAndServeTLS(ctx); err != nil {
		glog.Fatalf("control plane: %v", err)
	}
	orch.Stop()
}
