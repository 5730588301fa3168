package orchestrator

import (
	"context"
	"strings"

	"github.com/golang/glog"

	"github.com/gce-tools/hadoop-coordinator/cluster"
	"github.com/gce-tools/hadoop-coordinator/cmn"
	"github.com/gce-tools/hadoop-coordinator/hdfsinfo"
)

// Transfer implements transfer(src, dst): requires READY, allocates an
// operation, records its endpoints, kicks off the NameNode-side copy,
// and returns the record immediately. The NameNode snitch advances the
// operation's state later via /instance/op_status.
func (o *Orchestrator) Transfer(ctx context.Context, src, dst string) (cluster.Operation, error) {
	if o.reg.ClusterState() != cluster.Ready {
		return cluster.Operation{}, cmn.ErrClusterNotReady
	}
	if isHDFSPath(src) {
		if err := o.checkHDFSPathExists(ctx, src); err != nil {
			return cluster.Operation{}, err
		}
	}

	op := o.ops.New()
	o.ops.SetSrcDst(op.ID, src, dst)
	if err := o.agents.CheckedPost(ctx, cmn.NameNode, "/transfer", map[string]interface{}{
		"operation": op.ID,
		"src":       src,
		"dst":       dst,
	}); err != nil {
		o.ops.SetState(op.ID, "Failed")
	}
	current, _ := o.ops.Get(op.ID)
	return current, nil
}

// SubmitJob implements submit_job(jar, args): requires READY, rejects a
// jar path that resolves to an HDFS directory, then fires and forgets
// against the JobTracker. The job's later fate is only visible through
// HadoopMonitor telemetry landing on /hadoop/status_update.
func (o *Orchestrator) SubmitJob(ctx context.Context, jar string, jobArgs []string) error {
	if o.reg.ClusterState() != cluster.Ready {
		return cmn.ErrClusterNotReady
	}
	if isHDFSPath(jar) {
		if err := o.checkJarNotDir(ctx, jar); err != nil {
			return err
		}
	}
	return o.agents.CheckedPost(ctx, cmn.JobTracker, "/job/start", map[string]interface{}{
		"jar":  jar,
		"args": jobArgs,
	})
}

// CleanHDFS implements clean_hdfs(path): requires READY, and once READY
// reports success at the coordinator layer regardless of the remote
// subprocess's actual result (spec.md §4.6.5).
func (o *Orchestrator) CleanHDFS(ctx context.Context, path string) error {
	if o.reg.ClusterState() != cluster.Ready {
		return cmn.ErrClusterNotReady
	}
	if err := o.checkHDFSPathExists(ctx, path); err != nil {
		glog.Warningf("clean_hdfs %s: %v (proceeding anyway, fire-and-forget)", path, err)
	}
	_ = o.agents.CheckedPost(ctx, cmn.NameNode, "/clean", map[string]interface{}{"path": path})
	return nil
}

// isHDFSPath distinguishes an HDFS-side transfer endpoint from an
// object-store one; every gs:// path names a bucket object, never HDFS.
func isHDFSPath(path string) bool { return !strings.HasPrefix(path, "gs://") }

// dialNameNodeChecker resolves the NameNode's address through the same
// resolver AgentClient uses and dials its HDFS RPC port. A nil Checker
// with a nil error means "couldn't validate" (resolve/dial failure);
// callers must treat that as non-fatal per Q1's unguarded-staging
// posture, not as a missing path.
func (o *Orchestrator) dialNameNodeChecker(ctx context.Context) (*hdfsinfo.Checker, error) {
	host, err := o.agents.ResolveAddr(ctx, cmn.NameNode)
	if err != nil {
		glog.Warningf("resolve namenode for hdfs check: %v", err)
		return nil, nil
	}
	checker, err := hdfsinfo.Dial(o.cfg.NameNodeRPCAddr(host))
	if err != nil {
		glog.Warningf("dial namenode for hdfs check: %v", err)
		return nil, nil
	}
	return checker, nil
}

// checkHDFSPathExists is the read-only validation spec.md's
// OperationRegistry section was enriched with: it confirms path is
// actually there before the snitch is asked to act on it.
func (o *Orchestrator) checkHDFSPathExists(ctx context.Context, path string) error {
	checker, err := o.dialNameNodeChecker(ctx)
	if err != nil || checker == nil {
		return nil
	}
	defer checker.Close()

	exists, err := checker.Exists(path)
	if err != nil {
		glog.Warningf("stat %s: %v", path, err)
		return nil
	}
	if !exists {
		return &cmn.ErrRemoteCallFailed{Who: cmn.NameNode, Path: path, Body: "hdfs path does not exist"}
	}
	return nil
}

// checkJarNotDir rejects a submit_job jar argument that resolves to an
// HDFS directory rather than a file.
func (o *Orchestrator) checkJarNotDir(ctx context.Context, jar string) error {
	checker, err := o.dialNameNodeChecker(ctx)
	if err != nil || checker == nil {
		return nil
	}
	defer checker.Close()

	isDir, err := checker.IsDir(jar)
	if err != nil {
		glog.Warningf("stat %s: %v", jar, err)
		return nil
	}
	if isDir {
		return &cmn.ErrRemoteCallFailed{Who: cmn.JobTracker, Path: jar, Body: "jar path is an HDFS directory"}
	}
	return nil
}

// ReportOpStatus applies a snitch push-update to the operation registry
// (the write side of /instance/op_status).
func (o *Orchestrator) ReportOpStatus(id, state string) {
	o.ops.SetState(id, state)
}

// ReportInstanceFailure applies a snitch push-update to the cluster-level
// error log (the write side of /instance/report_fail).
func (o *Orchestrator) ReportInstanceFailure(name, msg string) {
	o.reg.RecordFailure(name, msg)
}
