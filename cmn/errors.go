package cmn

import "github.com/pkg/errors"

// ErrRemoteCallFailed is raised by checked_post's Go equivalent when an
// agent replies with anything other than {"result":"ok"}.
type ErrRemoteCallFailed struct {
	Who  string
	Path string
	Body string
}

func (e *ErrRemoteCallFailed) Error() string {
	return errors.Errorf("%s%s failed: %s", e.Who, e.Path, e.Body).Error()
}

// ErrClusterNotReady is returned by orchestrator operations that require
// ClusterState == READY (transfer, submit_job, clean_hdfs).
var ErrClusterNotReady = errors.New("cluster is not READY")

// ErrUnauthorized names the unauthorized failure. The control plane
// answers unauthorized requests with HTTP 401 directly and does not
// return this value.
var ErrUnauthorized = errors.New("unauthorized")
