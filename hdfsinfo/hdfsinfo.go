// Package hdfsinfo validates HDFS paths used by the transfer, clean and
// submit operations. Per spec.md §4.6 the coordinator never writes to HDFS
// itself (clean_hdfs and submit_job are carried out by the NameNode and
// JobTracker snitches, reached via AgentClient); this package only needs read access
// to answer "does this path exist" and "is this a directory", grounded
// on github.com/colinmarc/hdfs/v2's Client.Stat.
package hdfsinfo

import (
	"os"

	"github.com/colinmarc/hdfs/v2"
	"github.com/pkg/errors"
)

// Checker validates paths against a live HDFS namenode before the
// orchestrator hands them to a snitch, so a missing transfer source or a
// submit_job jar path that is a directory fails fast with a clear error
// instead of a cryptic agent-side failure. A jar path that does not exist
// is not rejected.
type Checker struct {
	client *hdfs.Client
}

// Dial connects to the namenode's RPC address (namenode:8020 in the
// default layout).
func Dial(namenodeAddr string) (*Checker, error) {
	client, err := hdfs.New(namenodeAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial namenode %s", namenodeAddr)
	}
	return &Checker{client: client}, nil
}

func (c *Checker) Close() error { return c.client.Close() }

// Exists reports whether path exists on HDFS.
func (c *Checker) Exists(path string) (bool, error) {
	_, err := c.client.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "stat %s", path)
}

// IsDir reports whether path exists and is a directory; submit_job
// rejects a jar argument that resolves to a directory.
func (c *Checker) IsDir(path string) (bool, error) {
	fi, err := c.client.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "stat %s", path)
	}
	return fi.IsDir(), nil
}
