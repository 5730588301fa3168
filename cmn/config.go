// Package cmn holds the configuration value and error kinds shared by the
// coordinator and the hdctl CLI, mirroring the shape (not the bucket/EC
// concerns) of the teacher's cmn.Config singleton.
package cmn

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// JSON is the jsoniter codec every package in this module uses to encode
// and decode wire bodies, matching the teacher's own use of jsoniter
// throughout cmn and cluster.
var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Well-known instance names; slaves are named hadoop-slave-NNN.
const (
	Coordinator = "coordinator"
	NameNode    = "hadoop-namenode"
	JobTracker  = "hadoop-jobtracker"
)

// DefaultPort is the port both the coordinator and every snitch listen on.
const DefaultPort = 8888

// Config is passed explicitly into constructors; there is no mutable
// global. A *Config is treated as immutable once loaded.
type Config struct {
	// General communication
	Port     int    `json:"port" yaml:"port"`
	Secret   string `json:"secret" yaml:"secret"`
	IPViaAPI bool   `json:"ip_via_api" yaml:"ip_via_api"`

	PollDelay        time.Duration `json:"poll_delay" yaml:"poll_delay"`
	ProjectID        string        `json:"project_id" yaml:"project_id"`
	DownloadAttempts int           `json:"download_attempts" yaml:"download_attempts"`
	NumWorkers       int           `json:"num_workers" yaml:"num_workers"`

	// Instance creation
	Zone            string `json:"zone" yaml:"zone"`
	MachineType     string `json:"machine_type" yaml:"machine_type"`
	Image           string `json:"image" yaml:"image"`
	Disk            string `json:"disk" yaml:"disk"`
	RWDiskInstance  string `json:"rw_disk_instance" yaml:"rw_disk_instance"`
	ExternalIPs     bool   `json:"external_ips" yaml:"external_ips"`

	// Hadoop details
	HadoopURL     string `json:"hadoop_url" yaml:"hadoop_url"`
	HadoopVersion string `json:"hadoop_version" yaml:"hadoop_version"`
	HadoopBin     string `json:"hadoop_bin" yaml:"hadoop_bin"`
	EdiskLocation string `json:"edisk_location" yaml:"edisk_location"`
	NeededSlaves  int    `json:"needed_slaves" yaml:"needed_slaves"`
	HDFSRPCPort   int    `json:"hdfs_rpc_port" yaml:"hdfs_rpc_port"`

	// Object storage
	GSBucket string `json:"gs_bucket" yaml:"gs_bucket"`
}

// Default returns a Config with the same defaults as
// original_source/cfg.py's Config.__init__.
func Default() *Config {
	return &Config{
		Port:             DefaultPort,
		IPViaAPI:         true,
		PollDelay:        2 * time.Second,
		DownloadAttempts: 3,
		NumWorkers:       20,
		ExternalIPs:      true,
		HadoopURL:        "archive.apache.org/dist/hadoop/common",
		HadoopVersion:    "1.1.1",
		HadoopBin:        "/home/hadoop/hadoop/bin/",
		EdiskLocation:    "/mnt/hadoop",
		NeededSlaves:     3,
		HDFSRPCPort:      8020,
	}
}

func (c *Config) HadoopFn() string {
	return fmt.Sprintf("hadoop-%s", c.HadoopVersion)
}

func (c *Config) gsURL(object string) string {
	return fmt.Sprintf("gs://%s/%s", c.GSBucket, object)
}

func (c *Config) GSHadoopTarball() string      { return c.gsURL(c.HadoopFn() + ".tar.gz") }
func (c *Config) GSHadoopConf() string         { return c.gsURL("hadoop_conf.tgz") }
func (c *Config) GSCoordinatorTarball() string { return c.gsURL("coordinator-tarball.tgz") }
func (c *Config) GSSnitchTarball() string      { return c.gsURL("snitch-tarball.tgz") }
func (c *Config) GSToolsJar() string           { return c.gsURL("hadoop-tools.jar") }

// metadataBase is the GCE instance-metadata server root; overridden in
// tests.
var metadataBase = "http://metadata/0.1/meta-data/"

// FromInstanceMetadata populates c by querying the instance-metadata
// server, the coordinator's startup path (original_source/cfg.py's
// update_from_metadata). Only works when running on an instance.
func FromInstanceMetadata() (*Config, error) {
	c := Default()
	c.IPViaAPI = false

	get := func(key string) (string, error) {
		req, err := http.NewRequest(http.MethodGet, metadataBase+"attributes/"+key, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("Metadata-Flavor", "Google")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return "", errors.Wrapf(err, "metadata key %q", key)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(body)), nil
	}

	var err error
	if c.ProjectID, err = get("project-id"); err != nil {
		return nil, err
	}
	if c.Secret, err = get("secret"); err != nil {
		return nil, err
	}
	if c.Zone, err = get("zone"); err != nil {
		return nil, err
	}
	if c.MachineType, err = get("machine_type"); err != nil {
		return nil, err
	}
	if c.Image, err = get("image"); err != nil {
		return nil, err
	}
	c.Disk, _ = get("disk")
	c.RWDiskInstance, _ = get("rw_disk_instance")
	bucket, err := get("gs_bucket")
	if err != nil {
		return nil, err
	}
	c.GSBucket = bucket
	return c, nil
}

// FromYAMLFile loads tool-local config (project, bucket, secret) for
// hdctl, which has no metadata server to query.
func FromYAMLFile(path string) (*Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return c, nil
}

// AgentURL builds the https://host:port/path URL AgentClient and hdctl
// both use to reach the coordinator or a snitch.
func (c *Config) AgentURL(host, path string) string {
	u := url.URL{Scheme: "https", Host: fmt.Sprintf("%s:%d", host, c.Port), Path: path}
	return u.String()
}

// NameNodeRPCAddr builds the host:port the HDFS client dials, given the
// NameNode's resolved host (bare name or NAT IP, per IPViaAPI).
func (c *Config) NameNodeRPCAddr(host string) string {
	return fmt.Sprintf("%s:%d", host, c.HDFSRPCPort)
}
