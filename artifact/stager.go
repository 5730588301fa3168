// Package artifact implements launch_sequence's staging steps: fetch the
// Hadoop tarball and upload it, build and upload a hadoop/conf tarball,
// and upload the tools jar, all ahead of master bring-up (spec.md
// §4.6.1 steps 1-3). The object-store and download legs are opaque
// subprocess boundaries per spec.md §1(b); the conf tarball is built
// in-process with archive/tar and karrick/godirwalk (grounded on
// original_source/coordinator/hadoop_cluster.py's launch_sequence,
// which shells out to `tar` for the same tree) so at least one staging
// step doesn't depend on a local `tar` binary being present.
package artifact

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/gce-tools/hadoop-coordinator/cmn"
)

// Stager runs the three launch_sequence staging steps concurrently
// (spec.md Q1: failures are logged but unguarded, never promoted to
// cluster BROKEN).
type Stager struct {
	cfg *cmn.Config
}

func NewStager(cfg *cmn.Config) *Stager { return &Stager{cfg: cfg} }

// Stage runs all three steps concurrently via errgroup and returns the
// first error, purely for logging; callers must not treat a non-nil
// return as fatal (Q1).
func (s *Stager) Stage(ctx context.Context, confDir string) error {
	// Each launch gets its own scratch subdirectory so a re-launch
	// racing a slow previous teardown never collides on a local path.
	scratch := filepath.Join(os.TempDir(), "hdcoord-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return errors.Wrapf(err, "create scratch dir %s", scratch)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.stageHadoopTarball(ctx, scratch) })
	g.Go(func() error { return s.stageConf(ctx, confDir, scratch) })
	g.Go(func() error { return s.stageToolsJar(ctx, scratch) })
	return g.Wait()
}

func (s *Stager) stageHadoopTarball(ctx context.Context, scratch string) error {
	url := fmt.Sprintf("https://%s/%s/%s.tar.gz", s.cfg.HadoopURL, s.cfg.HadoopVersion, s.cfg.HadoopFn())
	local := filepath.Join(scratch, s.cfg.HadoopFn()+".tar.gz")
	if err := retryDownload(ctx, s.cfg.DownloadAttempts, s.cfg.PollDelay, url, local); err != nil {
		glog.Warningf("stage hadoop tarball: %v", err)
		return err
	}
	return s.gsutilCp(ctx, local, s.cfg.GSHadoopTarball())
}

func (s *Stager) stageToolsJar(ctx context.Context, scratch string) error {
	// The jar itself is expected to already exist in the coordinator's
	// own unpacked tarball (spec.md §1(b): Hadoop binaries are opaque).
	local := filepath.Join(os.TempDir(), "hadoop-tools.jar")
	if _, err := os.Stat(local); err != nil {
		glog.Warningf("stage tools jar: %v", err)
		return err
	}
	return s.gsutilCp(ctx, local, s.cfg.GSToolsJar())
}

// stageConf walks confDir and writes it in-process into a gzip tarball,
// then uploads it, grounded on the same directory-walk idiom the
// teacher's devtools used karrick/godirwalk for.
func (s *Stager) stageConf(ctx context.Context, confDir, scratch string) error {
	local := filepath.Join(scratch, "hadoop_conf.tgz")
	if err := tarDir(confDir, local); err != nil {
		glog.Warningf("stage conf: %v", err)
		return err
	}
	logDigest("hadoop_conf.tgz", local)
	return s.gsutilCp(ctx, local, s.cfg.GSHadoopConf())
}

func tarDir(dir, destTarGz string) error {
	f, err := os.Create(destTarGz)
	if err != nil {
		return errors.Wrapf(err, "create %s", destTarGz)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	defer gw.Close()

	tw := tar.NewWriter(gw)
	defer tw.Close()

	err = godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: false,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			fi, err := os.Stat(path)
			if err != nil {
				return err
			}
			hdr, err := tar.FileInfoHeader(fi, "")
			if err != nil {
				return err
			}
			hdr.Name = rel
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			_, err = tw.Write(content)
			return err
		},
	})
	if err != nil {
		return errors.Wrapf(err, "walk %s", dir)
	}
	return nil
}

func logDigest(label, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	h := xxhash.New64()
	_, _ = h.Write(content)
	glog.Infof("%s digest %x (%d bytes)", label, h.Sum64(), len(content))
}

func (s *Stager) gsutilCp(ctx context.Context, local, remote string) error {
	cmd := exec.CommandContext(ctx, "gsutil", "cp", local, remote)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "gsutil cp %s %s: %s", local, remote, out)
	}
	return nil
}

// retryDownload mirrors retry_call from spec.md §7: DownloadAttempts
// tries of `wget`, sleeping PollDelay between failures, raising on
// exhaustion.
func retryDownload(ctx context.Context, attempts int, delay time.Duration, url, dest string) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		cmd := exec.CommandContext(ctx, "wget", "-O", dest, url)
		out, err := cmd.CombinedOutput()
		if err == nil {
			return nil
		}
		lastErr = errors.Wrapf(err, "wget %s: %s", url, out)
		glog.Warningf("download attempt %d/%d failed: %v", i+1, attempts, lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return errors.Wrapf(lastErr, "exhausted %d download attempts", attempts)
}
