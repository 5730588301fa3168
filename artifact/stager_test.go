package artifact

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func TestTarDirRoundTrips(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "core-site.xml"), []byte("<configuration/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(src, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "sub", "mapred-site.xml"), []byte("<configuration/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "conf.tgz")
	if err := tarDir(src, dest); err != nil {
		t.Fatalf("tarDir: %v", err)
	}

	f, err := os.Open(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip read: %v", err)
	}
	tr := tar.NewReader(gr)
	got := map[string]bool{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar read: %v", err)
		}
		got[hdr.Name] = true
	}
	for _, want := range []string{"core-site.xml", filepath.Join("sub", "mapred-site.xml")} {
		if !got[want] {
			t.Errorf("tarball missing %q, got %v", want, got)
		}
	}
}

func TestTarDirMissingSourceErrors(t *testing.T) {
	if err := tarDir(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "out.tgz")); err == nil {
		t.Fatal("expected an error for a nonexistent source directory")
	}
}

// TestRetryDownloadExhaustsAttempts covers spec.md §7's retry_call
// shape: when the command always fails, retryDownload returns an error
// once its attempts are used up.
func TestRetryDownloadExhaustsAttempts(t *testing.T) {
	dir := t.TempDir()
	oldPath := os.Getenv("PATH")
	installFakeWget(t, dir, 1) // always exits nonzero
	os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath)
	defer os.Setenv("PATH", oldPath)

	err := retryDownload(context.Background(), 3, time.Millisecond, "https://example.invalid/x", filepath.Join(t.TempDir(), "x"))
	if err == nil {
		t.Fatal("expected an error after exhausting download attempts")
	}
}

func TestRetryDownloadSucceedsWithoutExhausting(t *testing.T) {
	dir := t.TempDir()
	oldPath := os.Getenv("PATH")
	installFakeWget(t, dir, 0) // always exits zero
	os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath)
	defer os.Setenv("PATH", oldPath)

	err := retryDownload(context.Background(), 3, time.Millisecond, "https://example.invalid/x", filepath.Join(t.TempDir(), "x"))
	if err != nil {
		t.Fatalf("retryDownload: %v", err)
	}
}

// installFakeWget drops a script named wget on dir, ahead of the real
// one on PATH, so the test never performs a real network fetch.
func installFakeWget(t *testing.T, dir string, exitCode int) {
	t.Helper()
	script := "#!/bin/sh\nexit " + strconv.Itoa(exitCode) + "\n"
	path := filepath.Join(dir, "wget")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
}
