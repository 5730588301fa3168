package orchestrator

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/gce-tools/hadoop-coordinator/cmn"
)

// forkHadoopMonitor launches the detached Java HadoopMonitor process that
// pushes periodic telemetry to /hadoop/status_update (spec.md §4.6.2,
// §5: "long-running [subprocesses] are fully detached with output
// redirected to a log file"). The coordinator never waits on it and
// never inspects its exit status; a monitor that dies simply stops
// updating latest_data.
func forkHadoopMonitor(cfg *cmn.Config) {
	logPath := filepath.Join(os.TempDir(), "hadoop-monitor.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		glog.Warningf("fork HadoopMonitor: open log: %v", err)
		return
	}

	cmd := exec.Command(
		filepath.Join(cfg.HadoopBin, "..", "bin", "java"),
		"-cp", cfg.GSToolsJar(),
		"HadoopMonitor",
		fmt.Sprintf("--coordinator=https://%s:%d", cmn.Coordinator, cfg.Port),
		fmt.Sprintf("--secret=%s", cfg.Secret),
	)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		glog.Warningf("fork HadoopMonitor: %v", err)
		logFile.Close()
		return
	}
	go func() {
		_ = cmd.Wait()
		logFile.Close()
	}()
}
