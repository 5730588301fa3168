package control

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gce-tools/hadoop-coordinator/cluster"
	"github.com/gce-tools/hadoop-coordinator/cmn"
)

// handleStatus is the unauthenticated liveness probe.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"state": "READY"})
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.FormValue("num_slaves"))
	if err != nil {
		failed(w)
		return
	}
	if s.orch.Launch(r.Context(), n) {
		ok(w)
		return
	}
	failed(w)
}

func (s *Server) handleAddSlaves(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.FormValue("num_slaves"))
	if err != nil {
		failed(w)
		return
	}
	if s.orch.AddSlaves(r.Context(), n) {
		ok(w)
		return
	}
	failed(w)
}

// handleTeardown is supplemental to spec.md §6's endpoint table (which
// specifies teardown's orchestrator-side behavior in §4.6.6 but not a
// wire endpoint); hdctl needs a way to trigger it remotely.
func (s *Server) handleTeardown(w http.ResponseWriter, r *http.Request) {
	s.orch.Teardown(r.Context())
	ok(w)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	src, dst := r.FormValue("src"), r.FormValue("dst")
	op, err := s.orch.Transfer(r.Context(), src, dst)
	if err != nil {
		failed(w)
		return
	}
	s.m.IncOperations()
	writeJSON(w, map[string]string{
		"result":    "ok",
		"operation": op.ID,
		"src":       op.Src,
		"dst":       op.Dst,
		"state":     op.State,
	})
}

func (s *Server) handleJobClean(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.CleanHDFS(r.Context(), r.FormValue("path")); err != nil {
		failed(w)
		return
	}
	ok(w)
}

func (s *Server) handleJobSubmit(w http.ResponseWriter, r *http.Request) {
	var jobArgs []string
	if raw := r.FormValue("job_args"); raw != "" {
		if err := cmn.JSON.UnmarshalFromString(raw, &jobArgs); err != nil {
			failed(w)
			return
		}
	}
	if err := s.orch.SubmitJob(r.Context(), r.FormValue("jar"), jobArgs); err != nil {
		failed(w)
		return
	}
	ok(w)
}

func (s *Server) handleStatusCluster(w http.ResponseWriter, r *http.Request) {
	snap := s.orch.Registry().Snapshot()
	instances := make(map[string][]string, len(snap.ByState))
	for _, st := range cluster.DescOrder {
		if names, ok := snap.ByState[st]; ok {
			instances[st.String()] = names
		}
	}
	data, staleness := s.orch.HadoopTelemetry()
	writeJSON(w, map[string]interface{}{
		"state":            snap.ClusterState.String(),
		"summary":          summary(snap),
		"instances":        instances,
		"errors":           snap.Errors,
		"operations":       s.orch.Operations().All(),
		"hadoop_data":      data,
		"hadoop_staleness": staleness.Seconds(),
	})
}

func summary(snap cluster.Snapshot) string {
	return snap.ClusterState.String() + ", live_slaves=" + strconv.Itoa(snap.LiveSlaves)
}

func (s *Server) handleStatusOp(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/status/op/")
	op, found := s.orch.Operations().Get(id)
	if !found {
		failed(w)
		return
	}
	writeJSON(w, op)
}

func (s *Server) handleStatusUpdate(w http.ResponseWriter, r *http.Request) {
	// latest_data is opaque to the coordinator (spec.md §9): it is only
	// ever surfaced back out, never parsed here.
	var data interface{}
	if raw := r.FormValue("data"); raw != "" {
		_ = cmn.JSON.UnmarshalFromString(raw, &data)
	}
	s.orch.ReportHadoopTelemetry(data)
	ok(w)
}

func (s *Server) handleReportFail(w http.ResponseWriter, r *http.Request) {
	s.orch.ReportInstanceFailure(r.FormValue("name"), r.FormValue("msg"))
	ok(w)
}

func (s *Server) handleOpStatus(w http.ResponseWriter, r *http.Request) {
	s.orch.ReportOpStatus(r.FormValue("operation"), r.FormValue("state"))
	ok(w)
}
