// Package control is the REST control plane: it authorizes requests
// (shared secret or internal source IP, spec.md §4.7), parses their
// bodies, and delegates to the orchestrator. Grounded on the shape of
// the teacher's daemon HTTP server (TLS net/http.Server with explicit
// per-route registration) before that file was trimmed down to this
// package's narrower surface.
package control

import (
	"context"
	"crypto/tls"
	"net/http"
	"strconv"

	"github.com/golang/glog"

	"github.com/gce-tools/hadoop-coordinator/cmn"
	"github.com/gce-tools/hadoop-coordinator/metrics"
	"github.com/gce-tools/hadoop-coordinator/orchestrator"
)

// Server is the coordinator's REST endpoint, serving both the public
// surface (CLI tools, shared secret) and the internal surface (snitch
// pushes, source-IP gated).
type Server struct {
	cfg               *cmn.Config
	orch              *orchestrator.Orchestrator
	m                 *metrics.Metrics
	http              *http.Server
	certFile, keyFile string
}

func New(cfg *cmn.Config, orch *orchestrator.Orchestrator, m *metrics.Metrics, certFile, keyFile string) *Server {
	s := &Server{cfg: cfg, orch: orch, m: m, certFile: certFile, keyFile: keyFile}
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.http = &http.Server{
		Addr:      cmn.Coordinator + ":" + strconv.Itoa(cfg.Port),
		Handler:   mux,
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	}
	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/hadoop/launch", s.withPublicAuth(s.handleLaunch))
	mux.HandleFunc("/hadoop/add_slaves", s.withPublicAuth(s.handleAddSlaves))
	mux.HandleFunc("/hadoop/teardown", s.withPublicAuth(s.handleTeardown))
	mux.HandleFunc("/transfer", s.withPublicAuth(s.handleTransfer))
	mux.HandleFunc("/job/clean", s.withPublicAuth(s.handleJobClean))
	mux.HandleFunc("/job/submit", s.withPublicAuth(s.handleJobSubmit))
	mux.HandleFunc("/status/cluster", s.withPublicAuth(s.handleStatusCluster))
	mux.HandleFunc("/status/op/", s.withPublicAuth(s.handleStatusOp))

	mux.HandleFunc("/hadoop/status_update", s.withInternalAuth(s.handleStatusUpdate))
	mux.HandleFunc("/instance/report_fail", s.withInternalAuth(s.handleReportFail))
	mux.HandleFunc("/instance/op_status", s.withInternalAuth(s.handleOpStatus))

	mux.Handle("/metrics", s.m.Handler())
}

// withPublicAuth wraps h with the shared-secret check and a panic
// recovery boundary so a handler bug surfaces as HTTP 500, never a
// crashed server (spec.md §4.7).
func (s *Server) withPublicAuth(h http.HandlerFunc) http.HandlerFunc {
	return s.recoverable(func(w http.ResponseWriter, r *http.Request) {
		if !s.authPublic(r) {
			unauthorized(w)
			return
		}
		h(w, r)
	})
}

func (s *Server) withInternalAuth(h http.HandlerFunc) http.HandlerFunc {
	return s.recoverable(func(w http.ResponseWriter, r *http.Request) {
		if !s.authInternal(r) {
			unauthorized(w)
			return
		}
		h(w, r)
	})
}

func (s *Server) recoverable(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				glog.Errorf("handler panic: %s %s: %v", r.Method, r.URL.Path, rec)
				internalError(w)
			}
		}()
		h(w, r)
	}
}

// ListenAndServeTLS blocks serving HTTPS until ctx is cancelled.
func (s *Server) ListenAndServeTLS(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.http.Shutdown(context.Background())
	}()
	err := s.http.ListenAndServeTLS(s.certFile, s.keyFile)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
