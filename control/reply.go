package control

import (
	"net/http"

	"github.com/golang/glog"

	"github.com/gce-tools/hadoop-coordinator/cmn"
)

// writeJSON writes v as a single JSON line, matching spec.md §4.7
// ("Responses are JSON lines terminated by \n").
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	b, err := cmn.JSON.Marshal(v)
	if err != nil {
		glog.Errorf("marshal reply: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Write(b)
	w.Write([]byte("\n"))
}

func ok(w http.ResponseWriter)     { writeJSON(w, map[string]string{"result": "ok"}) }
func failed(w http.ResponseWriter) { writeJSON(w, map[string]string{"result": "failed"}) }

func unauthorized(w http.ResponseWriter) {
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// internalError reports a handler panic or unexpected error as HTTP 500
// without ever leaking the secret or an internal path (spec.md §4.7).
func internalError(w http.ResponseWriter) {
	http.Error(w, "internal error", http.StatusInternalServerError)
}
