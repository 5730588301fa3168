package control

import (
	"net"
	"net/http"

	"github.com/golang/glog"
)

var internalPrefix = net.IPNet{
	IP:   net.IPv4(10, 0, 0, 0),
	Mask: net.CIDRMask(8, 32),
}

// authPublic enforces the shared-secret form field spec.md §4.7
// requires on every public endpoint except /status. Logs the remote
// address and path on failure, never the attempted secret.
func (s *Server) authPublic(r *http.Request) bool {
	secret := r.FormValue("secret")
	if secret != "" && secret == s.cfg.Secret {
		return true
	}
	glog.Warningf("unauthorized: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
	return false
}

// authInternal enforces the 10.0.0.0/8 source-IP check spec.md §4.7
// requires on snitch push endpoints.
func (s *Server) authInternal(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	if ip != nil && internalPrefix.Contains(ip) {
		return true
	}
	glog.Warningf("unauthorized internal call: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
	return false
}
