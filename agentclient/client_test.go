package agentclient

import (
	"context"
	"net/url"
	"testing"

	compute "google.golang.org/api/compute/v1"

	"github.com/gce-tools/hadoop-coordinator/cmn"
	"github.com/gce-tools/hadoop-coordinator/iaas"
)

func TestEncodeFormStringsPassThrough(t *testing.T) {
	body := encodeForm(map[string]interface{}{"src": "/hdfs/x"})
	values, err := url.ParseQuery(string(body))
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if got := values.Get("src"); got != "/hdfs/x" {
		t.Fatalf("src = %q, want /hdfs/x", got)
	}
}

// TestEncodeFormNonStringsAreJSON covers spec.md §4.3: non-string
// values are inlined as their JSON encoding, not Go's %v formatting.
func TestEncodeFormNonStringsAreJSON(t *testing.T) {
	body := encodeForm(map[string]interface{}{"job_args": []string{"a", "b"}})
	values, err := url.ParseQuery(string(body))
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if got, want := values.Get("job_args"), `["a","b"]`; got != want {
		t.Fatalf("job_args = %q, want %q", got, want)
	}
}

func TestDecodeValidJSON(t *testing.T) {
	out := decode([]byte(`{"state":"READY"}`))
	if out == nil || out["state"] != "READY" {
		t.Fatalf("decode() = %v", out)
	}
}

func TestDecodeInvalidJSONReturnsNil(t *testing.T) {
	if out := decode([]byte(`not json`)); out != nil {
		t.Fatalf("decode() = %v, want nil", out)
	}
}

func TestDNSResolverPassesNameThrough(t *testing.T) {
	addr, err := dnsResolver{}.Resolve(nil, "hadoop-namenode")
	if err != nil || addr != "hadoop-namenode" {
		t.Fatalf("Resolve() = %q, %v", addr, err)
	}
}

// noInstanceAPI has no instances registered, so apiResolver.Resolve
// always fails to find a NAT IP.
type noInstanceAPI struct{}

func (noInstanceAPI) Insert(context.Context, string, *compute.Instance) (*compute.Operation, error) {
	return nil, nil
}
func (noInstanceAPI) Delete(context.Context, string, string) (*compute.Operation, error) {
	return nil, nil
}
func (noInstanceAPI) Get(context.Context, string, string) (*compute.Instance, error) {
	return nil, iaas.ErrNotFound
}
func (noInstanceAPI) List(context.Context, string) ([]*compute.Instance, error) { return nil, nil }

// TestGetByNameUsesResolver covers the regression where probeAgent
// dialed the bare instance name instead of going through the same
// name->address resolution PostByName uses: with IPViaAPI set and no
// resolvable instance, GetByName must fail to resolve (and so return
// nil) rather than silently falling back to treating name as the
// address.
func TestGetByNameUsesResolver(t *testing.T) {
	cfg := cmn.Default()
	cfg.IPViaAPI = true
	c := New(cfg, noInstanceAPI{})

	if got := c.GetByName(context.Background(), "hadoop-namenode", "/status"); got != nil {
		t.Fatalf("GetByName() = %v, want nil when the resolver can't find an address", got)
	}
}
