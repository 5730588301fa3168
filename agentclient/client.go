// Package agentclient is the coordinator's HTTPS JSON-POST client to
// in-VM snitches (hdctl reaches the coordinator with its own client). It
// resolves name -> IP through InstanceAPI when running inside the
// cluster's private network, and never verifies the snitch's TLS
// certificate (spec.md §4.3: self-signed snakeoil certs).
package agentclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/gce-tools/hadoop-coordinator/cmn"
	"github.com/gce-tools/hadoop-coordinator/iaas"
)

const timeout = 5 * time.Second

// Resolver maps an instance name to the address AgentClient should dial:
// its NAT IP (coordinator running inside the cluster's network) or the
// bare name (DNS resolves it otherwise).
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// apiResolver looks the IP up via InstanceAPI.Get and caches it forever;
// writes are idempotent (same name -> same IP) so the lock-free map
// access spec.md §5(b) describes is safe.
type apiResolver struct {
	api   iaas.InstanceAPI
	zone  string
	cache sync.Map // name -> string
}

func (r *apiResolver) Resolve(ctx context.Context, name string) (string, error) {
	if v, ok := r.cache.Load(name); ok {
		return v.(string), nil
	}
	inst, err := r.api.Get(ctx, r.zone, name)
	if err != nil {
		return "", err
	}
	if len(inst.NetworkInterfaces) == 0 || len(inst.NetworkInterfaces[0].AccessConfigs) == 0 {
		return "", fmt.Errorf("%s: no external access config", name)
	}
	ip := inst.NetworkInterfaces[0].AccessConfigs[0].NatIP
	r.cache.Store(name, ip)
	return ip, nil
}

// dnsResolver passes the instance name straight through, relying on the
// cluster's internal DNS (used when the coordinator itself runs outside
// the private network, i.e. cfg.IPViaAPI == false).
type dnsResolver struct{}

func (dnsResolver) Resolve(_ context.Context, name string) (string, error) { return name, nil }

// Client talks to snitches.
type Client struct {
	cfg      *cmn.Config
	resolver Resolver
	http     *fasthttp.Client
}

func New(cfg *cmn.Config, api iaas.InstanceAPI) *Client {
	var r Resolver
	if cfg.IPViaAPI {
		r = &apiResolver{api: api, zone: cfg.Zone}
	} else {
		r = dnsResolver{}
	}
	return &Client{
		cfg:      cfg,
		resolver: r,
		http: &fasthttp.Client{
			TLSConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // spec.md §1: shared secret over TLS, peer cert not verified
		},
	}
}

// Get issues an unauthenticated GET (used for /status polling) and
// returns the decoded JSON reply, or nil on any network/TLS/parse error
// (spec.md §4.3: callers distinguish nil from a well-formed reply).
func (c *Client) Get(ctx context.Context, address, path string) map[string]interface{} {
	url := c.cfg.AgentURL(address, path)
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	if err := c.do(req, resp); err != nil {
		glog.V(2).Infof("GET %s: %v", url, err)
		return nil
	}
	return decode(resp.Body())
}

// Post issues a form-urlencoded POST with JSON values inlined as strings
// (spec.md §4.3), returning nil on any failure.
func (c *Client) Post(ctx context.Context, address, path string, data map[string]interface{}) map[string]interface{} {
	reqURL := c.cfg.AgentURL(address, path)
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(reqURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.SetBody(encodeForm(data))

	if err := c.do(req, resp); err != nil {
		glog.V(2).Infof("POST %s: %v", reqURL, err)
		return nil
	}
	return decode(resp.Body())
}

func (c *Client) do(req *fasthttp.Request, resp *fasthttp.Response) error {
	return c.http.DoTimeout(req, resp, timeout)
}

// ResolveAddr exposes the client's name resolution so callers that need
// a bare host (rather than an HTTP reply), like hdfsinfo's namenode RPC
// dial, can reuse the same IPViaAPI/DNS policy.
func (c *Client) ResolveAddr(ctx context.Context, name string) (string, error) {
	return c.resolver.Resolve(ctx, name)
}

// GetByName resolves name to an address and GETs it, mirroring PostByName
// (spec.md §4.3's name_to_ip(name) if cfg.ip_via_api).
func (c *Client) GetByName(ctx context.Context, name, path string) map[string]interface{} {
	addr, err := c.resolver.Resolve(ctx, name)
	if err != nil {
		glog.Warningf("resolve %s: %v", name, err)
		return nil
	}
	return c.Get(ctx, addr, path)
}

// PostByName resolves name to an address and POSTs to it.
func (c *Client) PostByName(ctx context.Context, name, path string, data map[string]interface{}) map[string]interface{} {
	addr, err := c.resolver.Resolve(ctx, name)
	if err != nil {
		glog.Warningf("resolve %s: %v", name, err)
		return nil
	}
	return c.Post(ctx, addr, path, data)
}

// CheckedPost wraps PostByName and raises cmn.ErrRemoteCallFailed unless
// the reply's "result" field is "ok".
func (c *Client) CheckedPost(ctx context.Context, name, path string, data map[string]interface{}) error {
	result := c.PostByName(ctx, name, path, data)
	if result == nil || result["result"] != "ok" {
		return &cmn.ErrRemoteCallFailed{Who: name, Path: path, Body: fmt.Sprintf("%v", result)}
	}
	return nil
}

func decode(body []byte) map[string]interface{} {
	var out map[string]interface{}
	if err := cmn.JSON.Unmarshal(body, &out); err != nil {
		return nil
	}
	return out
}

func encodeForm(data map[string]interface{}) []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	values := url.Values{}
	for k, v := range data {
		switch vv := v.(type) {
		case string:
			values.Set(k, vv)
		default:
			b, _ := cmn.JSON.Marshal(v)
			values.Set(k, string(b))
		}
	}
	buf.WriteString(values.Encode())
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out
}
