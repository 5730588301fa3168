// Package iaas defines the coordinator's narrow view of the IaaS compute
// API. Per spec.md §1(a), the client library itself is out of scope: this
// package pins down the opaque InstanceAPI boundary and the request
// shapes VMFactory builds, using the real GCE client's wire types
// (google.golang.org/api/compute/v1), plus one thin compute/v1-backed
// InstanceAPI (gce.go) that the coordinator binary wires in.
package iaas

import (
	"context"

	compute "google.golang.org/api/compute/v1"
)

// InstanceAPI is the only IaaS surface the coordinator is allowed to call.
// The production implementation is NewComputeClient (gce.go); tests
// substitute an in-memory fake.
type InstanceAPI interface {
	Insert(ctx context.Context, zone string, inst *compute.Instance) (*compute.Operation, error)
	Delete(ctx context.Context, zone, name string) (*compute.Operation, error)
	Get(ctx context.Context, zone, name string) (*compute.Instance, error)
	List(ctx context.Context, zone string) ([]*compute.Instance, error)
}

// ErrNotFound is returned by Get when the instance doesn't exist, the
// signal get_status()/monitor_instance() treat as InstanceState
// NON_EXISTENT.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "instance not found" }
