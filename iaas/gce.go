package iaas

import (
	"context"

	"github.com/pkg/errors"
	compute "google.golang.org/api/compute/v1"
	"google.golang.org/api/googleapi"
)

// computeClient is the real InstanceAPI implementation, a thin
// application-default-credentials wrapper over compute/v1 — the one
// concrete thing this module is allowed to know about the IaaS client
// library itself (spec.md §1(a) keeps everything else opaque).
type computeClient struct {
	svc       *compute.InstancesService
	projectID string
}

// NewComputeClient builds the default InstanceAPI the coordinator binary
// wires in; tests use an in-memory fake instead.
func NewComputeClient(ctx context.Context, projectID string) (InstanceAPI, error) {
	svc, err := compute.NewService(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "new compute service")
	}
	return &computeClient{svc: compute.NewInstancesService(svc), projectID: projectID}, nil
}

func (c *computeClient) Insert(ctx context.Context, zone string, inst *compute.Instance) (*compute.Operation, error) {
	op, err := c.svc.Insert(c.projectID, zone, inst).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "insert %s", inst.Name)
	}
	return op, nil
}

func (c *computeClient) Delete(ctx context.Context, zone, name string) (*compute.Operation, error) {
	op, err := c.svc.Delete(c.projectID, zone, name).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "delete %s", name)
	}
	return op, nil
}

func (c *computeClient) Get(ctx context.Context, zone, name string) (*compute.Instance, error) {
	inst, err := c.svc.Get(c.projectID, zone, name).Context(ctx).Do()
	if err != nil {
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 404 {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get %s", name)
	}
	return inst, nil
}

func (c *computeClient) List(ctx context.Context, zone string) ([]*compute.Instance, error) {
	list, err := c.svc.List(c.projectID, zone).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "list zone %s", zone)
	}
	return list.Items, nil
}
