package orchestrator

import (
	"context"
	"sync"

	compute "google.golang.org/api/compute/v1"

	"github.com/gce-tools/hadoop-coordinator/iaas"
)

// fakeAPI is an in-memory InstanceAPI test double: Insert always
// succeeds and records the instance as RUNNING immediately, matching a
// fast-booting test fixture rather than a real IaaS's PROVISIONING ->
// STAGING -> RUNNING lag.
type fakeAPI struct {
	mu        sync.Mutex
	instances map[string]*compute.Instance
	failNext  map[string]bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{instances: make(map[string]*compute.Instance), failNext: make(map[string]bool)}
}

func (f *fakeAPI) Insert(_ context.Context, _ string, inst *compute.Instance) (*compute.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext[inst.Name] {
		return &compute.Operation{Error: &compute.OperationError{Errors: []*compute.OperationErrorErrors{{Message: "quota exceeded"}}}}, nil
	}
	cp := *inst
	cp.Status = "RUNNING"
	f.instances[inst.Name] = &cp
	return &compute.Operation{}, nil
}

func (f *fakeAPI) Delete(_ context.Context, _, name string) (*compute.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.instances, name)
	return &compute.Operation{}, nil
}

func (f *fakeAPI) Get(_ context.Context, _, name string) (*compute.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.instances[name]
	if !ok {
		return nil, iaas.ErrNotFound
	}
	return inst, nil
}

func (f *fakeAPI) List(_ context.Context, _ string) ([]*compute.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*compute.Instance, 0, len(f.instances))
	for _, inst := range f.instances {
		out = append(out, inst)
	}
	return out, nil
}

func (f *fakeAPI) setWillFail(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[name] = true
}
