package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/platformbuilds/mirador-pcap/internal/controlplane"
	"github.com/platformbuilds/mirador-pcap/internal/models"
)

const (
	testSub       = "00000000-0000-0000-0000-000000000001"
	testVMID      = "/subscriptions/" + testSub + "/resourceGroups/app-rg/providers/Microsoft.Compute/virtualMachines/web-01"
	testStorageID = "/subscriptions/" + testSub + "/resourceGroups/ops-rg/providers/Microsoft.Storage/storageAccounts/pcaps"
)

// fakeControlPlane is an in-memory control plane with per-operation failure injection.
type fakeControlPlane struct {
	mu sync.Mutex

	computes   map[string]*models.ComputeTarget
	storages   map[string]*models.StorageTarget
	groups     map[string]*models.ResourceGroup
	endpoints  []models.DiagnosticsEndpoint
	extensions map[string][]models.AgentDescriptor
	captures   map[string][]models.CaptureRecord // by watcher name
	statuses   map[string]time.Time              // start time by capture name

	fail  map[string]error
	calls map[string]int
	log   []string
}

func newFakeControlPlane() *fakeControlPlane {
	return &fakeControlPlane{
		computes: map[string]*models.ComputeTarget{
			testVMID: {ID: testVMID, Name: "web-01", ResourceGroup: "app-rg", Region: "eastus", OSType: models.OSTypeLinux},
		},
		storages: map[string]*models.StorageTarget{
			testStorageID: {ID: testStorageID, Name: "pcaps"},
		},
		groups:     map[string]*models.ResourceGroup{},
		extensions: map[string][]models.AgentDescriptor{},
		captures:   map[string][]models.CaptureRecord{},
		statuses:   map[string]time.Time{},
		fail:       map[string]error{},
		calls:      map[string]int{},
	}
}

func (f *fakeControlPlane) record(op string, detail ...string) error {
	f.calls[op]++
	f.log = append(f.log, strings.TrimSpace(op+" "+strings.Join(detail, " ")))
	return f.fail[op]
}

func (f *fakeControlPlane) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeControlPlane) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, op := range []string{"CreateResourceGroup", "CreateEndpoint", "AttachExtension", "DeleteCapture", "CreateCapture"} {
		n += f.calls[op]
	}
	return n
}

func (f *fakeControlPlane) addWatcher(name, region string) models.DiagnosticsEndpoint {
	ep := models.DiagnosticsEndpoint{
		ID:            "/subscriptions/" + testSub + "/resourceGroups/NetworkWatcherRG/providers/Microsoft.Network/networkWatchers/" + name,
		Name:          name,
		Region:        region,
		ResourceGroup: "NetworkWatcherRG",
	}
	f.endpoints = append(f.endpoints, ep)
	return ep
}

func (f *fakeControlPlane) addCapture(watcher, name string, start time.Time) {
	f.captures[watcher] = append(f.captures[watcher], models.CaptureRecord{Name: name, StartTime: start, TargetID: testVMID})
	f.statuses[name] = start
}

func (f *fakeControlPlane) captureNames(watcher string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.captures[watcher]))
	for _, c := range f.captures[watcher] {
		names = append(names, c.Name)
	}
	return names
}

func (f *fakeControlPlane) GetComputeByID(_ context.Context, id string) (*models.ComputeTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetComputeByID", id); err != nil {
		return nil, err
	}
	c, ok := f.computes[id]
	if !ok {
		return nil, fmt.Errorf("virtual machine %s: %w", id, controlplane.ErrNotFound)
	}
	return c, nil
}

func (f *fakeControlPlane) GetStorageByID(_ context.Context, id string) (*models.StorageTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetStorageByID", id); err != nil {
		return nil, err
	}
	s, ok := f.storages[id]
	if !ok {
		return nil, fmt.Errorf("storage account %s: %w", id, controlplane.ErrNotFound)
	}
	return s, nil
}

func (f *fakeControlPlane) ListEndpoints(context.Context) ([]models.DiagnosticsEndpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListEndpoints"); err != nil {
		return nil, err
	}
	return append([]models.DiagnosticsEndpoint(nil), f.endpoints...), nil
}

func (f *fakeControlPlane) GetResourceGroup(_ context.Context, name string) (*models.ResourceGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetResourceGroup", name); err != nil {
		return nil, err
	}
	g, ok := f.groups[name]
	if !ok {
		return nil, fmt.Errorf("resource group %s: %w", name, controlplane.ErrNotFound)
	}
	return g, nil
}

func (f *fakeControlPlane) CreateResourceGroup(_ context.Context, name, region string) (*models.ResourceGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateResourceGroup", name, region); err != nil {
		return nil, err
	}
	g := &models.ResourceGroup{Name: name, Region: region}
	f.groups[name] = g
	return g, nil
}

func (f *fakeControlPlane) CreateEndpoint(_ context.Context, name, region, group string) (*models.DiagnosticsEndpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateEndpoint", name, region, group); err != nil {
		return nil, err
	}
	ep := f.addWatcher(name, region)
	ep.ResourceGroup = group
	f.endpoints[len(f.endpoints)-1] = ep
	return &ep, nil
}

func (f *fakeControlPlane) ListExtensions(_ context.Context, computeID string) ([]models.AgentDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListExtensions", computeID); err != nil {
		return nil, err
	}
	return append([]models.AgentDescriptor(nil), f.extensions[computeID]...), nil
}

func (f *fakeControlPlane) AttachExtension(_ context.Context, computeID string, agent models.AgentDescriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AttachExtension", computeID, agent.Type); err != nil {
		return err
	}
	f.extensions[computeID] = append(f.extensions[computeID], agent)
	return nil
}

func (f *fakeControlPlane) ListCaptures(_ context.Context, ep models.DiagnosticsEndpoint) ([]models.CaptureRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListCaptures", ep.Name); err != nil {
		return nil, err
	}
	return append([]models.CaptureRecord(nil), f.captures[ep.Name]...), nil
}

func (f *fakeControlPlane) GetCaptureStatus(_ context.Context, ep models.DiagnosticsEndpoint, name string) (*models.CaptureStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetCaptureStatus", name); err != nil {
		return nil, err
	}
	if err := f.fail["GetCaptureStatus:"+name]; err != nil {
		return nil, err
	}
	return &models.CaptureStatus{Name: name, StartTime: f.statuses[name], State: "Running"}, nil
}

func (f *fakeControlPlane) DeleteCapture(_ context.Context, ep models.DiagnosticsEndpoint, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteCapture", name); err != nil {
		return err
	}
	kept := f.captures[ep.Name][:0]
	for _, c := range f.captures[ep.Name] {
		if c.Name != name {
			kept = append(kept, c)
		}
	}
	f.captures[ep.Name] = kept
	return nil
}

func (f *fakeControlPlane) CreateCapture(_ context.Context, ep models.DiagnosticsEndpoint, req models.CaptureRequest) (*models.CaptureRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateCapture", req.Name); err != nil {
		return nil, err
	}
	rec := models.CaptureRecord{
		Name:             req.Name,
		TargetID:         req.TargetID,
		StorageID:        req.StorageID,
		TimeLimitSeconds: req.TimeLimitSeconds,
		State:            "Running",
	}
	f.captures[ep.Name] = append(f.captures[ep.Name], rec)
	return &rec, nil
}

// mockControlPlane is a testify mock for call-level assertions.
type mockControlPlane struct {
	mock.Mock
}

func (m *mockControlPlane) GetComputeByID(ctx context.Context, id string) (*models.ComputeTarget, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.ComputeTarget), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockControlPlane) GetStorageByID(ctx context.Context, id string) (*models.StorageTarget, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.StorageTarget), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockControlPlane) ListEndpoints(ctx context.Context) ([]models.DiagnosticsEndpoint, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]models.DiagnosticsEndpoint), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockControlPlane) GetResourceGroup(ctx context.Context, name string) (*models.ResourceGroup, error) {
	args := m.Called(ctx, name)
	if v := args.Get(0); v != nil {
		return v.(*models.ResourceGroup), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockControlPlane) CreateResourceGroup(ctx context.Context, name, region string) (*models.ResourceGroup, error) {
	args := m.Called(ctx, name, region)
	if v := args.Get(0); v != nil {
		return v.(*models.ResourceGroup), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockControlPlane) CreateEndpoint(ctx context.Context, name, region, group string) (*models.DiagnosticsEndpoint, error) {
	args := m.Called(ctx, name, region, group)
	if v := args.Get(0); v != nil {
		return v.(*models.DiagnosticsEndpoint), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockControlPlane) ListExtensions(ctx context.Context, computeID string) ([]models.AgentDescriptor, error) {
	args := m.Called(ctx, computeID)
	if v := args.Get(0); v != nil {
		return v.([]models.AgentDescriptor), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockControlPlane) AttachExtension(ctx context.Context, computeID string, agent models.AgentDescriptor) error {
	return m.Called(ctx, computeID, agent).Error(0)
}

func (m *mockControlPlane) ListCaptures(ctx context.Context, ep models.DiagnosticsEndpoint) ([]models.CaptureRecord, error) {
	args := m.Called(ctx, ep)
	if v := args.Get(0); v != nil {
		return v.([]models.CaptureRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockControlPlane) GetCaptureStatus(ctx context.Context, ep models.DiagnosticsEndpoint, name string) (*models.CaptureStatus, error) {
	args := m.Called(ctx, ep, name)
	if v := args.Get(0); v != nil {
		return v.(*models.CaptureStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockControlPlane) DeleteCapture(ctx context.Context, ep models.DiagnosticsEndpoint, name string) error {
	return m.Called(ctx, ep, name).Error(0)
}

func (m *mockControlPlane) CreateCapture(ctx context.Context, ep models.DiagnosticsEndpoint, req models.CaptureRequest) (*models.CaptureRecord, error) {
	args := m.Called(ctx, ep, req)
	if v := args.Get(0); v != nil {
		return v.(*models.CaptureRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

var (
	_ controlplane.ControlPlane = (*fakeControlPlane)(nil)
	_ controlplane.ControlPlane = (*mockControlPlane)(nil)
)
