package monitoring

import (
	"context"
	"time"

	"github.com/platformbuilds/mirador-pcap/internal/controlplane"
	"github.com/platformbuilds/mirador-pcap/internal/models"
)

// InstrumentControlPlane wraps cp so every call is timed and counted.
func InstrumentControlPlane(cp controlplane.ControlPlane) controlplane.ControlPlane {
	if cp == nil {
		return nil
	}
	if _, ok := cp.(*instrumentedControlPlane); ok {
		return cp
	}
	return &instrumentedControlPlane{next: cp}
}

// InstrumentAuthenticator wraps auth so the login call and the control
// planes it returns are instrumented.
func InstrumentAuthenticator(auth controlplane.Authenticator) controlplane.Authenticator {
	return controlplane.AuthenticatorFunc(func(ctx context.Context, creds controlplane.Credentials, subscriptionID string) (controlplane.ControlPlane, error) {
		start := time.Now()
		cp, err := auth.Authenticate(ctx, creds, subscriptionID)
		RecordRemoteCall("authenticate", time.Since(start), err)
		if err != nil {
			return nil, err
		}
		return InstrumentControlPlane(cp), nil
	})
}

type instrumentedControlPlane struct {
	next controlplane.ControlPlane
}

func (i *instrumentedControlPlane) GetComputeByID(ctx context.Context, id string) (*models.ComputeTarget, error) {
	start := time.Now()
	out, err := i.next.GetComputeByID(ctx, id)
	RecordRemoteCall("get_compute", time.Since(start), err)
	return out, err
}

func (i *instrumentedControlPlane) GetStorageByID(ctx context.Context, id string) (*models.StorageTarget, error) {
	start := time.Now()
	out, err := i.next.GetStorageByID(ctx, id)
	RecordRemoteCall("get_storage", time.Since(start), err)
	return out, err
}

func (i *instrumentedControlPlane) ListEndpoints(ctx context.Context) ([]models.DiagnosticsEndpoint, error) {
	start := time.Now()
	out, err := i.next.ListEndpoints(ctx)
	RecordRemoteCall("list_watchers", time.Since(start), err)
	return out, err
}

func (i *instrumentedControlPlane) GetResourceGroup(ctx context.Context, name string) (*models.ResourceGroup, error) {
	start := time.Now()
	out, err := i.next.GetResourceGroup(ctx, name)
	RecordRemoteCall("get_resource_group", time.Since(start), err)
	return out, err
}

func (i *instrumentedControlPlane) CreateResourceGroup(ctx context.Context, name, region string) (*models.ResourceGroup, error) {
	start := time.Now()
	out, err := i.next.CreateResourceGroup(ctx, name, region)
	RecordRemoteCall("create_resource_group", time.Since(start), err)
	return out, err
}

func (i *instrumentedControlPlane) CreateEndpoint(ctx context.Context, name, region, group string) (*models.DiagnosticsEndpoint, error) {
	start := time.Now()
	out, err := i.next.CreateEndpoint(ctx, name, region, group)
	RecordRemoteCall("create_watcher", time.Since(start), err)
	return out, err
}

func (i *instrumentedControlPlane) ListExtensions(ctx context.Context, computeID string) ([]models.AgentDescriptor, error) {
	start := time.Now()
	out, err := i.next.ListExtensions(ctx, computeID)
	RecordRemoteCall("list_extensions", time.Since(start), err)
	return out, err
}

func (i *instrumentedControlPlane) AttachExtension(ctx context.Context, computeID string, agent models.AgentDescriptor) error {
	start := time.Now()
	err := i.next.AttachExtension(ctx, computeID, agent)
	RecordRemoteCall("attach_extension", time.Since(start), err)
	return err
}

func (i *instrumentedControlPlane) ListCaptures(ctx context.Context, endpoint models.DiagnosticsEndpoint) ([]models.CaptureRecord, error) {
	start := time.Now()
	out, err := i.next.ListCaptures(ctx, endpoint)
	RecordRemoteCall("list_captures", time.Since(start), err)
	return out, err
}

func (i *instrumentedControlPlane) GetCaptureStatus(ctx context.Context, endpoint models.DiagnosticsEndpoint, name string) (*models.CaptureStatus, error) {
	start := time.Now()
	out, err := i.next.GetCaptureStatus(ctx, endpoint, name)
	RecordRemoteCall("get_capture_status", time.Since(start), err)
	return out, err
}

func (i *instrumentedControlPlane) DeleteCapture(ctx context.Context, endpoint models.DiagnosticsEndpoint, name string) error {
	start := time.Now()
	err := i.next.DeleteCapture(ctx, endpoint, name)
	RecordRemoteCall("delete_capture", time.Since(start), err)
	return err
}

func (i *instrumentedControlPlane) CreateCapture(ctx context.Context, endpoint models.DiagnosticsEndpoint, req models.CaptureRequest) (*models.CaptureRecord, error) {
	start := time.Now()
	out, err := i.next.CreateCapture(ctx, endpoint, req)
	RecordRemoteCall("create_capture", time.Since(start), err)
	return out, err
}
