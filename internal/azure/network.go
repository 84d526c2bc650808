package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v6"

	"github.com/platformbuilds/mirador-pcap/internal/models"
)

func (c *ControlPlane) watchers() (*armnetwork.WatchersClient, error) {
	client, err := armnetwork.NewWatchersClient(c.subscriptionID, c.cred, c.opts)
	if err != nil {
		return nil, fmt.Errorf("creating network watchers client: %w", err)
	}
	return client, nil
}

func (c *ControlPlane) captures() (*armnetwork.PacketCapturesClient, error) {
	client, err := armnetwork.NewPacketCapturesClient(c.subscriptionID, c.cred, c.opts)
	if err != nil {
		return nil, fmt.Errorf("creating packet captures client: %w", err)
	}
	return client, nil
}

// ListEndpoints returns every network watcher in the subscription.
func (c *ControlPlane) ListEndpoints(ctx context.Context) ([]models.DiagnosticsEndpoint, error) {
	client, err := c.watchers()
	if err != nil {
		return nil, err
	}

	var out []models.DiagnosticsEndpoint
	pager := client.NewListAllPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing network watchers: %w", classify(err))
		}
		for _, w := range page.Value {
			if w != nil {
				out = append(out, toEndpoint(w))
			}
		}
	}
	return out, nil
}

func (c *ControlPlane) CreateEndpoint(ctx context.Context, name, region, group string) (*models.DiagnosticsEndpoint, error) {
	client, err := c.watchers()
	if err != nil {
		return nil, err
	}

	resp, err := client.CreateOrUpdate(ctx, group, name, armnetwork.Watcher{Location: to.Ptr(region)}, nil)
	if err != nil {
		return nil, fmt.Errorf("creating network watcher %s: %w", name, classify(err))
	}

	ep := toEndpoint(&resp.Watcher)
	if ep.ResourceGroup == "" {
		ep.ResourceGroup = group
	}
	return &ep, nil
}

func (c *ControlPlane) ListCaptures(ctx context.Context, endpoint models.DiagnosticsEndpoint) ([]models.CaptureRecord, error) {
	client, err := c.captures()
	if err != nil {
		return nil, err
	}

	var out []models.CaptureRecord
	pager := client.NewListPager(endpoint.ResourceGroup, endpoint.Name, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing packet captures on %s: %w", endpoint.Name, classify(err))
		}
		for _, pc := range page.Value {
			if pc != nil {
				out = append(out, toCaptureRecord(pc))
			}
		}
	}
	return out, nil
}

func (c *ControlPlane) GetCaptureStatus(ctx context.Context, endpoint models.DiagnosticsEndpoint, name string) (*models.CaptureStatus, error) {
	client, err := c.captures()
	if err != nil {
		return nil, err
	}

	poller, err := client.BeginGetStatus(ctx, endpoint.ResourceGroup, endpoint.Name, name, nil)
	if err != nil {
		return nil, fmt.Errorf("querying status of packet capture %s: %w", name, classify(err))
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("waiting for status of packet capture %s: %w", name, classify(err))
	}

	return toCaptureStatus(name, &resp.PacketCaptureQueryStatusResult), nil
}

func (c *ControlPlane) DeleteCapture(ctx context.Context, endpoint models.DiagnosticsEndpoint, name string) error {
	client, err := c.captures()
	if err != nil {
		return err
	}

	poller, err := client.BeginDelete(ctx, endpoint.ResourceGroup, endpoint.Name, name, nil)
	if err != nil {
		return fmt.Errorf("deleting packet capture %s: %w", name, classify(err))
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("waiting for deletion of packet capture %s: %w", name, classify(err))
	}
	return nil
}

func (c *ControlPlane) CreateCapture(ctx context.Context, endpoint models.DiagnosticsEndpoint, req models.CaptureRequest) (*models.CaptureRecord, error) {
	client, err := c.captures()
	if err != nil {
		return nil, err
	}

	poller, err := client.BeginCreate(ctx, endpoint.ResourceGroup, endpoint.Name, req.Name, captureParameters(req), nil)
	if err != nil {
		return nil, fmt.Errorf("creating packet capture %s: %w", req.Name, classify(err))
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("waiting for packet capture %s: %w", req.Name, classify(err))
	}

	c.logger.Debug("Packet capture provisioned", "watcher", endpoint.Name, "capture", req.Name)
	rec := toCaptureRecord(&resp.PacketCaptureResult)
	return &rec, nil
}

func captureParameters(req models.CaptureRequest) armnetwork.PacketCapture {
	return armnetwork.PacketCapture{
		Properties: &armnetwork.PacketCaptureParameters{
			Target:             to.Ptr(req.TargetID),
			TimeLimitInSeconds: to.Ptr(req.TimeLimitSeconds),
			StorageLocation: &armnetwork.PacketCaptureStorageLocation{
				StorageID: to.Ptr(req.StorageID),
			},
		},
	}
}

func toEndpoint(w *armnetwork.Watcher) models.DiagnosticsEndpoint {
	ep := models.DiagnosticsEndpoint{
		ID:     deref(w.ID),
		Name:   deref(w.Name),
		Region: deref(w.Location),
	}
	if rid, err := arm.ParseResourceID(ep.ID); err == nil {
		ep.ResourceGroup = rid.ResourceGroupName
	}
	return ep
}

func toCaptureRecord(pc *armnetwork.PacketCaptureResult) models.CaptureRecord {
	rec := models.CaptureRecord{ID: deref(pc.ID), Name: deref(pc.Name)}
	if p := pc.Properties; p != nil {
		rec.TargetID = deref(p.Target)
		rec.TimeLimitSeconds = deref(p.TimeLimitInSeconds)
		if p.StorageLocation != nil {
			rec.StorageID = deref(p.StorageLocation.StorageID)
		}
		if p.ProvisioningState != nil {
			rec.State = string(*p.ProvisioningState)
		}
	}
	return rec
}

func toCaptureStatus(name string, r *armnetwork.PacketCaptureQueryStatusResult) *models.CaptureStatus {
	st := &models.CaptureStatus{
		Name:       name,
		StartTime:  deref(r.CaptureStartTime),
		StopReason: deref(r.StopReason),
	}
	if r.PacketCaptureStatus != nil {
		st.State = string(*r.PacketCaptureStatus)
	}
	return st
}
