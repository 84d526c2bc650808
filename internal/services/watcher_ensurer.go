package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/platformbuilds/mirador-pcap/internal/controlplane"
	"github.com/platformbuilds/mirador-pcap/internal/models"
	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

// WatcherEnsurer finds or creates the regional network watcher.
type WatcherEnsurer struct {
	resourceGroup string
	namePrefix    string
	logger        logger.Logger
}

func NewWatcherEnsurer(resourceGroup, namePrefix string, log logger.Logger) *WatcherEnsurer {
	return &WatcherEnsurer{resourceGroup: resourceGroup, namePrefix: namePrefix, logger: log}
}

// WatcherName is the name given to a watcher created for region.
func (e *WatcherEnsurer) WatcherName(region string) string {
	return e.namePrefix + models.NormalizeRegion(region)
}

// Ensure returns the watcher for region and whether it had to be created.
// A failing or empty listing is treated as "none found".
func (e *WatcherEnsurer) Ensure(ctx context.Context, cp controlplane.ControlPlane, region string) (*models.DiagnosticsEndpoint, bool, error) {
	const op = "ensure watcher"
	want := models.NormalizeRegion(region)

	endpoints, err := cp.ListEndpoints(ctx)
	if err != nil {
		e.logger.Warn("Listing network watchers failed, treating as none found", "region", region, "error", err)
	}
	for i := range endpoints {
		if models.NormalizeRegion(endpoints[i].Region) == want {
			return &endpoints[i], false, nil
		}
	}
	e.logger.Debug("No network watcher in region", "region", region, "listed", len(endpoints))

	group, err := cp.GetResourceGroup(ctx, e.resourceGroup)
	if err != nil {
		if !errors.Is(err, controlplane.ErrNotFound) {
			return nil, false, models.NewPipelineError(models.KindProvisioning, op,
				fmt.Errorf("get resource group %s: %w", e.resourceGroup, err))
		}
		group, err = cp.CreateResourceGroup(ctx, e.resourceGroup, region)
		if err != nil {
			return nil, false, models.NewPipelineError(models.KindProvisioning, op,
				fmt.Errorf("create resource group %s: %w", e.resourceGroup, err))
		}
		e.logger.Info("Created watcher resource group", "resourceGroup", group.Name, "region", region)
	}

	name := e.WatcherName(region)
	endpoint, err := cp.CreateEndpoint(ctx, name, region, group.Name)
	if err != nil {
		return nil, false, models.NewPipelineError(models.KindProvisioning, op,
			fmt.Errorf("create network watcher %s: %w", name, err))
	}

	e.logger.Info("Created network watcher", "watcher", endpoint.Name, "region", region, "resourceGroup", group.Name)
	return endpoint, true, nil
}
