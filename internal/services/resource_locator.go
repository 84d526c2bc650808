package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/platformbuilds/mirador-pcap/internal/config"
	"github.com/platformbuilds/mirador-pcap/internal/controlplane"
	"github.com/platformbuilds/mirador-pcap/internal/models"
)

// ResourceLocator looks up the capture target VM and the destination storage account.
type ResourceLocator struct {
	storageAccountID string
}

func NewResourceLocator(storageAccountID string) *ResourceLocator {
	return &ResourceLocator{storageAccountID: strings.TrimSpace(storageAccountID)}
}

// LocateCompute resolves the VM named by the alert. The target is only read.
func (l *ResourceLocator) LocateCompute(ctx context.Context, cp controlplane.ControlPlane, resourceID string) (*models.ComputeTarget, error) {
	const op = "locate compute"

	if err := config.ValidateResourceID(resourceID); err != nil {
		return nil, &models.PipelineError{Kind: models.KindValidation, Op: op, Fields: []string{"resourceId"}, Err: err}
	}

	if !isVirtualMachineID(resourceID) {
		return nil, &models.PipelineError{
			Kind:   models.KindNotFound,
			Op:     op,
			Fields: []string{"resourceId"},
			Err:    fmt.Errorf("%s is not a virtual machine: %w", resourceID, controlplane.ErrNotFound),
		}
	}

	target, err := cp.GetComputeByID(ctx, resourceID)
	if err != nil {
		return nil, classifyLookup(op, "resourceId", resourceID, err)
	}
	return target, nil
}

// LocateStorage resolves the configured storage account.
func (l *ResourceLocator) LocateStorage(ctx context.Context, cp controlplane.ControlPlane) (*models.StorageTarget, error) {
	const op = "locate storage"

	if l.storageAccountID == "" {
		return nil, &models.PipelineError{
			Kind:   models.KindConfig,
			Op:     op,
			Fields: []string{"capture.storage_account_id"},
			Err:    errors.New("packet capture storage account is not configured"),
		}
	}

	if err := config.ValidateResourceID(l.storageAccountID); err != nil {
		return nil, &models.PipelineError{Kind: models.KindConfig, Op: op, Fields: []string{"capture.storage_account_id"}, Err: err}
	}

	storage, err := cp.GetStorageByID(ctx, l.storageAccountID)
	if err != nil {
		return nil, classifyLookup(op, "capture.storage_account_id", l.storageAccountID, err)
	}
	return storage, nil
}

// isVirtualMachineID reports whether id names a VM itself, not another
// resource type or a VM child resource.
func isVirtualMachineID(id string) bool {
	parts := strings.Split(strings.Trim(id, "/"), "/")
	return len(parts) == 8 &&
		strings.EqualFold(parts[5], "Microsoft.Compute") &&
		strings.EqualFold(parts[6], "virtualMachines")
}

func classifyLookup(op, field, id string, err error) error {
	if errors.Is(err, controlplane.ErrNotFound) {
		return &models.PipelineError{
			Kind:   models.KindNotFound,
			Op:     op,
			Fields: []string{field},
			Err:    fmt.Errorf("%s: %w", id, err),
		}
	}
	return models.NewPipelineError(models.KindProvisioning, op, err)
}
