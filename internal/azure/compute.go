package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"

	"github.com/platformbuilds/mirador-pcap/internal/models"
)

const virtualMachineType = "Microsoft.Compute/virtualMachines"

func (c *ControlPlane) GetComputeByID(ctx context.Context, id string) (*models.ComputeTarget, error) {
	rid, err := parseID(id, virtualMachineType)
	if err != nil {
		return nil, err
	}

	client, err := armcompute.NewVirtualMachinesClient(rid.SubscriptionID, c.cred, c.opts)
	if err != nil {
		return nil, fmt.Errorf("creating virtual machines client: %w", err)
	}

	resp, err := client.Get(ctx, rid.ResourceGroupName, rid.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("getting virtual machine %s: %w", rid.Name, classify(err))
	}

	return toComputeTarget(&resp.VirtualMachine, rid.ResourceGroupName), nil
}

func (c *ControlPlane) ListExtensions(ctx context.Context, computeID string) ([]models.AgentDescriptor, error) {
	rid, err := parseID(computeID, virtualMachineType)
	if err != nil {
		return nil, err
	}

	client, err := armcompute.NewVirtualMachineExtensionsClient(rid.SubscriptionID, c.cred, c.opts)
	if err != nil {
		return nil, fmt.Errorf("creating extensions client: %w", err)
	}

	resp, err := client.List(ctx, rid.ResourceGroupName, rid.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("listing extensions of %s: %w", rid.Name, classify(err))
	}

	out := make([]models.AgentDescriptor, 0, len(resp.Value))
	for _, ext := range resp.Value {
		if ext != nil {
			out = append(out, toAgentDescriptor(ext))
		}
	}
	return out, nil
}

// AttachExtension installs agent on the VM and waits for provisioning to finish.
func (c *ControlPlane) AttachExtension(ctx context.Context, computeID string, agent models.AgentDescriptor) error {
	rid, err := parseID(computeID, virtualMachineType)
	if err != nil {
		return err
	}

	vms, err := armcompute.NewVirtualMachinesClient(rid.SubscriptionID, c.cred, c.opts)
	if err != nil {
		return fmt.Errorf("creating virtual machines client: %w", err)
	}
	vm, err := vms.Get(ctx, rid.ResourceGroupName, rid.Name, nil)
	if err != nil {
		return fmt.Errorf("getting virtual machine %s: %w", rid.Name, classify(err))
	}

	client, err := armcompute.NewVirtualMachineExtensionsClient(rid.SubscriptionID, c.cred, c.opts)
	if err != nil {
		return fmt.Errorf("creating extensions client: %w", err)
	}

	poller, err := client.BeginCreateOrUpdate(ctx, rid.ResourceGroupName, rid.Name, agent.Name,
		extensionParameters(agent, deref(vm.Location)), nil)
	if err != nil {
		return fmt.Errorf("attaching extension %s to %s: %w", agent.Name, rid.Name, classify(err))
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("waiting for extension %s on %s: %w", agent.Name, rid.Name, classify(err))
	}

	c.logger.Debug("Extension provisioned", "vm", rid.Name, "extension", agent.Name, "type", agent.Type)
	return nil
}

func extensionParameters(agent models.AgentDescriptor, location string) armcompute.VirtualMachineExtension {
	return armcompute.VirtualMachineExtension{
		Location: to.Ptr(location),
		Properties: &armcompute.VirtualMachineExtensionProperties{
			Publisher:               to.Ptr(agent.Publisher),
			Type:                    to.Ptr(agent.Type),
			TypeHandlerVersion:      to.Ptr(agent.Version),
			AutoUpgradeMinorVersion: to.Ptr(true),
		},
	}
}

func toComputeTarget(vm *armcompute.VirtualMachine, resourceGroup string) *models.ComputeTarget {
	target := &models.ComputeTarget{
		ID:            deref(vm.ID),
		Name:          deref(vm.Name),
		ResourceGroup: resourceGroup,
		Region:        deref(vm.Location),
		OSType:        osTypeOf(vm),
	}
	for _, r := range vm.Resources {
		if r != nil {
			target.InstalledAgents = append(target.InstalledAgents, toAgentDescriptor(r))
		}
	}
	return target
}

// osTypeOf reads the OS family from the OS disk, then from the OS profile.
func osTypeOf(vm *armcompute.VirtualMachine) string {
	p := vm.Properties
	if p == nil {
		return models.OSTypeUnknown
	}
	if p.StorageProfile != nil && p.StorageProfile.OSDisk != nil && p.StorageProfile.OSDisk.OSType != nil {
		switch *p.StorageProfile.OSDisk.OSType {
		case armcompute.OperatingSystemTypesLinux:
			return models.OSTypeLinux
		case armcompute.OperatingSystemTypesWindows:
			return models.OSTypeWindows
		}
	}
	if p.OSProfile != nil {
		if p.OSProfile.LinuxConfiguration != nil {
			return models.OSTypeLinux
		}
		if p.OSProfile.WindowsConfiguration != nil {
			return models.OSTypeWindows
		}
	}
	return models.OSTypeUnknown
}

func toAgentDescriptor(ext *armcompute.VirtualMachineExtension) models.AgentDescriptor {
	d := models.AgentDescriptor{Name: deref(ext.Name)}
	if p := ext.Properties; p != nil {
		d.Publisher = deref(p.Publisher)
		d.Type = deref(p.Type)
		d.Version = deref(p.TypeHandlerVersion)
	}
	return d
}
