package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"

	"github.com/platformbuilds/mirador-pcap/internal/models"
)

func (c *ControlPlane) groups() (*armresources.ResourceGroupsClient, error) {
	client, err := armresources.NewResourceGroupsClient(c.subscriptionID, c.cred, c.opts)
	if err != nil {
		return nil, fmt.Errorf("creating resource groups client: %w", err)
	}
	return client, nil
}

func (c *ControlPlane) GetResourceGroup(ctx context.Context, name string) (*models.ResourceGroup, error) {
	client, err := c.groups()
	if err != nil {
		return nil, err
	}

	resp, err := client.Get(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("getting resource group %s: %w", name, classify(err))
	}
	return &models.ResourceGroup{Name: deref(resp.Name), Region: deref(resp.Location)}, nil
}

func (c *ControlPlane) CreateResourceGroup(ctx context.Context, name, region string) (*models.ResourceGroup, error) {
	client, err := c.groups()
	if err != nil {
		return nil, err
	}

	resp, err := client.CreateOrUpdate(ctx, name, armresources.ResourceGroup{Location: to.Ptr(region)}, nil)
	if err != nil {
		return nil, fmt.Errorf("creating resource group %s: %w", name, classify(err))
	}
	return &models.ResourceGroup{Name: deref(resp.Name), Region: deref(resp.Location)}, nil
}
