package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"

	"github.com/platformbuilds/mirador-pcap/internal/models"
)

const storageAccountType = "Microsoft.Storage/storageAccounts"

func (c *ControlPlane) GetStorageByID(ctx context.Context, id string) (*models.StorageTarget, error) {
	rid, err := parseID(id, storageAccountType)
	if err != nil {
		return nil, err
	}

	client, err := armstorage.NewAccountsClient(rid.SubscriptionID, c.cred, c.opts)
	if err != nil {
		return nil, fmt.Errorf("creating storage accounts client: %w", err)
	}

	resp, err := client.GetProperties(ctx, rid.ResourceGroupName, rid.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("getting storage account %s: %w", rid.Name, classify(err))
	}

	return &models.StorageTarget{ID: deref(resp.ID), Name: deref(resp.Name)}, nil
}
