// Package azure implements controlplane.ControlPlane on Azure Resource Manager.
package azure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"

	"github.com/platformbuilds/mirador-pcap/internal/controlplane"
	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

// Authenticator builds ARM sessions from a service principal.
type Authenticator struct {
	cloud  cloud.Configuration
	logger logger.Logger
}

func NewAuthenticator(cloudName string, log logger.Logger) (*Authenticator, error) {
	c, err := CloudConfig(cloudName)
	if err != nil {
		return nil, err
	}
	return &Authenticator{cloud: c, logger: log}, nil
}

// CloudConfig maps the configured cloud name to its ARM endpoints.
func CloudConfig(name string) (cloud.Configuration, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "public":
		return cloud.AzurePublic, nil
	case "china":
		return cloud.AzureChina, nil
	case "usgov":
		return cloud.AzureGovernment, nil
	default:
		return cloud.Configuration{}, fmt.Errorf("unknown azure cloud %q", name)
	}
}

// Authenticate verifies the principal can read subscriptionID and returns a
// control plane scoped to it.
func (a *Authenticator) Authenticate(ctx context.Context, creds controlplane.Credentials, subscriptionID string) (controlplane.ControlPlane, error) {
	cred, err := azidentity.NewClientSecretCredential(creds.TenantID, creds.ClientID, creds.ClientSecret,
		&azidentity.ClientSecretCredentialOptions{ClientOptions: policy.ClientOptions{Cloud: a.cloud}})
	if err != nil {
		return nil, fmt.Errorf("building service principal credential: %w", err)
	}

	opts := &arm.ClientOptions{ClientOptions: policy.ClientOptions{Cloud: a.cloud}}

	subs, err := armsubscriptions.NewClient(cred, opts)
	if err != nil {
		return nil, fmt.Errorf("creating subscriptions client: %w", err)
	}

	resp, err := subs.Get(ctx, subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("reading subscription %s: %w", subscriptionID, classify(err))
	}
	if resp.State != nil && *resp.State != armsubscriptions.SubscriptionStateEnabled {
		return nil, fmt.Errorf("subscription %s is %s: %w", subscriptionID, *resp.State, controlplane.ErrUnauthorized)
	}

	return &ControlPlane{
		subscriptionID: subscriptionID,
		cred:           cred,
		opts:           opts,
		logger:         a.logger,
	}, nil
}

// ControlPlane is bound to one subscription; resources addressed by full id
// may live in another subscription the principal can reach.
type ControlPlane struct {
	subscriptionID string
	cred           azcore.TokenCredential
	opts           *arm.ClientOptions
	logger         logger.Logger
}

// classify maps ARM HTTP failures onto the controlplane sentinels.
func classify(err error) error {
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return err
	}
	switch respErr.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", respErr.ErrorCode, controlplane.ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w", respErr.ErrorCode, controlplane.ErrUnauthorized)
	default:
		return err
	}
}

// parseID parses a full ARM id and checks its provider type.
func parseID(id, wantType string) (*arm.ResourceID, error) {
	rid, err := arm.ParseResourceID(id)
	if err != nil {
		return nil, fmt.Errorf("parsing resource id %q: %w", id, err)
	}
	if wantType != "" && !strings.EqualFold(rid.ResourceType.String(), wantType) {
		return nil, fmt.Errorf("resource %q is a %s, want %s", id, rid.ResourceType.String(), wantType)
	}
	return rid, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

var (
	_ controlplane.Authenticator = (*Authenticator)(nil)
	_ controlplane.ControlPlane  = (*ControlPlane)(nil)
)
