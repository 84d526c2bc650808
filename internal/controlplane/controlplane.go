// Package controlplane defines the remote cloud operations the capture
// pipeline consumes. Implementations live in internal/azure; tests use fakes.
package controlplane

import (
	"context"
	"errors"

	"github.com/platformbuilds/mirador-pcap/internal/models"
)

// ErrNotFound is wrapped by implementations when a looked-up resource does
// not exist.
var ErrNotFound = errors.New("resource not found")

// ErrUnauthorized is wrapped by implementations when credentials are
// rejected or the subscription is not accessible with them.
var ErrUnauthorized = errors.New("unauthorized")

// Credentials are the service principal secrets used to authenticate.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Authenticator produces a ControlPlane scoped to one subscription.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials, subscriptionID string) (ControlPlane, error)
}

// ControlPlane is the set of remote operations used by one invocation.
type ControlPlane interface {
	GetComputeByID(ctx context.Context, id string) (*models.ComputeTarget, error)
	GetStorageByID(ctx context.Context, id string) (*models.StorageTarget, error)

	ListEndpoints(ctx context.Context) ([]models.DiagnosticsEndpoint, error)
	GetResourceGroup(ctx context.Context, name string) (*models.ResourceGroup, error)
	CreateResourceGroup(ctx context.Context, name, region string) (*models.ResourceGroup, error)
	CreateEndpoint(ctx context.Context, name, region, group string) (*models.DiagnosticsEndpoint, error)

	ListExtensions(ctx context.Context, computeID string) ([]models.AgentDescriptor, error)
	AttachExtension(ctx context.Context, computeID string, agent models.AgentDescriptor) error

	ListCaptures(ctx context.Context, endpoint models.DiagnosticsEndpoint) ([]models.CaptureRecord, error)
	GetCaptureStatus(ctx context.Context, endpoint models.DiagnosticsEndpoint, name string) (*models.CaptureStatus, error)
	DeleteCapture(ctx context.Context, endpoint models.DiagnosticsEndpoint, name string) error
	CreateCapture(ctx context.Context, endpoint models.DiagnosticsEndpoint, req models.CaptureRequest) (*models.CaptureRecord, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, creds Credentials, subscriptionID string) (ControlPlane, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, creds Credentials, subscriptionID string) (ControlPlane, error) {
	return f(ctx, creds, subscriptionID)
}
