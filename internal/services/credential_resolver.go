package services

import (
	"context"
	"errors"
	"strings"

	"github.com/platformbuilds/mirador-pcap/internal/config"
	"github.com/platformbuilds/mirador-pcap/internal/controlplane"
	"github.com/platformbuilds/mirador-pcap/internal/models"
)

var errBlankPrincipal = errors.New("service principal settings are blank")

// CredentialResolver turns the configured service principal into a control
// plane session scoped to the alert's subscription.
type CredentialResolver struct {
	creds controlplane.Credentials
	auth  controlplane.Authenticator
}

func NewCredentialResolver(cfg config.AzureConfig, auth controlplane.Authenticator) *CredentialResolver {
	return &CredentialResolver{
		creds: controlplane.Credentials{
			TenantID:     strings.TrimSpace(cfg.TenantID),
			ClientID:     strings.TrimSpace(cfg.ClientID),
			ClientSecret: strings.TrimSpace(cfg.ClientSecret),
		},
		auth: auth,
	}
}

// Resolve checks the secrets locally before making any remote call.
func (r *CredentialResolver) Resolve(ctx context.Context, subscriptionID string) (controlplane.ControlPlane, error) {
	if strings.TrimSpace(subscriptionID) == "" {
		return nil, &models.PipelineError{
			Kind:   models.KindValidation,
			Op:     "resolve credentials",
			Fields: []string{"subscriptionId"},
			Err:    errors.New("subscription id is blank"),
		}
	}

	if missing := r.missing(); len(missing) > 0 {
		return nil, &models.PipelineError{
			Kind:   models.KindCredential,
			Op:     "resolve credentials",
			Fields: missing,
			Err:    errBlankPrincipal,
		}
	}

	cp, err := r.auth.Authenticate(ctx, r.creds, subscriptionID)
	if err != nil {
		return nil, &models.PipelineError{
			Kind: models.KindAuth,
			Op:   "authenticate subscription " + subscriptionID,
			Err:  err,
		}
	}
	return cp, nil
}

func (r *CredentialResolver) missing() []string {
	var fields []string
	if r.creds.TenantID == "" {
		fields = append(fields, "azure.tenant_id")
	}
	if r.creds.ClientID == "" {
		fields = append(fields, "azure.client_id")
	}
	if r.creds.ClientSecret == "" {
		fields = append(fields, "azure.client_secret")
	}
	return fields
}
