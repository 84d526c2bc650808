package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/platformbuilds/mirador-pcap/internal/config"
	"github.com/platformbuilds/mirador-pcap/internal/controlplane"
	"github.com/platformbuilds/mirador-pcap/internal/models"
	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

// AgentEnsurer makes sure the capture agent extension is on the target VM.
type AgentEnsurer struct {
	agent  config.AgentConfig
	logger logger.Logger
}

func NewAgentEnsurer(agent config.AgentConfig, log logger.Logger) *AgentEnsurer {
	return &AgentEnsurer{agent: agent, logger: log}
}

// Descriptor returns the extension to attach for a VM of the given OS family.
func (e *AgentEnsurer) Descriptor(osType string) models.AgentDescriptor {
	typ := e.agent.WindowsType
	if osType == models.OSTypeLinux {
		typ = e.agent.LinuxType
	}
	return models.AgentDescriptor{
		Name:      e.agent.Name,
		Publisher: e.agent.Publisher,
		Type:      typ,
		Version:   e.agent.Version,
	}
}

// Ensure attaches the agent when no extension from its publisher is present.
// It reports whether an attach was performed. Installed versions are not checked.
func (e *AgentEnsurer) Ensure(ctx context.Context, cp controlplane.ControlPlane, target *models.ComputeTarget) (bool, error) {
	const op = "ensure agent"

	extensions, err := cp.ListExtensions(ctx, target.ID)
	if err != nil {
		return false, models.NewPipelineError(models.KindProvisioning, op,
			fmt.Errorf("list extensions on %s: %w", target.Name, err))
	}

	for _, ext := range extensions {
		if strings.EqualFold(ext.Publisher, e.agent.Publisher) {
			e.logger.Debug("Capture agent already present", "vm", target.Name, "extension", ext.Name, "version", ext.Version)
			return false, nil
		}
	}

	agent := e.Descriptor(target.OSType)
	if err := cp.AttachExtension(ctx, target.ID, agent); err != nil {
		return false, models.NewPipelineError(models.KindProvisioning, op,
			fmt.Errorf("attach %s/%s to %s: %w", agent.Publisher, agent.Type, target.Name, err))
	}

	e.logger.Info("Installed capture agent", "vm", target.Name, "type", agent.Type, "version", agent.Version)
	return true, nil
}
