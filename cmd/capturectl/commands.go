package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/platformbuilds/mirador-pcap/internal/alert"
	"github.com/platformbuilds/mirador-pcap/internal/bootstrap"
	"github.com/platformbuilds/mirador-pcap/internal/config"
	"github.com/platformbuilds/mirador-pcap/internal/models"
	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, _, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

func readPayload(in io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(in)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	return b, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	raw, err := readPayload(cmd.InOrStdin(), payloadPath)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	log := logger.New(level)

	tracer, shutdownTracing, err := bootstrap.NewTracing(cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	locker, err := bootstrap.NewLocker(cfg.Lock, log)
	if err != nil {
		return err
	}
	defer locker.Close()

	auth, err := bootstrap.NewAuthenticator(cfg.Azure, log)
	if err != nil {
		return err
	}
	orchestrator := bootstrap.NewOrchestrator(cfg, auth, locker, tracer, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := orchestrator.Run(ctx, uuid.NewString(), raw)
	if err != nil {
		var perr *models.PipelineError
		if errors.As(err, &perr) {
			_ = writeJSON(cmd.ErrOrStderr(), map[string]any{
				"kind":      perr.Kind,
				"operation": perr.Op,
				"fields":    perr.Fields,
				"error":     perr.Error(),
			})
		}
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	raw, err := readPayload(cmd.InOrStdin(), payloadPath)
	if err != nil {
		return err
	}
	alertCtx, err := alert.Extract(raw)
	if err != nil {
		var verr *alert.ValidationError
		if errors.As(err, &verr) {
			_ = writeJSON(cmd.ErrOrStderr(), map[string]any{
				"error":  verr.Error(),
				"fields": verr.Fields(),
			})
		}
		return err
	}
	return writeJSON(cmd.OutOrStdout(), alertCtx)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	redacted := cfg.Redacted()
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(&redacted); err != nil {
		return err
	}
	return enc.Close()
}
