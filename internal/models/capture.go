package models

import (
	"strings"
	"time"
)

// OS families reported for compute targets.
const (
	OSTypeLinux   = "linux"
	OSTypeWindows = "windows"
	OSTypeUnknown = ""
)

// ComputeTarget is the virtual machine a capture is bound to.
type ComputeTarget struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	ResourceGroup   string            `json:"resource_group"`
	Region          string            `json:"region"`
	OSType          string            `json:"os_type,omitempty"`
	InstalledAgents []AgentDescriptor `json:"installed_agents,omitempty"`
}

// AgentDescriptor describes a VM extension.
type AgentDescriptor struct {
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
	Type      string `json:"type"`
	Version   string `json:"version"`
}

// StorageTarget receives the captured data.
type StorageTarget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ResourceGroup is a placement container for control-plane resources.
type ResourceGroup struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

// DiagnosticsEndpoint is a regional network watcher.
type DiagnosticsEndpoint struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Region        string          `json:"region"`
	ResourceGroup string          `json:"resource_group"`
	Captures      []CaptureRecord `json:"captures,omitempty"`
}

// CaptureRecord is a packet capture registered on a watcher.
type CaptureRecord struct {
	ID               string    `json:"id,omitempty"`
	Name             string    `json:"name"`
	StartTime        time.Time `json:"start_time"`
	TargetID         string    `json:"target_id"`
	StorageID        string    `json:"storage_id"`
	TimeLimitSeconds int32     `json:"time_limit_seconds"`
	State            string    `json:"state,omitempty"`
}

// CaptureStatus is the queried runtime status of a capture.
type CaptureStatus struct {
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	State      string    `json:"state,omitempty"`
	StopReason string    `json:"stop_reason,omitempty"`
}

// CaptureRequest holds the parameters of a capture to create.
type CaptureRequest struct {
	Name             string `json:"name"`
	TargetID         string `json:"target_id"`
	StorageID        string `json:"storage_id"`
	TimeLimitSeconds int32  `json:"time_limit_seconds"`
}

// CaptureResult is reported back to the trigger after a successful run.
type CaptureResult struct {
	InvocationID   string `json:"invocation_id"`
	CaptureName    string `json:"capture_name"`
	Watcher        string `json:"watcher"`
	Region         string `json:"region"`
	TargetID       string `json:"target_id"`
	Evicted        string `json:"evicted,omitempty"`
	AgentInstalled bool   `json:"agent_installed"`
	WatcherCreated bool   `json:"watcher_created"`
}

// NormalizeRegion folds a region token to the form used for comparison and
// naming: "West Europe" and "westeurope" both become "westeurope".
func NormalizeRegion(region string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(region), " ", ""))
}
