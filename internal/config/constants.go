package config

const (
	// Service information
	ServiceName    = "mirador-pcap"
	ServiceVersion = "v0.3.0"
	APIVersion     = "v1"

	DefaultPort            = 8080
	DefaultShutdownTimeout = 30000 // milliseconds
	DefaultMaxBodyBytes    = 1 << 20

	// Capture policy
	DefaultMaxCaptures          = 10
	DefaultTimeLimitSeconds     = 15
	DefaultNameMaxLength        = 50
	DefaultWatcherResourceGroup = "NetworkWatcherRG"
	DefaultWatcherNamePrefix    = "NetworkWatcher_"

	// Capture agent extension
	DefaultAgentName        = "packetcapture"
	DefaultAgentPublisher   = "Microsoft.Azure.NetworkWatcher"
	DefaultAgentVersion     = "1.4"
	DefaultAgentLinuxType   = "NetworkWatcherAgentLinux"
	DefaultAgentWindowsType = "NetworkWatcherAgentWindows"

	// Endpoint lock
	DefaultLockTTLSeconds    = 120
	DefaultLockWaitTimeoutMs = 5000
)

var validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}

var validEnvironments = []string{"development", "staging", "production", "test"}

var validClouds = []string{"public", "china", "usgov"}

// Control-plane limits on packet captures
const (
	MaxCaptureTimeLimitSeconds = 18000 // 5 hours
	MaxCaptureNameLength       = 80
	CaptureNameSuffixLength    = len("20060102150405")
)
