package config

// Config is the root configuration for chainsense.
type Config struct {
	Gateway      GatewayConfig              `yaml:"gateway,omitempty"`
	Engine       EngineConfig               `yaml:"engine,omitempty"`
	Session      SessionConfig              `yaml:"session,omitempty"`
	Capabilities map[string]CapabilityEntry `yaml:"capabilities,omitempty"`
	Audit        AuditConfig                `yaml:"audit,omitempty"`
	Archive      ArchiveConfig              `yaml:"archive,omitempty"`
	Speech       SpeechConfig               `yaml:"speech,omitempty"`
	Logging      LoggingConfig              `yaml:"logging,omitempty"`
}

// GatewayConfig controls the gateway HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Mode     string `yaml:"mode,omitempty"` // "token" | "password" | "none"
	Token    string `yaml:"token,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// EngineConfig tunes intent resolution and dispatch.
type EngineConfig struct {
	ConfidenceThreshold float64 `yaml:"confidenceThreshold,omitempty"` // clarification cutoff
	ExpectedParts       int     `yaml:"expectedParts,omitempty"`       // multi-turn default part count
	CapabilitySeconds   int     `yaml:"capabilityTimeoutSeconds,omitempty"`
}

// SessionConfig defines session lifecycle behavior.
type SessionConfig struct {
	IdleMinutes  int `yaml:"idleMinutes,omitempty"`  // eviction threshold
	SweepMinutes int `yaml:"sweepMinutes,omitempty"` // cleanup interval
}

// CapabilityEntry points an analytical capability at a remote HTTP service.
// Capabilities without an entry use the built-in deterministic stubs.
type CapabilityEntry struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token,omitempty"`
}

// AuditConfig controls audit event delivery.
type AuditConfig struct {
	LogEvents  bool   `yaml:"logEvents,omitempty"`
	WebhookURL string `yaml:"webhookUrl,omitempty"`
}

// ArchiveConfig controls the SQLite turn archive.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"` // ":memory:" for tests
}

// SpeechConfig carries defaults for the TTS collaborator.
type SpeechConfig struct {
	DefaultVoice string `yaml:"defaultVoice,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}
