// Package config loads and validates chainsense configuration.
package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port: 18930,
			Bind: "loopback",
			Auth: GatewayAuth{
				Mode: "token",
			},
		},
		Engine: EngineConfig{
			ConfidenceThreshold: 0.7,
			ExpectedParts:       2,
			CapabilitySeconds:   30,
		},
		Session: SessionConfig{
			IdleMinutes:  30,
			SweepMinutes: 5,
		},
		Audit: AuditConfig{
			LogEvents: true,
		},
		Archive: ArchiveConfig{
			Enabled: true,
		},
		Speech: SpeechConfig{
			DefaultVoice: "en-US-neutral",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
