package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}

	validAuthModes := []string{"token", "password", "none"}
	if cfg.Gateway.Auth.Mode != "" && !slices.Contains(validAuthModes, cfg.Gateway.Auth.Mode) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.auth.mode",
			Message: fmt.Sprintf("must be one of %v, got %q", validAuthModes, cfg.Gateway.Auth.Mode),
		})
	}

	if cfg.Engine.ConfidenceThreshold < 0 || cfg.Engine.ConfidenceThreshold > 1 {
		issues = append(issues, ValidationIssue{
			Path:    "engine.confidenceThreshold",
			Message: fmt.Sprintf("must be within [0,1], got %v", cfg.Engine.ConfidenceThreshold),
		})
	}

	if cfg.Engine.ExpectedParts < 2 {
		issues = append(issues, ValidationIssue{
			Path:    "engine.expectedParts",
			Message: fmt.Sprintf("a multi-turn query needs at least 2 parts, got %d", cfg.Engine.ExpectedParts),
		})
	}

	if cfg.Session.IdleMinutes < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "session.idleMinutes",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Session.IdleMinutes),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	for name, cap := range cfg.Capabilities {
		if cap.Endpoint == "" {
			issues = append(issues, ValidationIssue{
				Path:    "capabilities." + name + ".endpoint",
				Message: "endpoint is required",
			})
			continue
		}
		if !strings.HasPrefix(cap.Endpoint, "http://") && !strings.HasPrefix(cap.Endpoint, "https://") {
			issues = append(issues, ValidationIssue{
				Path:    "capabilities." + name + ".endpoint",
				Message: fmt.Sprintf("must be an http(s) URL, got %q", cap.Endpoint),
			})
		}
	}

	if cfg.Audit.WebhookURL != "" &&
		!strings.HasPrefix(cfg.Audit.WebhookURL, "http://") &&
		!strings.HasPrefix(cfg.Audit.WebhookURL, "https://") {
		issues = append(issues, ValidationIssue{
			Path:    "audit.webhookUrl",
			Message: fmt.Sprintf("must be an http(s) URL, got %q", cfg.Audit.WebhookURL),
		})
	}

	return issues
}
