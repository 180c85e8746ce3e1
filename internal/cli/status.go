package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/soyeahso/chainsense/internal/config"
	"github.com/soyeahso/chainsense/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show chainsense status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Chainsense %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Base)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			// Load config
			cfg, err := config.Load(paths.Config)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Println("Config:  not found (using defaults)")
				} else {
					fmt.Printf("Config:  error loading: %v\n", err)
				}
				return nil
			}

			fmt.Printf("Gateway: port=%d bind=%s auth=%s\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Mode)

			fmt.Printf("Engine:  threshold=%.2f parts=%d timeout=%ds\n",
				cfg.Engine.ConfidenceThreshold, cfg.Engine.ExpectedParts, cfg.Engine.CapabilitySeconds)

			fmt.Printf("Session: idle=%dm sweep=%dm\n",
				cfg.Session.IdleMinutes, cfg.Session.SweepMinutes)

			// Capabilities
			if len(cfg.Capabilities) > 0 {
				names := make([]string, 0, len(cfg.Capabilities))
				for name := range cfg.Capabilities {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Printf("Remote:  %s -> %s\n", name, cfg.Capabilities[name].Endpoint)
				}
			} else {
				fmt.Println("Remote:  (none, using built-in capabilities)")
			}

			// Archive
			if cfg.Archive.Enabled {
				path := cfg.Archive.Path
				if path == "" {
					path = paths.Archive
				}
				fmt.Printf("Archive: %s\n", path)
			} else {
				fmt.Println("Archive: disabled")
			}

			// Audit
			fmt.Printf("Audit:   log=%v", cfg.Audit.LogEvents)
			if cfg.Audit.WebhookURL != "" {
				fmt.Printf(" webhook=%s", cfg.Audit.WebhookURL)
			}
			fmt.Println()

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
