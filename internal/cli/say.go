package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/chainsense/internal/config"
)

func newSayCmd() *cobra.Command {
	var (
		sessionID string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "say [utterance]",
		Short: "Resolve one utterance locally and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			utterance := strings.Join(args, " ")

			cfg, err := config.Load(paths.Config)
			if err != nil {
				cfg = config.Defaults()
			}

			rt, err := buildRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			env := rt.engine.ProcessTurn(ctx, sessionID, utterance)

			if asJSON {
				out, err := json.MarshalIndent(env, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Println(env.Speech)
			fmt.Fprintf(cmd.ErrOrStderr(), "\n[intent=%s confidence=%.2f success=%v]\n",
				env.Intent, env.Confidence, env.Success)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "cli", "session ID to resolve against")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response envelope as JSON")

	return cmd
}
