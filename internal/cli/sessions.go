package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soyeahso/chainsense/internal/archive"
	"github.com/soyeahso/chainsense/internal/config"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect archived conversation sessions",
	}

	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsExportCmd())
	return cmd
}

// openArchive opens the configured turn archive read path.
func openArchive() (*archive.TurnArchive, func(), error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		cfg = config.Defaults()
	}
	if !cfg.Archive.Enabled {
		return nil, nil, fmt.Errorf("turn archive is disabled in config")
	}

	path := cfg.Archive.Path
	if path == "" {
		path = paths.Archive
	}
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("no archive found at %s", path)
	}

	db, err := archive.Open(path, log)
	if err != nil {
		return nil, nil, err
	}
	return archive.NewTurnArchive(db), func() { db.Close() }, nil
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions recorded in the turn archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, closeFn, err := openArchive()
			if err != nil {
				return err
			}
			defer closeFn()

			summaries, err := arch.Sessions()
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No archived sessions.")
				return nil
			}

			for _, s := range summaries {
				fmt.Printf("%-36s  turns=%-4d  last=%s\n",
					s.SessionID, s.Turns, s.LastSeen.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newSessionsExportCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session's archived turns as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, closeFn, err := openArchive()
			if err != nil {
				return err
			}
			defer closeFn()

			turns, err := arch.Query(archive.Filter{SessionID: args[0], Limit: limit})
			if err != nil {
				return err
			}
			if len(turns) == 0 {
				return fmt.Errorf("no archived turns for session %q", args[0])
			}

			out, err := json.MarshalIndent(map[string]any{
				"sessionId": args[0],
				"turns":     turns,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum turns to export (0 = all)")
	return cmd
}
