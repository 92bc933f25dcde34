package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/openmined/projectsync/internal/client/auth"
	"github.com/openmined/projectsync/internal/client/registry"
	"github.com/openmined/projectsync/internal/client/sync"
	"github.com/openmined/projectsync/internal/client/syncapi"
	"github.com/openmined/projectsync/internal/version"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newDaemonCmd())
}

func newDaemonCmd() *cobra.Command {
	var interval time.Duration
	var password string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Continuously sync every locally known project on a timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			slog.Info("projectsync daemon starting", "version", version.Version, "revision", version.Revision)

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			emit := cliEmitter{}
			var api *syncapi.Client

			if password != "" {
				// A password was supplied for this run only (never written to
				// disk); hold it in memory so a token that expires mid-run can
				// be silently refreshed.
				creds := auth.New(cfg.Username, password)
				api = syncapi.New(cfg.APIRoot, creds, machineClientID())
				creds.SetLogin(api)
				if err := creds.Authenticate(cmd.Context()); err != nil {
					api.Close()
					return err
				}
			} else {
				api = syncapi.New(cfg.APIRoot, syncapi.StaticCredentials(cfg.RefreshToken), machineClientID())
			}
			defer api.Close()

			store, err := registry.Open(cfg.DataDir + "/.projectsync.db")
			if err != nil {
				return err
			}
			defer store.Close()

			orch := sync.NewOrchestrator(api, store, emit, cfg.DataDir)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			runOnce := func(ctx context.Context) {
				projects, err := store.List()
				if err != nil {
					slog.Error("daemon: list local projects", "error", err)
					return
				}
				if len(projects) == 0 {
					return
				}
				if err := orch.UpdateAll(ctx, projects); err != nil {
					slog.Warn("daemon: update round finished with errors", "error", err)
				}
			}

			runOnce(cmd.Context())
			for {
				select {
				case <-cmd.Context().Done():
					slog.Info("daemon stopping")
					return nil
				case <-ticker.C:
					runOnce(cmd.Context())
				}
			}
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", 60*time.Second, "how often to sync all known projects")
	cmd.Flags().StringVar(&password, "password", "", "account password for this run only (never persisted); enables automatic reauthentication")

	return cmd
}
