package main

import (
	"fmt"
	"strings"

	"github.com/openmined/projectsync/internal/client/syncapi"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newCancelCmd())
	rootCmd.AddCommand(newListCmd())
}

// splitFullName parses "namespace/name" as used on the command line.
func splitFullName(fullName string) (namespace, name string, err error) {
	ns, n, ok := strings.Cut(fullName, "/")
	if !ok || ns == "" || n == "" {
		return "", "", fmt.Errorf("invalid project name %q, expected namespace/name", fullName)
	}
	return ns, n, nil
}

func newUpdateCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "update <namespace>/<name>...",
		Short: "Pull the latest server version of one or more projects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			session, err := newSyncSession(cfg.APIRoot, cfg.RefreshToken, cfg.DataDir, cliEmitter{quiet: quiet})
			if err != nil {
				return err
			}
			defer session.Close()

			ctx := cmd.Context()
			var firstErr error
			for _, fullName := range args {
				namespace, name, err := splitFullName(fullName)
				if err != nil {
					return err
				}
				if err := session.Orchestrator.UpdateProject(ctx, namespace, name); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress per-project output")
	return cmd
}

func newUploadCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "upload <namespace>/<name>...",
		Short: "Push local changes for one or more projects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			session, err := newSyncSession(cfg.APIRoot, cfg.RefreshToken, cfg.DataDir, cliEmitter{quiet: quiet})
			if err != nil {
				return err
			}
			defer session.Close()

			ctx := cmd.Context()
			var firstErr error
			for _, fullName := range args {
				namespace, name, err := splitFullName(fullName)
				if err != nil {
					return err
				}
				if err := session.Orchestrator.UploadProject(ctx, namespace, name); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress per-project output")
	return cmd
}

func newCancelCmd() *cobra.Command {
	var upload bool

	cmd := &cobra.Command{
		Use:   "cancel <namespace>/<name>",
		Short: "Cancel an in-flight update or upload for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			session, err := newSyncSession(cfg.APIRoot, cfg.RefreshToken, cfg.DataDir, cliEmitter{})
			if err != nil {
				return err
			}
			defer session.Close()

			namespace, name, err := splitFullName(args[0])
			if err != nil {
				return err
			}
			fullName := namespace + "/" + name

			if upload {
				session.Orchestrator.UploadCancel(fullName)
			} else {
				session.Orchestrator.UpdateCancel(fullName)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&upload, "upload", false, "cancel an in-flight upload instead of an update")
	return cmd
}

func newListCmd() *cobra.Command {
	var filter, user, flag, tags string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects visible to the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			session, err := newSyncSession(cfg.APIRoot, cfg.RefreshToken, cfg.DataDir, cliEmitter{})
			if err != nil {
				return err
			}
			defer session.Close()

			session.Orchestrator.ListProjects(cmd.Context(), syncapi.ListProjectsParams{
				Filter: filter,
				User:   user,
				Flag:   flag,
				Tags:   tags,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "substring filter on project name")
	cmd.Flags().StringVar(&user, "user", "", "restrict to a namespace")
	cmd.Flags().StringVar(&flag, "flag", "", "\"created\" or \"shared\"")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tag filter")
	return cmd
}
