package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/denisbrodbeck/machineid"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/openmined/projectsync/internal/client/config"
	"github.com/openmined/projectsync/internal/utils"
	"github.com/openmined/projectsync/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	home, _        = os.UserHomeDir()
	defaultAPIRoot = config.DefaultAPIRoot
)

var rootCmd = &cobra.Command{
	Use:     "projectsync",
	Short:   "projectsync CLI",
	Version: version.Detailed(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlag("api_root", cmd.Flags().Lookup("server"))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	// Loads a .env file from the working directory when present; a
	// missing file is not an error, it just means there's nothing to
	// load (e.g. in a normal install, as opposed to a dev checkout).
	_ = godotenv.Load()

	rootCmd.Flags().SortFlags = false
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "config file")
	rootCmd.PersistentFlags().StringP("server", "s", "", "server API root (overrides the config file; default "+defaultAPIRoot+")")

	viper.SetEnvPrefix("PROJECTSYNC")
	viper.AutomaticEnv()
}

func main() {
	logFile := config.DefaultLogFilePath

	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	logInterceptor := utils.NewLogInterceptor(file)
	fileHandler := slog.NewTextHandler(logInterceptor, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})

	multiLogHandler := utils.NewMultiLogHandler(stdoutHandler, fileHandler)
	slog.SetDefault(slog.New(multiLogHandler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the config file for cmd and reads it. api_root is
// layered the way viper always layers it: the config file's value is the
// base, and the PROJECTSYNC_API_ROOT environment variable or an explicit
// --server flag (bound to the same viper key in the root command's
// PersistentPreRunE) overrides it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := resolveConfigPath(cmd)

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no config at %s, run '%s login' first", errNotLoggedIn, path, rootCmd.Use)
		}
		return nil, err
	}

	if apiRoot := viper.GetString("api_root"); apiRoot != "" {
		cfg.APIRoot = apiRoot
	}

	return cfg, nil
}

// machineClientID returns a stable per-machine identifier sent as the
// client's X-Client-Id header, falling back to a generic string when the
// platform-specific ID can't be read (e.g. in a sandboxed CI container).
func machineClientID() string {
	id, err := machineid.ProtectedID("projectsync")
	if err != nil || id == "" {
		return "projectsync-unknown"
	}
	return id
}

func exitOnErr(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", red.Render("ERROR"), err)
	os.Exit(1)
}

var errNotLoggedIn = errors.New("not logged in")
