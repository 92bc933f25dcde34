package main

import (
	"fmt"
	"os"

	"github.com/openmined/projectsync/internal/client/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newInitCmd())
}

func newInitCmd() *cobra.Command {
	var username string
	var dataDir string
	var apiRoot string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file without logging in",
		Run: func(cmd *cobra.Command, args []string) {
			path := resolveConfigPath(cmd)

			if _, err := config.LoadFromFile(path); err == nil {
				fmt.Printf("%s: already initialized at %s\n", yellow.Render("SKIPPED"), path)
				return
			}

			if username == "" {
				fmt.Printf("%s: %s\n", red.Render("ERROR"), "username is required")
				os.Exit(1)
			}

			cfg := &config.Config{
				Path:     path,
				Username: username,
				DataDir:  dataDir,
				APIRoot:  apiRoot,
			}

			if err := cfg.Validate(); err != nil {
				fmt.Printf("%s: %s\n", red.Render("ERROR"), err)
				os.Exit(1)
			}
			if err := cfg.Save(); err != nil {
				fmt.Printf("%s: %s\n", red.Render("ERROR"), err)
				os.Exit(1)
			}

			fmt.Println(green.Render("config initialized"))
			printConfig(cfg)
			fmt.Println(gray.Render("run 'projectsync login' to obtain a bearer token"))
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&dataDir, "data-dir", "d", config.DefaultDataDir, "root directory for local project clones")
	cmd.Flags().StringVarP(&apiRoot, "server", "s", config.DefaultAPIRoot, "server API root")

	return cmd
}

func printConfig(cfg *config.Config) {
	fmt.Printf("%s%s\n", gray.Render("Config   "), cyan.Render(cfg.Path))
	fmt.Printf("%s%s\n", gray.Render("Username "), cyan.Render(cfg.Username))
	fmt.Printf("%s%s\n", gray.Render("Data Dir "), cyan.Render(cfg.DataDir))
	fmt.Printf("%s%s\n", gray.Render("Server   "), cyan.Render(cfg.APIRoot))
}
