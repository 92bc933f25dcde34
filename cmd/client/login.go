package main

import (
	"context"
	"fmt"

	"github.com/openmined/projectsync/internal/client/config"
	"github.com/openmined/projectsync/internal/client/syncapi"
	"github.com/openmined/projectsync/internal/utils"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newLoginCmd())
}

func newLoginCmd() *cobra.Command {
	var username string
	var apiRoot string
	var dataDir string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist a bearer token",
		Run: func(cmd *cobra.Command, args []string) {
			configPath := resolveConfigPath(cmd)

			if cfg, err := config.LoadFromFile(configPath); err == nil && cfg.RefreshToken != "" {
				if !quiet {
					fmt.Println(green.Render("**Already logged in**"))
					printConfig(cfg)
				}
				return
			}

			resolvedDataDir, err := utils.ResolvePath(dataDir)
			exitOnErr(err)

			resolvedConfigPath, err := utils.ResolvePath(configPath)
			exitOnErr(err)

			var token string
			api := syncapi.New(apiRoot, syncapi.StaticCredentials(""), machineClientID())
			defer api.Close()

			onSubmit := func(usernameInput, password string) error {
				resp, err := api.Login(context.Background(), usernameInput, password)
				if err != nil {
					return err
				}
				username = usernameInput
				token = resp.Token
				return nil
			}

			err = RunLoginTUI(LoginTUIOpts{
				Username:          username,
				APIRoot:           apiRoot,
				DataDir:           resolvedDataDir,
				ConfigPath:        resolvedConfigPath,
				PasswordSubmitFn:  onSubmit,
				UsernameValidator: utils.IsNonEmpty,
				PasswordValidator: utils.IsNonEmpty,
			})
			exitOnErr(err)

			if token == "" {
				exitOnErr(fmt.Errorf("no bearer token returned by server"))
			}

			cfg := &config.Config{
				Path:         resolvedConfigPath,
				Username:     username,
				DataDir:      resolvedDataDir,
				APIRoot:      apiRoot,
				RefreshToken: token,
			}

			exitOnErr(cfg.Validate())
			exitOnErr(cfg.Save())

			if !quiet {
				fmt.Println(green.Render("logged in"))
				printConfig(cfg)
			}
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&dataDir, "data-dir", "d", config.DefaultDataDir, "root directory for local project clones")
	cmd.Flags().StringVarP(&apiRoot, "server", "s", config.DefaultAPIRoot, "server API root")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "disable output")

	return cmd
}
