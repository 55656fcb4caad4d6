package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hospital-portal/internal/config"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "hospital-portal",
		Short:         "Hospital website with back office and chat assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional config file (yaml, json or toml)")
	root.AddCommand(serveCmd(), migrateCmd(), createAdminCmd(), watchCmd(), chatCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
