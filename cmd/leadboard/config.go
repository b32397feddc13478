package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psilva/leadboard/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

func init() {
	configValidateCmd.Flags().StringVarP(&configFile, "config", "c", "/etc/leadboard/config.yaml", "Path to configuration file")
	configCmd.AddCommand(configValidateCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("  Listen address: %s\n", cfg.Server.ListenAddr)
	fmt.Printf("  Database path: %s\n", cfg.Database.Path)
	fmt.Printf("  Journal path: %s\n", cfg.Journal.Path)
	fmt.Printf("  Allowed origins: %v\n", cfg.CORS.AllowedOrigins)
	fmt.Printf("  Unipile configured: %v\n", cfg.Unipile.DSN != "")

	return nil
}
