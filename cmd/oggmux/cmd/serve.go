/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oggmux/oggmux/pkg/api"
	"github.com/oggmux/oggmux/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the oggmux REST API server. The server exposes stream
inspection and repagination over HTTP, protected by an API key, with
Prometheus metrics at /metrics.

On first run a configuration file with a generated API key is written
to the config path.

Examples:
  oggmux serve
  oggmux serve --port 9300 --api-key mysecretkey`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		var cfg *config.Config
		var err error
		if config.ConfigExists(configPath) {
			cfg, err = config.LoadConfig(configPath)
		} else {
			cfg, err = config.BootstrapConfig(configPath, "")
			if err == nil {
				cmd.Printf("Wrote new configuration to %s\n", configPath)
			}
		}
		if err != nil {
			cmd.Printf("Error loading configuration: %v\n", err)
			return
		}

		// Flags override the file.
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if apiKey, _ := cmd.Flags().GetString("api-key"); apiKey != "" {
			cfg.Security.APIKey = apiKey
		}

		if cfg.Security.APIKey == "" || cfg.Security.APIKey == "auto" {
			cmd.Println("Error: no API key configured; pass --api-key or edit the config file")
			return
		}

		serverConfig := api.ServerConfig{
			Port:         cfg.Port,
			Bind:         cfg.Bind,
			APIKey:       cfg.Security.APIKey,
			MaxBodyBytes: cfg.Limits.MaxBodyBytes,
		}

		if err := api.StartServer(serverConfig); err != nil {
			fmt.Printf("Error starting server: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 9300, "Port to listen on")
	serveCmd.Flags().String("api-key", "", "API key for authentication (overrides config)")
	serveCmd.Flags().String("config", "", "Configuration file path")
}
