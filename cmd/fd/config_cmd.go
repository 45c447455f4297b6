package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage the CLI configuration file",
	GroupID: "system",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadClientConfig()
		if err != nil {
			return err
		}
		fmt.Printf("server:   %s\n", cfg.Server)
		if cfg.Token != "" {
			fmt.Println("token:    (set)")
		}
		if cfg.NATSURL != "" {
			fmt.Printf("nats_url: %s\n", cfg.NATSURL)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save server connection settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadClientConfig()
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetString("server"); v != "" {
			cfg.Server = v
		}
		if v, _ := cmd.Flags().GetString("token"); v != "" {
			cfg.Token = v
		}
		if v, _ := cmd.Flags().GetString("nats-url"); v != "" {
			cfg.NATSURL = v
		}
		if err := saveClientConfig(cfg); err != nil {
			return err
		}
		path, _ := clientConfigPath()
		fmt.Printf("Saved %s\n", path)
		return nil
	},
}

func init() {
	configSetCmd.Flags().String("server", "", "server URL")
	configSetCmd.Flags().String("token", "", "bearer token")
	configSetCmd.Flags().String("nats-url", "", "NATS URL for live watches")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
