// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Tier CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tier",
		Short: "Tier - team registration for hackathons",
		Long: `Tier lets people register an account, log in, and create or browse
teams. Accounts are stored in PostgreSQL; passwords are hashed off the
request path by a bounded worker pool.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/tier/config.yaml)")

	cmd.AddCommand(newServeCmd(nil))
	cmd.AddCommand(newMigrateCmd(nil))

	return cmd
}
