package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsonbstore/docdb/internal/config"
	"github.com/jsonbstore/docdb/internal/dbpool"
)

func newBootstrapCmd() *cobra.Command {
	var configPath string
	var tables []string

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Connect to Postgres and create the backing table for each named collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx := context.Background()
			pool, err := dbpool.Open(ctx, &cfg.Database)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pool.Close()

			for _, table := range tables {
				if err := pool.EnsureTable(ctx, table); err != nil {
					return fmt.Errorf("bootstrap %s: %w", table, err)
				}
				fmt.Printf("ok: %s\n", table)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "directory to search for config.yaml")
	cmd.Flags().StringSliceVar(&tables, "collection", nil, "collection name to bootstrap (repeatable)")
	return cmd
}
