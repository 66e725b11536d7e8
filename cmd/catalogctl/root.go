// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"catalog/internal/app"
	"catalog/internal/config"
	"catalog/internal/storage"
)

// cli carries the wired application between the root hooks and the
// subcommands.
type cli struct {
	app *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "catalogctl",
		Short: "Manage the category hierarchy",
		Long: `catalogctl imports, exports and maintains the category hierarchy.

Backends are chosen with the same environment variables as the server
(STORE_BACKEND, POSTGRES_*, MONGO_*, TREE_CACHE_BACKEND, VALKEY_*); a .env
file in the working directory is loaded first. Files named s3://bucket/key
are read from and written to object storage (S3_*).

Example workflow:
  1. Validate: catalogctl import categories.yaml --dry-run
  2. Import:   catalogctl import categories.yaml
  3. Inspect:  catalogctl tree
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// help and completion need no backend.
			if cmd.Name() == "help" || cmd.Name() == "completion" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
				return nil
			}
			return c.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return c.close()
		},
	}

	root.AddCommand(
		c.importCmd(),
		c.exportCmd(),
		c.treeCmd(),
		c.repairCmd(),
		c.cacheLogCmd(),
	)
	return root
}

func (c *cli) open(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Logs go to stderr so command output can be piped.
	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if ctx == nil {
		ctx = context.Background()
	}
	c.app, err = app.New(ctx, cfg)
	return err
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close(context.Background())
}

// objects returns the object storage client, failing when S3 is not
// configured.
func (c *cli) objects() (*storage.Client, error) {
	cfg := c.app.Config
	client, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("object storage is not configured (set S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY)")
	}
	return client, nil
}
