// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"catalog/internal/store"
)

func (c *cli) cacheLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "cache-log",
		Short: "Show recent tree cache invalidations",
		Long: `List the most recent tree cache invalidations, newest first, with the
write that caused each one and the category it touched.

Example:
  catalogctl cache-log --limit 50
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			entries, err := c.app.CacheLog.RecentEntries(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printCacheLog(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func printCacheLog(w io.Writer, entries []store.CacheLogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No invalidations logged")
		return
	}
	for _, e := range entries {
		entity := e.EntityID
		if entity == "" {
			entity = "-"
		}
		fmt.Fprintf(w, "%s  %-8s %s\n", e.InvalidatedAt.Format("2006-01-02 15:04:05"), e.Action, entity)
	}
}
