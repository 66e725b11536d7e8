// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"catalog/internal/models"
)

func (c *cli) treeCmd() *cobra.Command {
	var (
		rebuild bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the cached category tree",
		Long: `Print the active category tree from the tree cache, building a snapshot
when none is cached.

Example:
  catalogctl tree
  catalogctl tree --rebuild --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := c.app.Service.Tree(cmd.Context(), rebuild)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			fmt.Fprintf(w, "Tree version %d, %d categories, built %s\n\n",
				snap.Version, snap.NodeCount(), snap.LastUpdated.Format("2006-01-02 15:04:05"))
			printNodes(w, snap.Tree, 0)
			return nil
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Rebuild the snapshot before printing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")
	return cmd
}

// printNodes writes one line per node, children indented under their
// parent, siblings by display order then name.
func printNodes(w io.Writer, nodes map[string]*models.CategoryTreeNode, depth int) {
	for _, n := range sortedNodes(nodes) {
		fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", depth), n.Name, n.Slug)
		printNodes(w, n.Children, depth+1)
	}
}

func sortedNodes(nodes map[string]*models.CategoryTreeNode) []*models.CategoryTreeNode {
	out := make([]*models.CategoryTreeNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out
}
