// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"catalog/internal/importer"
	"catalog/internal/models"
	"catalog/internal/storage"
)

func (c *cli) importCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import categories from a YAML or JSON file",
		Long: `Import a batch of categories whose parents are referenced by slug.

Items may appear in any order; parents are created before their children.
Use "-" to read from standard input or s3://bucket/key to read from
object storage. Nested "children" lists inherit the enclosing slug as
parent.

Example:
  catalogctl import categories.yaml --dry-run
  cat categories.json | catalogctl import -
  catalogctl import s3://catalog-exports/2026-10-01.yaml
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.readItems(cmd.Context(), args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("%s contains no categories", args[0])
			}

			res, err := c.app.Importer.Import(cmd.Context(), items, dryRun)
			if err != nil {
				return err
			}
			printImportResult(cmd.OutOrStdout(), res)
			if res.Failed > 0 {
				return fmt.Errorf("%d of %d categories failed", res.Failed, res.TotalProcessed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate ordering, slugs and parents without writing")
	return cmd
}

func (c *cli) readItems(ctx context.Context, path string, stdin io.Reader) ([]models.ImportItem, error) {
	switch {
	case path == "-":
		return importer.Decode(stdin)
	case storage.IsObjectURI(path):
		client, err := c.objects()
		if err != nil {
			return nil, err
		}
		obj, err := storage.ParseObjectURI(path, client.Bucket())
		if err != nil {
			return nil, err
		}
		data, err := client.Download(ctx, obj)
		if err != nil {
			return nil, err
		}
		return importer.Decode(bytes.NewReader(data))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()
	return importer.Decode(f)
}

func printImportResult(w io.Writer, res *models.ImportResult) {
	mode := "Imported"
	if res.DryRun {
		mode = "Validated"
	}
	fmt.Fprintf(w, "%s %d of %d categories (%d failed)\n", mode, res.Successful, res.TotalProcessed, res.Failed)

	for _, created := range res.Created {
		fmt.Fprintf(w, "  + %-40s %s\n", created.Slug, created.ID)
	}
	if len(res.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
}
