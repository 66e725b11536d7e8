// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"catalog/internal/models"
	"catalog/internal/storage"
)

func (c *cli) exportCmd() *cobra.Command {
	var (
		batchSize int
		format    string
		output    string
		presign   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every category",
		Long: `Export every category, shallowest first.

The yaml format writes import items (parents referenced by slug), so its
output can be fed back to "catalogctl import". The json format writes the
full stored records.

An output of the form s3://bucket/key uploads the export to object
storage; --presign prints a time-limited download link for it.

Example:
  catalogctl export --format yaml -o backup.yaml
  catalogctl export --format json --batch-size 500
  catalogctl export -o s3://catalog-exports/2026-10-01.yaml --presign 24h
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := c.app.Service.ExportAll(cmd.Context(), batchSize)
			if err != nil {
				return err
			}

			if storage.IsObjectURI(output) {
				return c.uploadExport(cmd, output, format, cats, presign)
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := writeExport(w, format, cats); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d categories\n", len(cats))
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Records read per batch (default EXPORT_BATCH_SIZE)")
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format (yaml, json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file or s3://bucket/key instead of stdout")
	cmd.Flags().DurationVar(&presign, "presign", 0, "Print a download link valid this long (s3 output only)")
	return cmd
}

func (c *cli) uploadExport(cmd *cobra.Command, location, format string, cats []models.Category, presign time.Duration) error {
	client, err := c.objects()
	if err != nil {
		return err
	}
	obj, err := storage.ParseObjectURI(location, client.Bucket())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := writeExport(&buf, format, cats); err != nil {
		return err
	}
	if err := client.Upload(cmd.Context(), obj, contentType(format), buf.Bytes()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d categories to %s\n", len(cats), obj)

	if presign > 0 {
		url, err := client.PresignedURL(cmd.Context(), obj, presign)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
	}
	return nil
}

func contentType(format string) string {
	if format == "json" {
		return "application/json"
	}
	return "application/yaml"
}

func writeExport(w io.Writer, format string, cats []models.Category) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string][]models.ImportItem{"categories": toImportItems(cats)}); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if cats == nil {
			cats = []models.Category{}
		}
		if err := enc.Encode(cats); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (valid: yaml, json)", format)
	}
}

// toImportItems converts stored categories into import items that reference
// their parent by slug.
func toImportItems(cats []models.Category) []models.ImportItem {
	slugs := make(map[string]string, len(cats))
	for _, c := range cats {
		slugs[c.ID] = c.Slug
	}

	items := make([]models.ImportItem, 0, len(cats))
	for _, c := range cats {
		active := c.IsActive
		item := models.ImportItem{
			Slug:             c.Slug,
			Name:             c.Name,
			ParentSlug:       slugs[c.ParentIDValue()],
			ShortDescription: c.ShortDescription,
			FullDescription:  c.FullDescription,
			DisplayOrder:     c.DisplayOrder,
			SEO:              c.SEO,
		}
		if !active {
			item.IsActive = &active
		}
		items = append(items, item)
	}
	return items
}
