// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package seed loads the bundled sample catalog into an empty store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"catalog/internal/importer"
	"catalog/internal/models"
)

//go:embed catalog.yaml
var sampleCatalog []byte

// Counter reports how many categories are stored.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Items returns the sample catalog as import items.
func Items() ([]models.ImportItem, error) {
	items, err := importer.Decode(bytes.NewReader(sampleCatalog))
	if err != nil {
		return nil, fmt.Errorf("decode sample catalog: %w", err)
	}
	return items, nil
}

// Seed imports the sample catalog when the store holds no categories. It is
// a no-op otherwise.
func Seed(ctx context.Context, store Counter, im *importer.Importer) error {
	count, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}
	if count > 0 {
		slog.Info("category store already seeded, skipping", "categories", count)
		return nil
	}

	items, err := Items()
	if err != nil {
		return err
	}
	res, err := im.Import(ctx, items, false)
	if err != nil {
		return fmt.Errorf("seed import: %w", err)
	}
	if res.Failed > 0 {
		return fmt.Errorf("seed import: %d of %d categories failed: %v", res.Failed, res.TotalProcessed, res.Errors)
	}

	slog.Info("category store seeded with sample catalog", "categories", res.Successful)
	return nil
}
