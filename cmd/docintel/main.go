// Command docintel classifies documents and extracts their fields.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/docintel/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docintel/internal/adapters/driving/cli"
	"github.com/custodia-labs/docintel/internal/bootstrap"
	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

func main() {
	cli.SetSettingsOpener(openSettings)
	cli.SetServiceBuilder(buildServices)
	os.Exit(cli.Execute())
}

func openSettings(path string) (driven.SettingsStore, error) {
	if path != "" {
		return file.NewSettingsStoreAt(path), nil
	}
	store, err := file.NewSettingsStore("")
	if err != nil {
		return nil, err
	}
	return store, nil
}

func buildServices(ctx context.Context, settings domain.Settings) (*cli.Services, error) {
	c, err := bootstrap.New(ctx, settings, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return &cli.Services{
		Classifier: c.Classifier,
		Pipeline:   c.Pipeline,
		Ingest:     c.Ingest,
		Index:      c.Index,
		Warmup:     c.Warmup,
		Types:      c.Catalog,
		Close:      c.Close,
	}, nil
}
