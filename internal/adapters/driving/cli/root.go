// Package cli implements the docintel command line interface with cobra.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

var (
	configPath string
	verbose    bool
	jsonOutput bool
)

// Services holds the driving ports the commands use.
type Services struct {
	Classifier driving.ClassificationService
	Pipeline   driving.PipelineService
	Ingest     driving.IngestionService
	Index      driving.IndexService
	Warmup     driving.WarmupService
	Types      driving.TypeService

	// Close releases the adapters behind the services. May be nil.
	Close func() error
}

// ServiceBuilder builds services from the effective settings.
type ServiceBuilder func(ctx context.Context, settings domain.Settings) (*Services, error)

// SettingsOpener returns the settings store for a config file path.
// An empty path selects the default location.
type SettingsOpener func(path string) (driven.SettingsStore, error)

var (
	services       *Services
	buildServices  ServiceBuilder
	openSettings   SettingsOpener
	loadedSettings *domain.Settings
)

var rootCmd = &cobra.Command{
	Use:   "docintel",
	Short: "Classify documents and extract their fields",
	Long: `docintel classifies documents by comparing them with labelled examples
in a semantic index, falling back to keyword matching when the index has
nothing similar or cannot be reached. Fields of the detected type are then
extracted with a language model.

Populate the index from a labelled corpus with "docintel warmup", where
every sub-directory name is the document type of the files inside it.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.docintel/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
}

// SetServiceBuilder sets how services are built on first use.
func SetServiceBuilder(b ServiceBuilder) {
	buildServices = b
}

// SetSettingsOpener sets how the settings store is opened.
func SetSettingsOpener(o SettingsOpener) {
	openSettings = o
}

// SetServices injects prebuilt services, bypassing the builder.
func SetServices(s *Services) {
	services = s
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeServices(); cerr != nil {
		logger.Warn("Closing services: %v", cerr)
	}
	_ = logger.Close()
	if err != nil {
		return 1
	}
	return 0
}

// settingsStore opens the store for --config.
func settingsStore() (driven.SettingsStore, error) {
	if openSettings == nil {
		return nil, errors.New("settings store not configured")
	}
	return openSettings(configPath)
}

// currentSettings loads the effective settings once.
func currentSettings() (domain.Settings, error) {
	if loadedSettings != nil {
		return *loadedSettings, nil
	}
	store, err := settingsStore()
	if err != nil {
		return domain.Settings{}, err
	}
	settings, err := store.Load()
	if err != nil {
		return domain.Settings{}, err
	}
	if settings.Log.File != "" {
		if err := logger.SetFile(settings.Log.File); err != nil {
			return domain.Settings{}, err
		}
	}
	loadedSettings = &settings
	return settings, nil
}

// getServices builds the services on first use.
func getServices(cmd *cobra.Command) (*Services, error) {
	if services != nil {
		return services, nil
	}
	if buildServices == nil {
		return nil, errors.New("services not configured")
	}
	settings, err := currentSettings()
	if err != nil {
		return nil, err
	}
	svc, err := buildServices(cmd.Context(), settings)
	if err != nil {
		return nil, err
	}
	services = svc
	return services, nil
}

func closeServices() error {
	if services == nil || services.Close == nil {
		return nil
	}
	err := services.Close()
	services = nil
	return err
}
