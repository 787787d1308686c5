package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and edit the configuration file.

Settings are read from ~/.docintel/config.toml unless --config is given.
Environment variables (also read from .env files) override the file:
DOCINTEL_INDEX_BACKEND, MARQO_URL, QDRANT_HOST, DATABASE_URL, OLLAMA_HOST,
OPENAI_API_KEY and others.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to choose the index backend and AI providers.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	settings, err := currentSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if jsonOutput {
		masked := settings
		masked.Embedding.APIKey = maskSecret(masked.Embedding.APIKey)
		masked.LLM.APIKey = maskSecret(masked.LLM.APIKey)
		masked.Index.PostgresDSN = maskSecret(masked.Index.PostgresDSN)
		return printJSON(cmd, masked)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Current Settings")
	fmt.Fprintln(w, "================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Index]")
	fmt.Fprintf(w, "  Backend: %s\n", settings.Index.Backend.Description())
	fmt.Fprintf(w, "  Name: %s\n", settings.Index.Name)
	switch settings.Index.Backend {
	case domain.IndexBackendMarqo:
		fmt.Fprintf(w, "  URL: %s\n", settings.Index.MarqoURL)
		fmt.Fprintf(w, "  Model: %s\n", settings.Index.MarqoModel)
	case domain.IndexBackendQdrant:
		fmt.Fprintf(w, "  Address: %s:%d\n", settings.Index.QdrantHost, settings.Index.QdrantPort)
	case domain.IndexBackendSQLite:
		fmt.Fprintf(w, "  Data dir: %s\n", settings.Index.DataDir)
	case domain.IndexBackendPGVector:
		fmt.Fprintf(w, "  DSN: %s\n", maskSecret(settings.Index.PostgresDSN))
	}
	fmt.Fprintf(w, "  Call timeout: %s\n", settings.Index.CallTimeout)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Embedding]")
	if settings.Index.Backend.RequiresEmbedding() {
		printProvider(w, settings.Embedding.Provider, settings.Embedding.Model,
			settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
		fmt.Fprintf(w, "  Dimensions: %d\n", settings.Embedding.Dimensions)
	} else {
		fmt.Fprintln(w, "  Not used (the index embeds documents itself)")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[LLM]")
	printProvider(w, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Classifier]")
	fmt.Fprintf(w, "  Neighbours: %d\n", settings.Classifier.Limit)
	fmt.Fprintf(w, "  Score threshold: %.2f\n", settings.Classifier.ScoreThreshold)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[Warm-up]")
	fmt.Fprintf(w, "  Data dir: %s\n", settings.Warmup.DataDir)
	fmt.Fprintf(w, "  Batch size: %d\n", settings.Warmup.BatchSize)
	fmt.Fprintf(w, "  Ready attempts: %d\n", settings.Warmup.Retry.MaxAttempts)
	return nil
}

func printProvider(w io.Writer, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	fmt.Fprintf(w, "  Provider: %s\n", provider)
	if model != "" {
		fmt.Fprintf(w, "  Model: %s\n", model)
	}
	if baseURL != "" {
		fmt.Fprintf(w, "  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			fmt.Fprintf(w, "  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			fmt.Fprintln(w, "  API Key: (not set)")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	fmt.Fprintf(w, "  Status: %s\n", status)
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	store, err := settingsStore()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), store.Path())
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	store, err := settingsStore()
	if err != nil {
		return err
	}
	settings, err := store.Load()
	if err != nil {
		settings = domain.DefaultSettings()
	}

	w := cmd.OutOrStdout()
	in := cmd.InOrStdin()
	reader := bufio.NewReader(in)

	fmt.Fprintln(w, "docintel Setup Wizard")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintln(w)

	// Step 1: Index backend
	fmt.Fprintln(w, "Step 1: Select Index Backend")
	fmt.Fprintln(w, "----------------------------")
	backends := []domain.IndexBackendKind{
		domain.IndexBackendSQLite,
		domain.IndexBackendQdrant,
		domain.IndexBackendPGVector,
		domain.IndexBackendMarqo,
		domain.IndexBackendMemory,
	}
	for i, b := range backends {
		fmt.Fprintf(w, "  %d. %s\n", i+1, b.Description())
	}
	fmt.Fprint(w, "\nEnter choice [1]: ")
	backend := backends[parseChoice(readLine(reader), len(backends), 1)-1]
	settings.Index.Backend = backend

	switch backend {
	case domain.IndexBackendMarqo:
		settings.Index.MarqoURL = prompt(w, reader, "Marqo URL", settings.Index.MarqoURL)
	case domain.IndexBackendQdrant:
		settings.Index.QdrantHost = prompt(w, reader, "Qdrant host", settings.Index.QdrantHost)
		port := prompt(w, reader, "Qdrant gRPC port", strconv.Itoa(settings.Index.QdrantPort))
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			settings.Index.QdrantPort = p
		}
	case domain.IndexBackendSQLite:
		settings.Index.DataDir = prompt(w, reader, "Data directory (empty for ~/.docintel)", settings.Index.DataDir)
	case domain.IndexBackendPGVector:
		settings.Index.PostgresDSN = prompt(w, reader, "PostgreSQL DSN", settings.Index.PostgresDSN)
	}
	fmt.Fprintf(w, "Index backend: %s\n\n", backend.Description())

	// Step 2: Embedding provider
	if backend.RequiresEmbedding() {
		fmt.Fprintln(w, "Step 2: Configure Embedding Provider")
		fmt.Fprintln(w, "------------------------------------")
		providers := []domain.AIProvider{domain.AIProviderHashing, domain.AIProviderOllama, domain.AIProviderOpenAI}
		settings.Embedding = configureEmbedding(w, in, reader, providers, settings.Embedding)
	} else {
		fmt.Fprintln(w, "Step 2: Embedding Provider (skipped)")
		fmt.Fprintln(w, "------------------------------------")
		fmt.Fprintln(w, "Marqo embeds documents itself.")
	}
	fmt.Fprintln(w)

	// Step 3: LLM provider
	fmt.Fprintln(w, "Step 3: Configure LLM Provider (field extraction)")
	fmt.Fprintln(w, "-------------------------------------------------")
	llms := []domain.AIProvider{domain.AIProviderNone, domain.AIProviderOllama, domain.AIProviderOpenAI}
	for i, p := range llms {
		fmt.Fprintf(w, "  %d. %s\n", i+1, p)
	}
	fmt.Fprint(w, "\nEnter choice [1]: ")
	llm := llms[parseChoice(readLine(reader), len(llms), 1)-1]
	prevKey := settings.LLM.APIKey
	settings.LLM = domain.LLMSettings{Provider: llm}
	if llm != domain.AIProviderNone {
		settings.LLM.Model = prompt(w, reader, "Model", domain.DefaultLLMModels()[llm])
		if llm == domain.AIProviderOllama {
			settings.LLM.BaseURL = prompt(w, reader, "Ollama URL", "http://localhost:11434")
		}
		if llm.RequiresAPIKey() {
			settings.LLM.APIKey = promptSecret(w, in, reader, "API key", prevKey)
		}
	}
	fmt.Fprintln(w)

	// Step 4: Corpus
	fmt.Fprintln(w, "Step 4: Warm-up Corpus")
	fmt.Fprintln(w, "----------------------")
	settings.Warmup.DataDir = prompt(w, reader, "Corpus directory", settings.Warmup.DataDir)
	fmt.Fprintln(w)

	if err := store.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	loadedSettings = nil
	fmt.Fprintf(w, "Settings saved to %s\n", store.Path())
	return nil
}

func configureEmbedding(
	w io.Writer, in io.Reader, reader *bufio.Reader,
	providers []domain.AIProvider, current domain.EmbeddingSettings,
) domain.EmbeddingSettings {
	for i, p := range providers {
		fmt.Fprintf(w, "  %d. %s\n", i+1, p)
	}
	fmt.Fprint(w, "\nEnter choice [1]: ")
	provider := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	out := domain.EmbeddingSettings{Provider: provider, CacheTTL: current.CacheTTL}
	out.Model = prompt(w, reader, "Model", domain.DefaultEmbeddingModels()[provider])
	switch provider {
	case domain.AIProviderOllama:
		out.BaseURL = prompt(w, reader, "Ollama URL", "http://localhost:11434")
	case domain.AIProviderOpenAI:
		out.APIKey = promptSecret(w, in, reader, "API key", current.APIKey)
	}

	if dims, ok := domain.EmbeddingDimensions()[out.Model]; ok {
		out.Dimensions = dims
	} else {
		def := current.Dimensions
		if def == 0 {
			def = domain.DefaultSettings().Embedding.Dimensions
		}
		answer := prompt(w, reader, "Vector dimensions", strconv.Itoa(def))
		out.Dimensions = parseChoice(answer, 1<<16, def)
	}
	return out
}

func prompt(w io.Writer, reader *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Fprintf(w, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(w, "%s: ", label)
	}
	if input := readLine(reader); input != "" {
		return input
	}
	return def
}

func promptSecret(w io.Writer, in io.Reader, reader *bufio.Reader, label, current string) string {
	if current != "" {
		fmt.Fprintf(w, "%s [%s]: ", label, maskAPIKey(current))
	} else {
		fmt.Fprintf(w, "%s: ", label)
	}
	input := readPassword(in, reader)
	fmt.Fprintln(w)
	if input == "" {
		return current
	}
	return input
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return maskAPIKey(s)
}
