package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/BTreeMap/BrandDiscovery/internal/api"
	"github.com/BTreeMap/BrandDiscovery/internal/genai"
	"github.com/BTreeMap/BrandDiscovery/internal/lockfile"
	"github.com/BTreeMap/BrandDiscovery/internal/store"
	"github.com/BTreeMap/BrandDiscovery/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for BrandDiscovery state data
	DefaultStateDir = "/var/lib/brand-discovery"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "brand.db"
)

func main() {
	config := loadEnvironmentConfig()
	initializeLogger(config.LogLevel)

	flags, err := parseCommandLineFlags(flag.CommandLine, os.Args[1:], config)
	if err != nil {
		slog.Error("Failed to parse flags", "error", err)
		os.Exit(2)
	}

	lock, err := acquireStateLock(flags)
	if err != nil {
		slog.Error("Failed to lock state directory", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	storeOpts := buildStoreOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	apiOpts := buildAPIOptions(flags)

	slog.Info("Bootstrapping BrandDiscovery", "provider", flags.provider, "api_addr", flags.apiAddr, "base_url", flags.baseURL)
	slog.Debug("Module options counts", "store", len(storeOpts), "genai", len(genaiOpts), "api", len(apiOpts))
	if err := api.Run(storeOpts, genaiOpts, apiOpts); err != nil {
		slog.Error("BrandDiscovery failed to run", "error", err)
		lock.Release()
		os.Exit(1)
	}
	slog.Info("BrandDiscovery exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir         string
	DatabaseURL      string
	Provider         string
	OpenAIKey        string
	AnthropicKey     string
	Model            string
	Temperature      float64
	MaxTokens        int64
	APIAddr          string
	BaseURL          string
	SystemPromptFile string
	LogLevel         string
	DebugMode        bool
}

// Flags holds resolved command line values
type Flags struct {
	stateDir         string
	dbDSN            string
	provider         string
	openaiKey        string
	anthropicKey     string
	model            string
	temperature      float64
	maxTokens        int64
	apiAddr          string
	baseURL          string
	systemPromptFile string
	debug            bool
}

// initializeLogger installs a text handler at the configured level
func initializeLogger(level string) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(level)}))
	slog.SetDefault(logger)
}

// parseLogLevel maps BRAND_LOG_LEVEL to a slog level, defaulting to debug
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:         os.Getenv("BRAND_STATE_DIR"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		Provider:         strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
		Model:            os.Getenv("LLM_MODEL"),
		Temperature:      util.ParseFloatEnv("LLM_TEMPERATURE", genai.DefaultTemperature),
		MaxTokens:        util.ParseIntEnv("LLM_MAX_TOKENS", genai.DefaultMaxTokens),
		APIAddr:          os.Getenv("API_ADDR"),
		BaseURL:          os.Getenv("APP_BASE_URL"),
		SystemPromptFile: os.Getenv("SYSTEM_PROMPT_FILE"),
		LogLevel:         os.Getenv("BRAND_LOG_LEVEL"),
		DebugMode:        util.ParseBoolEnv("BRAND_DEBUG", false),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No BRAND_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.APIAddr == "" {
		config.APIAddr = api.DefaultAddr
	}
	if config.BaseURL == "" {
		config.BaseURL = api.DefaultBaseURL
	}
	if config.Provider == "" {
		config.Provider = resolveProvider(config.OpenAIKey, config.AnthropicKey)
		slog.Debug("No LLM_PROVIDER set, inferred from available keys", "provider", config.Provider)
	}

	slog.Debug("environment variables loaded",
		"BRAND_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"LLM_PROVIDER", config.Provider,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"ANTHROPIC_API_KEY_SET", config.AnthropicKey != "",
		"LLM_MODEL", config.Model,
		"API_ADDR", config.APIAddr,
		"APP_BASE_URL", config.BaseURL)

	return config
}

// resolveProvider picks a backend from the keys present; without keys the
// offline mock is used.
func resolveProvider(openaiKey, anthropicKey string) string {
	switch {
	case openaiKey != "":
		return string(genai.ProviderOpenAI)
	case anthropicKey != "":
		return string(genai.ProviderAnthropic)
	default:
		slog.Warn("No model API key configured, using the offline mock model")
		return string(genai.ProviderMock)
	}
}

// parseCommandLineFlags parses args with environment values as defaults
func parseCommandLineFlags(fs *flag.FlagSet, args []string, config Config) (Flags, error) {
	var flags Flags
	fs.StringVar(&flags.stateDir, "state-dir", config.StateDir, "state directory for BrandDiscovery data (overrides $BRAND_STATE_DIR)")
	fs.StringVar(&flags.dbDSN, "db-dsn", config.DatabaseURL, "database DSN; Postgres URL or SQLite path (overrides $DATABASE_URL)")
	fs.StringVar(&flags.provider, "llm-provider", config.Provider, "model backend: openai, anthropic or mock (overrides $LLM_PROVIDER)")
	fs.StringVar(&flags.openaiKey, "openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)")
	fs.StringVar(&flags.anthropicKey, "anthropic-api-key", config.AnthropicKey, "Anthropic API key (overrides $ANTHROPIC_API_KEY)")
	fs.StringVar(&flags.model, "model", config.Model, "model name (overrides $LLM_MODEL)")
	fs.Float64Var(&flags.temperature, "temperature", config.Temperature, "sampling temperature (overrides $LLM_TEMPERATURE)")
	fs.Int64Var(&flags.maxTokens, "max-tokens", config.MaxTokens, "maximum reply tokens (overrides $LLM_MAX_TOKENS)")
	fs.StringVar(&flags.apiAddr, "api-addr", config.APIAddr, "API server address (overrides $API_ADDR)")
	fs.StringVar(&flags.baseURL, "base-url", config.BaseURL, "public base URL for share links (overrides $APP_BASE_URL)")
	fs.StringVar(&flags.systemPromptFile, "system-prompt-file", config.SystemPromptFile, "persona prompt file (overrides $SYSTEM_PROMPT_FILE)")
	fs.BoolVar(&flags.debug, "debug", config.DebugMode, "write model calls to <state-dir>/debug (overrides $BRAND_DEBUG)")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	// Default to SQLite inside the resolved state directory
	if flags.dbDSN == "" {
		flags.dbDSN = filepath.Join(flags.stateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", flags.dbDSN)
	}
	if flags.temperature < 0 || flags.temperature > 2 {
		return Flags{}, fmt.Errorf("temperature %v out of range [0, 2]", flags.temperature)
	}
	if flags.maxTokens <= 0 {
		return Flags{}, errors.New("max-tokens must be positive")
	}

	slog.Debug("flags parsed",
		"stateDir", flags.stateDir,
		"dbDSN_set", flags.dbDSN != "",
		"provider", flags.provider,
		"model", flags.model,
		"apiAddr", flags.apiAddr,
		"baseURL", flags.baseURL,
		"debug", flags.debug)
	return flags, nil
}

// acquireStateLock locks the state directory for file-backed stores. Postgres
// deployments may run several replicas and take no lock.
func acquireStateLock(flags Flags) (*lockfile.Lock, error) {
	if store.DetectDSNType(flags.dbDSN) == "postgres" {
		return nil, nil
	}
	return lockfile.Acquire(flags.stateDir)
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if flags.dbDSN == "" {
		slog.Debug("No database DSN provided, will use in-memory store")
		return storeOpts
	}
	if store.DetectDSNType(flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql")
		storeOpts = append(storeOpts, store.WithPostgresDSN(flags.dbDSN))
	} else {
		slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", flags.dbDSN)
		storeOpts = append(storeOpts, store.WithSQLiteDSN(flags.dbDSN))
	}
	return storeOpts
}

// buildGenAIOptions constructs model client options for the selected provider
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	switch genai.Provider(flags.provider) {
	case genai.ProviderOpenAI:
		if flags.openaiKey != "" {
			genaiOpts = append(genaiOpts, genai.WithAPIKey(flags.openaiKey))
		}
	case genai.ProviderAnthropic:
		if flags.anthropicKey != "" {
			genaiOpts = append(genaiOpts, genai.WithAPIKey(flags.anthropicKey))
		}
	}
	if flags.model != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(flags.model))
	}
	genaiOpts = append(genaiOpts, genai.WithTemperature(flags.temperature), genai.WithMaxTokens(flags.maxTokens))
	if flags.debug {
		genaiOpts = append(genaiOpts, genai.WithDebugMode(true), genai.WithStateDir(flags.stateDir))
	}
	return genaiOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(flags.apiAddr))
	}
	if flags.baseURL != "" {
		apiOpts = append(apiOpts, api.WithBaseURL(flags.baseURL))
	}
	if flags.provider != "" {
		apiOpts = append(apiOpts, api.WithLLMProvider(flags.provider))
	}
	if flags.systemPromptFile != "" {
		apiOpts = append(apiOpts, api.WithSystemPromptFile(flags.systemPromptFile))
	}
	return apiOpts
}
