// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored if not present
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations (for running from different directories)
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Expand ${VAR} placeholders left in yaml values
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ticket-autopilot"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Retrieval.Backend == "" {
		cfg.Retrieval.Backend = "elasticsearch"
	}
	if cfg.Retrieval.IndexName == "" {
		cfg.Retrieval.IndexName = "knowledge_base"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.SnippetMaxChars == 0 {
		cfg.Retrieval.SnippetMaxChars = 400
	}
	if cfg.Retrieval.Timeout == 0 {
		cfg.Retrieval.Timeout = 5000
	}
	if cfg.Policy.ApproveThreshold == 0 {
		cfg.Policy.ApproveThreshold = 0.75
	}
	if cfg.Policy.DraftThreshold == 0 {
		cfg.Policy.DraftThreshold = 0.40
	}
	if cfg.Mail.SubjectPrefix == "" {
		cfg.Mail.SubjectPrefix = "Re: "
	}
	if cfg.Mail.StageTTL == 0 {
		cfg.Mail.StageTTL = 7 * 24 * 3600
	}
	if cfg.Mail.Timeout == 0 {
		cfg.Mail.Timeout = 10000
	}
	if cfg.TicketLog.JSONLPath == "" {
		cfg.TicketLog.JSONLPath = "logs/tickets.jsonl"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Policy.ApproveThreshold < cfg.Policy.DraftThreshold {
		return fmt.Errorf("policy approve_threshold (%.2f) must be >= draft_threshold (%.2f)",
			cfg.Policy.ApproveThreshold, cfg.Policy.DraftThreshold)
	}
	switch cfg.Retrieval.Backend {
	case "elasticsearch", "memory":
	default:
		return fmt.Errorf("unknown retrieval backend %q", cfg.Retrieval.Backend)
	}
	if cfg.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval top_k must be >= 1, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Mail.FromEmail == "" {
		return fmt.Errorf("mail from_email is required")
	}
	return nil
}
