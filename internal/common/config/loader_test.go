// internal/common/config/loader_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validBase() *Config {
	cfg := &Config{}
	cfg.Mail.FromEmail = "support@example.com"
	applyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validBase()

	assert.Equal(t, "ticket-autopilot", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "elasticsearch", cfg.Retrieval.Backend)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 400, cfg.Retrieval.SnippetMaxChars)
	assert.Equal(t, 0.75, cfg.Policy.ApproveThreshold)
	assert.Equal(t, 0.40, cfg.Policy.DraftThreshold)
	assert.Equal(t, 7*24*3600, cfg.Mail.StageTTL)
	assert.Equal(t, "logs/tickets.jsonl", cfg.TicketLog.JSONLPath)
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, validateConfig(validBase()))
}

func TestValidateConfig_ThresholdOrdering(t *testing.T) {
	cfg := validBase()
	cfg.Policy.ApproveThreshold = 0.3
	cfg.Policy.DraftThreshold = 0.6

	assert.Error(t, validateConfig(cfg))
}

func TestValidateConfig_UnknownBackend(t *testing.T) {
	cfg := validBase()
	cfg.Retrieval.Backend = "chroma"

	assert.Error(t, validateConfig(cfg))
}

func TestValidateConfig_RequiresFromEmail(t *testing.T) {
	cfg := validBase()
	cfg.Mail.FromEmail = ""

	assert.Error(t, validateConfig(cfg))
}

func TestValidateConfig_TopK(t *testing.T) {
	cfg := validBase()
	cfg.Retrieval.TopK = -1

	assert.Error(t, validateConfig(cfg))
}

func TestGetDSN(t *testing.T) {
	pg := PostgresConfig{
		Host: "localhost", Port: 5432, Database: "autopilot",
		User: "svc", Password: "secret", SSLMode: "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=svc password=secret dbname=autopilot sslmode=disable",
		pg.GetDSN())
}
