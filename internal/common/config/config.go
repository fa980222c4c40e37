// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Retrieval     RetrievalConfig     `mapstructure:"retrieval"`
	Policy        PolicyConfig        `mapstructure:"policy"`
	Mail          MailConfig          `mapstructure:"mail"`
	Notifications NotificationConfig  `mapstructure:"notifications"`
	TicketLog     TicketLogConfig     `mapstructure:"ticket_log"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Domain Configuration Sections ---

// RetrievalConfig selects and tunes the knowledge-base retrieval backend.
// Backend is chosen here once at startup; there is no runtime probing.
type RetrievalConfig struct {
	Backend         string `mapstructure:"backend"` // "elasticsearch" | "memory"
	IndexName       string `mapstructure:"index_name"`
	TopK            int    `mapstructure:"top_k"`
	SnippetMaxChars int    `mapstructure:"snippet_max_chars"`
	Timeout         int    `mapstructure:"timeout"` // milliseconds
	CorpusDir       string `mapstructure:"corpus_dir"`
}

// PolicyConfig holds the confidence thresholds that route a synthesized
// reply to approval, draft, or escalation.
type PolicyConfig struct {
	ApproveThreshold float64 `mapstructure:"approve_threshold"`
	DraftThreshold   float64 `mapstructure:"draft_threshold"`
}

// MailConfig holds settings for the outbound mail transport.
type MailConfig struct {
	FromEmail     string `mapstructure:"from_email"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
	StageTTL      int    `mapstructure:"stage_ttl"` // seconds a staged draft stays valid
	Timeout       int    `mapstructure:"timeout"`   // milliseconds per provider call
	AWS           struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// NotificationConfig holds settings for escalation alerts.
type NotificationConfig struct {
	Escalation struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"escalation"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// TicketLogConfig holds settings for the dual-write operational log.
type TicketLogConfig struct {
	JSONLPath string `mapstructure:"jsonl_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
