package config

import "fmt"

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=mysql sqlite"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	Path            string `mapstructure:"path"` // sqlite file path
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" validate:"required"`
	// BotIdentity is the Jira account name the bot comments under.
	// Webhook comment events from this initiator are suppressed.
	BotIdentity string `mapstructure:"bot_identity"`
	// BotDisplayName is how Jira renders comments the bot posted; the
	// detail view shows such comments as the user's own.
	BotDisplayName string `mapstructure:"bot_display_name"`
	PollTimeout    int    `mapstructure:"poll_timeout"`
}

type JiraConfig struct {
	URL         string `mapstructure:"url" validate:"required,url"`
	BearerToken string `mapstructure:"bearer_token" validate:"required"`
	ProjectKey  string `mapstructure:"project_key" validate:"required"`
	// WebhookURL is the externally reachable callback registered with Jira.
	// Empty disables webhook self-registration on startup.
	WebhookURL    string `mapstructure:"webhook_url"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type SessionConfig struct {
	// Store selects the session backend: "memory" (default) or "redis".
	Store string `mapstructure:"store" validate:"oneof=memory redis"`
}

type VerificationConfig struct {
	// EmailPattern is the corporate address regexp a claimed email must match.
	EmailPattern    string `mapstructure:"email_pattern"`
	CodeTTLMinutes  int    `mapstructure:"code_ttl_minutes"`
	CooldownSeconds int    `mapstructure:"cooldown_seconds"`
}
