package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Summarizer modes.
const (
	SummarizerFrequency = "frequency"
	SummarizerGemini    = "gemini"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Session    SessionConfig     `yaml:"session"`
	Uploads    UploadsConfig     `yaml:"uploads"`
	Summarizer SummarizerConfig  `yaml:"summarizer"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if err := c.Uploads.Validate(); err != nil {
		return err
	}
	if err := c.Summarizer.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SessionConfig holds the session store and token settings.
//
// TTL is the sliding session lifetime: every request that touches a session
// pushes its expiry TTL into the future.
type SessionConfig struct {
	SQLitePath    string        `yaml:"sqlite_path"`
	Secret        string        `yaml:"secret"`
	CookieName    string        `yaml:"cookie_name"`
	SecureCookie  bool          `yaml:"secure_cookie"`
	TTL           time.Duration `yaml:"ttl"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SQLitePath, validation.Required),
		validation.Field(&c.Secret, validation.Required, validation.Length(32, 0)),
		validation.Field(&c.CookieName, validation.Required),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.PurgeInterval, validation.Required, validation.Min(time.Second)),
	)
}

// UploadsConfig holds the base directory for uploaded and generated files.
// The deployment layer resolves it; the application never searches for it.
type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the uploads configuration.
func (c *UploadsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// SummarizerConfig selects and tunes the text summarizer.
type SummarizerConfig struct {
	Mode      string       `yaml:"mode"`
	MaxPoints int          `yaml:"max_points"`
	MaxPages  int          `yaml:"max_pages"`
	Gemini    GeminiConfig `yaml:"gemini"`
}

// Validate validates the summarizer configuration.
func (c *SummarizerConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = SummarizerFrequency
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(SummarizerFrequency, SummarizerGemini)),
		validation.Field(&c.MaxPoints, validation.Required, validation.Min(1), validation.Max(50)),
		validation.Field(&c.MaxPages, validation.Min(0)),
	); err != nil {
		return err
	}
	if c.Mode == SummarizerGemini {
		return c.Gemini.Validate()
	}
	return nil
}

// GeminiConfig holds settings for the hosted LLM summarizer.
type GeminiConfig struct {
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	ChunkChars int           `yaml:"chunk_chars"`
}

// Validate validates the Gemini configuration.
func (c *GeminiConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Timeout, validation.Required),
		validation.Field(&c.ChunkChars, validation.Required, validation.Min(500)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
// Session.Secret has no default and must come from the config file or environment.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Session: SessionConfig{
			SQLitePath:    "./aalifyx.db",
			CookieName:    "aalifyx_session",
			TTL:           30 * 24 * time.Hour,
			PurgeInterval: time.Hour,
		},
		Uploads: UploadsConfig{
			Dir: "./uploads",
		},
		Summarizer: SummarizerConfig{
			Mode:      SummarizerFrequency,
			MaxPoints: 5,
			MaxPages:  200,
			Gemini: GeminiConfig{
				Model:      "gemini-2.0-flash",
				Timeout:    30 * time.Second,
				ChunkChars: 12000,
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
