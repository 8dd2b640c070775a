package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/homilyd/internal/alert"
	"github.com/starford/homilyd/internal/boundary"
	"github.com/starford/homilyd/internal/grouping"
	"github.com/starford/homilyd/internal/parser"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Library   LibraryConfig     `yaml:"library"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	LLM       LLMConfig         `yaml:"llm"`
	Detection DetectionConfig   `yaml:"detection"`
	Grouping  GroupingConfig    `yaml:"grouping"`
	Email     EmailConfig       `yaml:"email"`
	FFmpeg    FFmpegConfig      `yaml:"ffmpeg"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Library, &c.SQLite, &c.LLM, &c.Detection, &c.Grouping, &c.Email, &c.FFmpeg,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	// PollInterval is how often finished weekends are swept.
	PollInterval time.Duration `yaml:"poll_interval"`
	// TimeZone is the IANA zone recordings are grouped in.
	TimeZone string `yaml:"time_zone"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.PollInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.TimeZone, validation.Required),
	); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("app: time_zone: %w", err)
	}
	return nil
}

// Location loads the configured time zone.
func (c *ApplicationConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
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

// LibraryConfig locates the recordings directory.
type LibraryConfig struct {
	Path         string `yaml:"path"`
	MediaPrefix  string `yaml:"media_prefix"`
	HomilyPrefix string `yaml:"homily_prefix"`
}

// Validate validates the library configuration.
func (c *LibraryConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.MediaPrefix, validation.Required),
		validation.Field(&c.HomilyPrefix, validation.Required),
	); err != nil {
		return err
	}
	if c.MediaPrefix == c.HomilyPrefix {
		return fmt.Errorf("library: media_prefix and homily_prefix must differ")
	}
	return nil
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// LLMConfig configures the Gemini client. Keys are tried in order and
// rotated on rate limiting.
type LLMConfig struct {
	APIKeys []string      `yaml:"api_keys"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the LLM configuration.
func (c *LLMConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIKeys, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// DetectionConfig holds the boundary heuristics and duration limits.
type DetectionConfig struct {
	GospelMarkers    []string `yaml:"gospel_markers"`
	EndMarkers       []string `yaml:"end_markers"`
	WindowSize       int      `yaml:"window_size"`
	InvalidThreshold int      `yaml:"invalid_threshold"`
	MinSeconds       float64  `yaml:"min_seconds"`
	MaxSeconds       float64  `yaml:"max_seconds"`
}

// Validate validates the detection configuration.
func (c *DetectionConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.GospelMarkers, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.EndMarkers, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.WindowSize, validation.Required, validation.Min(1)),
		validation.Field(&c.InvalidThreshold, validation.Min(0)),
		validation.Field(&c.MinSeconds, validation.Min(0.0)),
		validation.Field(&c.MaxSeconds, validation.Required),
	); err != nil {
		return err
	}
	if c.MaxSeconds <= c.MinSeconds {
		return fmt.Errorf("detection: max_seconds (%.0f) must exceed min_seconds (%.0f)", c.MaxSeconds, c.MinSeconds)
	}
	return nil
}

// Boundary returns the detector configuration.
func (c *DetectionConfig) Boundary() boundary.Config {
	return boundary.Config{
		GospelMarkers: c.GospelMarkers,
		EndMarkers:    c.EndMarkers,
		WindowSize:    c.WindowSize,
	}
}

// Limits returns the duration bounds.
func (c *DetectionConfig) Limits() boundary.Limits {
	return boundary.Limits{MinSeconds: c.MinSeconds, MaxSeconds: c.MaxSeconds}
}

// GroupingConfig holds the weekend grouping hours.
type GroupingConfig struct {
	VigilHour    int `yaml:"vigil_hour"`
	DeadlineHour int `yaml:"deadline_hour"`
}

// Validate validates the grouping configuration.
func (c *GroupingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.VigilHour, validation.Min(0), validation.Max(23)),
		validation.Field(&c.DeadlineHour, validation.Min(0), validation.Max(23)),
	)
}

// Rule returns the grouping rule in loc.
func (c *GroupingConfig) Rule(loc *time.Location) grouping.Rule {
	return grouping.Rule{Location: loc, VigilHour: c.VigilHour, DeadlineHour: c.DeadlineHour}
}

// EmailConfig configures SMTP alerts. When disabled, alerts are only logged.
type EmailConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Server   string   `yaml:"server"`
	Port     int      `yaml:"port"`
	User     string   `yaml:"user"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	Subject  string   `yaml:"subject"`
}

// Validate validates the email configuration.
func (c *EmailConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Server, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.From, validation.Required),
		validation.Field(&c.To, validation.Required, validation.Each(validation.Required)),
	)
}

// SMTP returns the notifier settings.
func (c *EmailConfig) SMTP() alert.SMTPConfig {
	return alert.SMTPConfig{
		Server:   c.Server,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		From:     c.From,
		To:       c.To,
		Subject:  c.Subject,
	}
}

// FFmpegConfig locates the ffmpeg binary.
type FFmpegConfig struct {
	Binary string `yaml:"binary"`
}

// Validate validates the ffmpeg configuration.
func (c *FFmpegConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Binary, validation.Required),
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
// LLM API keys have no default.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
			PollInterval: 5 * time.Minute,
			TimeZone:     "UTC",
		},
		Library: LibraryConfig{
			Path:         "./recordings",
			MediaPrefix:  "Mass-",
			HomilyPrefix: "Homily-",
		},
		SQLite: SQLiteConfig{
			Path: "./homilyd.db",
		},
		LLM: LLMConfig{
			Model:   "gemini-2.5-flash",
			Timeout: 2 * time.Minute,
		},
		Detection: DetectionConfig{
			GospelMarkers:    boundary.DefaultGospelMarkers(),
			EndMarkers:       boundary.DefaultEndMarkers(),
			WindowSize:       boundary.DefaultWindowSize,
			InvalidThreshold: parser.DefaultInvalidThreshold,
			MinSeconds:       boundary.DefaultMinSeconds,
			MaxSeconds:       boundary.DefaultMaxSeconds,
		},
		Grouping: GroupingConfig{
			VigilHour:    grouping.DefaultVigilHour,
			DeadlineHour: grouping.DefaultDeadlineHour,
		},
		Email: EmailConfig{
			Port:    587,
			Subject: "Homily Alert",
		},
		FFmpeg: FFmpegConfig{
			Binary: "ffmpeg",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
