package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/teemow/mailmeet/internal/meeting"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultConfigName is the file name (without extension) searched for when no explicit
// config file is given.
const DefaultConfigName = "mailmeet"

// ReplyTones lists the tones replies can be generated in.
var ReplyTones = []string{"formal", "casual", "direct"}

// Config is the application configuration.
type Config struct {
	Google     GoogleConfig     `mapstructure:"google"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
	Intent     IntentConfig     `mapstructure:"intent"`
	Mail       MailConfig       `mapstructure:"mail"`
	ReplyStore ReplyStoreConfig `mapstructure:"reply_store"`
}

// GoogleConfig holds the OAuth client used for Gmail and Calendar.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// GeminiConfig configures the language model.
type GeminiConfig struct {
	APIKey            string `mapstructure:"api_key"`
	Model             string `mapstructure:"model"`
	EmbeddingModel    string `mapstructure:"embedding_model"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// SchedulingConfig holds business hours and slot search defaults.
type SchedulingConfig struct {
	TimeZone               string   `mapstructure:"timezone"`
	BusinessStartHour      int      `mapstructure:"business_start_hour"`
	BusinessEndHour        int      `mapstructure:"business_end_hour"`
	Weekdays               string   `mapstructure:"weekdays"`
	MeetingDurationMinutes int      `mapstructure:"meeting_duration_minutes"`
	DaysAhead              int      `mapstructure:"days_ahead"`
	MaxSuggestions         int      `mapstructure:"max_suggestions"`
	CalendarIDs            []string `mapstructure:"calendar_ids"`
}

// IntentConfig tunes the meeting request decision.
type IntentConfig struct {
	Threshold  float64 `mapstructure:"threshold"`
	MinSignals int     `mapstructure:"min_signals"`
}

// MailConfig holds inbox defaults.
type MailConfig struct {
	MaxThreads       int    `mapstructure:"max_threads"`
	DefaultReplyTone string `mapstructure:"default_reply_tone"`
	TargetLanguage   string `mapstructure:"target_language"`
	WatchQuery       string `mapstructure:"watch_query"`
}

// ReplyStoreConfig configures the vector store of generated replies. An empty
// PersistPath keeps the store in memory.
type ReplyStoreConfig struct {
	PersistPath string `mapstructure:"persist_path"`
	Collection  string `mapstructure:"collection"`
	CacheSize   int    `mapstructure:"cache_size"`
}

// legacyEnv maps configuration keys to the plain environment variable names accepted in
// addition to the MAILMEET_ prefixed ones.
var legacyEnv = map[string]string{
	"google.client_id":                    "GMAIL_CLIENT_ID",
	"google.client_secret":                "GMAIL_CLIENT_SECRET",
	"gemini.api_key":                      "GEMINI_API_KEY",
	"scheduling.meeting_duration_minutes": "MEETING_DURATION_MINUTES",
	"scheduling.days_ahead":               "DAYS_AHEAD_FOR_SCHEDULING",
	"mail.max_threads":                    "MAX_THREADS_TO_FETCH",
	"mail.default_reply_tone":             "DEFAULT_REPLY_TONE",
	"mail.target_language":                "DEFAULT_TARGET_LANGUAGE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("google.redirect_url", "urn:ietf:wg:oauth:2.0:oob")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.embedding_model", "text-embedding-004")
	v.SetDefault("gemini.requests_per_minute", 30)

	v.SetDefault("scheduling.timezone", "Local")
	v.SetDefault("scheduling.business_start_hour", 9)
	v.SetDefault("scheduling.business_end_hour", 17)
	v.SetDefault("scheduling.weekdays", "mon-fri")
	v.SetDefault("scheduling.meeting_duration_minutes", 30)
	v.SetDefault("scheduling.days_ahead", 7)
	v.SetDefault("scheduling.max_suggestions", 3)
	v.SetDefault("scheduling.calendar_ids", []string{"primary"})

	v.SetDefault("intent.threshold", 0.7)
	v.SetDefault("intent.min_signals", 2)

	v.SetDefault("mail.max_threads", 10)
	v.SetDefault("mail.default_reply_tone", "formal")
	v.SetDefault("mail.target_language", "en")
	v.SetDefault("mail.watch_query", "is:unread in:inbox")

	v.SetDefault("reply_store.persist_path", "")
	v.SetDefault("reply_store.collection", "replies")
	v.SetDefault("reply_store.cache_size", 1000)
}

// Load reads the configuration. A .env file in the working directory is loaded first if
// present. Then the YAML file at path is read; with an empty path mailmeet.yaml is looked
// up in the working directory and in $HOME/.config/mailmeet and may be missing.
// Environment variables override file values: MAILMEET_SCHEDULING_DAYS_AHEAD sets
// scheduling.days_ahead, and a few unprefixed names such as GEMINI_API_KEY are accepted too.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/mailmeet")
	}

	v.SetEnvPrefix("MAILMEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, name := range legacyEnv {
		prefixed := "MAILMEET_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", name, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in defaults without reading files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks value ranges. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	s := c.Scheduling
	check(s.MeetingDurationMinutes >= 15 && s.MeetingDurationMinutes <= 480,
		"scheduling.meeting_duration_minutes must be between 15 and 480, got %d", s.MeetingDurationMinutes)
	check(s.DaysAhead >= 1 && s.DaysAhead <= 30,
		"scheduling.days_ahead must be between 1 and 30, got %d", s.DaysAhead)
	check(s.MaxSuggestions >= 1 && s.MaxSuggestions <= 20,
		"scheduling.max_suggestions must be between 1 and 20, got %d", s.MaxSuggestions)
	check(len(s.CalendarIDs) > 0, "scheduling.calendar_ids must not be empty")
	if _, err := c.Policy(); err != nil {
		errs = append(errs, err)
	}

	check(c.Intent.Threshold > 0 && c.Intent.Threshold <= 1,
		"intent.threshold must be in (0, 1], got %g", c.Intent.Threshold)
	check(c.Intent.MinSignals >= 2, "intent.min_signals must be at least 2, got %d", c.Intent.MinSignals)

	check(c.Mail.MaxThreads >= 1 && c.Mail.MaxThreads <= 100,
		"mail.max_threads must be between 1 and 100, got %d", c.Mail.MaxThreads)
	check(slices.Contains(ReplyTones, c.Mail.DefaultReplyTone),
		"mail.default_reply_tone must be one of %s, got %q", strings.Join(ReplyTones, ", "), c.Mail.DefaultReplyTone)

	check(c.Gemini.RequestsPerMinute > 0, "gemini.requests_per_minute must be positive")
	check(c.ReplyStore.CacheSize > 0, "reply_store.cache_size must be positive")

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Location resolves the scheduling time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Scheduling.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("scheduling.timezone %q: %w", c.Scheduling.TimeZone, err)
	}
	return loc, nil
}

// Policy builds the business hours policy used by slot search.
func (c *Config) Policy() (meeting.BusinessHoursPolicy, error) {
	loc, err := c.Location()
	if err != nil {
		return meeting.BusinessHoursPolicy{}, err
	}
	days, err := meeting.ParseWeekdays(c.Scheduling.Weekdays)
	if err != nil {
		return meeting.BusinessHoursPolicy{}, fmt.Errorf("scheduling.weekdays: %w", err)
	}
	p := meeting.BusinessHoursPolicy{
		StartHour:       c.Scheduling.BusinessStartHour,
		EndHour:         c.Scheduling.BusinessEndHour,
		AllowedWeekdays: days,
		Location:        loc,
	}
	if err := p.Validate(); err != nil {
		return meeting.BusinessHoursPolicy{}, fmt.Errorf("scheduling business hours: %w", err)
	}
	return p, nil
}

// IntentPolicy returns the configured meeting request policy.
func (c *Config) IntentPolicy() meeting.IntentPolicy {
	return meeting.IntentPolicy{Threshold: c.Intent.Threshold, MinSignals: c.Intent.MinSignals}
}

// MeetingDuration returns the default meeting length.
func (c *Config) MeetingDuration() time.Duration {
	return time.Duration(c.Scheduling.MeetingDurationMinutes) * time.Minute
}
