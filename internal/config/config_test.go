package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailmeet/internal/meeting"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Minute, cfg.MeetingDuration())
	assert.Equal(t, 7, cfg.Scheduling.DaysAhead)
	assert.Equal(t, 3, cfg.Scheduling.MaxSuggestions)
	assert.Equal(t, []string{"primary"}, cfg.Scheduling.CalendarIDs)
	assert.Equal(t, "formal", cfg.Mail.DefaultReplyTone)
	assert.Equal(t, meeting.IntentPolicy{Threshold: 0.7, MinSignals: 2}, cfg.IntentPolicy())

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, 9, policy.StartHour)
	assert.Equal(t, 17, policy.EndHour)
	assert.Equal(t, meeting.WorkWeek, policy.AllowedWeekdays)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mailmeet.yaml", `
scheduling:
  timezone: Europe/Berlin
  business_start_hour: 8
  business_end_hour: 16
  weekdays: mon,tue,thu
  meeting_duration_minutes: 45
  calendar_ids: [primary, team@example.com]
intent:
  threshold: 0.8
mail:
  default_reply_tone: casual
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.MeetingDuration())
	assert.Equal(t, []string{"primary", "team@example.com"}, cfg.Scheduling.CalendarIDs)
	assert.Equal(t, "casual", cfg.Mail.DefaultReplyTone)
	assert.InDelta(t, 0.8, cfg.Intent.Threshold, 1e-9)
	assert.Equal(t, 2, cfg.Intent.MinSignals)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", policy.Location.String())
	assert.Equal(t, meeting.NewWeekdays(time.Monday, time.Tuesday, time.Thursday), policy.AllowedWeekdays)
	assert.Equal(t, 8, policy.StartHour)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mailmeet.yaml", "scheduling:\n  days_ahead: 5\n")

	t.Setenv("MAILMEET_SCHEDULING_DAYS_AHEAD", "14")
	t.Setenv("GEMINI_API_KEY", "legacy-key")
	t.Setenv("MEETING_DURATION_MINUTES", "60")
	t.Setenv("MAILMEET_MAIL_MAX_THREADS", "25")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 14, cfg.Scheduling.DaysAhead)
	assert.Equal(t, "legacy-key", cfg.Gemini.APIKey)
	assert.Equal(t, 60, cfg.Scheduling.MeetingDurationMinutes)
	assert.Equal(t, 25, cfg.Mail.MaxThreads)
}

func TestLoad_PrefixedBeatsLegacy(t *testing.T) {
	path := writeFile(t, t.TempDir(), "mailmeet.yaml", "")
	t.Setenv("GEMINI_API_KEY", "legacy-key")
	t.Setenv("MAILMEET_GEMINI_API_KEY", "prefixed-key")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prefixed-key", cfg.Gemini.APIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "MAILMEET_MAIL_TARGET_LANGUAGE=de\n")
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Cleanup(func() { _ = os.Unsetenv("MAILMEET_MAIL_TARGET_LANGUAGE") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "de", cfg.Mail.TargetLanguage)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeFile(t, t.TempDir(), "mailmeet.yaml", "scheduling:\n  days_ahead: 90\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "short meeting", mutate: func(c *Config) { c.Scheduling.MeetingDurationMinutes = 10 }},
		{name: "long meeting", mutate: func(c *Config) { c.Scheduling.MeetingDurationMinutes = 481 }},
		{name: "days ahead", mutate: func(c *Config) { c.Scheduling.DaysAhead = 0 }},
		{name: "suggestions", mutate: func(c *Config) { c.Scheduling.MaxSuggestions = 0 }},
		{name: "no calendars", mutate: func(c *Config) { c.Scheduling.CalendarIDs = nil }},
		{name: "time zone", mutate: func(c *Config) { c.Scheduling.TimeZone = "Mars/Olympus" }},
		{name: "weekdays", mutate: func(c *Config) { c.Scheduling.Weekdays = "someday" }},
		{name: "business hours", mutate: func(c *Config) { c.Scheduling.BusinessStartHour = 18 }},
		{name: "threshold", mutate: func(c *Config) { c.Intent.Threshold = 1.5 }},
		{name: "min signals", mutate: func(c *Config) { c.Intent.MinSignals = 1 }},
		{name: "max threads", mutate: func(c *Config) { c.Mail.MaxThreads = 101 }},
		{name: "tone", mutate: func(c *Config) { c.Mail.DefaultReplyTone = "sarcastic" }},
		{name: "rate", mutate: func(c *Config) { c.Gemini.RequestsPerMinute = 0 }},
		{name: "cache", mutate: func(c *Config) { c.ReplyStore.CacheSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
