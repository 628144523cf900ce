package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailmeet/internal/config"
	"github.com/teemow/mailmeet/internal/scheduling"
)

func TestReadText(t *testing.T) {
	file := filepath.Join(t.TempDir(), "mail.txt")
	require.NoError(t, os.WriteFile(file, []byte("from file"), 0o600))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "stdin", want: "from stdin"},
		{name: "dash is stdin", args: []string{"-"}, want: "from stdin"},
		{name: "file", args: []string{file}, want: "from file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readText(strings.NewReader("from stdin"), tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := readText(strings.NewReader(""), []string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestPrintDecision(t *testing.T) {
	cfg := config.Default()
	cfg.Scheduling.TimeZone = "UTC"
	opts, err := scheduling.OptionsFromConfig(cfg)
	require.NoError(t, err)
	svc := scheduling.NewService(opts, nil, nil, nil)
	now := time.Date(2030, time.March, 11, 8, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	printDecision(&buf, svc.DetectIntent("Can we meet tomorrow at 3pm?", now))
	assert.Contains(t, buf.String(), "Meeting request: yes")
	assert.Contains(t, buf.String(), "2030-03-12 15:00")

	buf.Reset()
	printDecision(&buf, svc.DetectIntent("Thanks for the update.", now))
	assert.True(t, strings.HasPrefix(buf.String(), "Meeting request: no\n"), buf.String())
}
