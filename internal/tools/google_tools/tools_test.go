package google_tools

import (
	"context"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailmeet/internal/tools/toolstest"
)

func TestRegisterGoogleTools(t *testing.T) {
	sc := toolstest.NewServerContext(t, &toolstest.Google{})
	s := mcpserver.NewMCPServer("test-server", "1.0.0", mcpserver.WithToolCapabilities(true))

	require.NoError(t, RegisterGoogleTools(s, sc))
	assert.Equal(t, []string{"google_get_auth_url", "google_save_auth_code"}, toolstest.ToolNames(t, s))
}

func TestHandleGetAuthURL(t *testing.T) {
	sc := toolstest.NewServerContext(t, &toolstest.Google{})

	result, err := handleGetAuthURL(context.Background(), toolstest.Request("google_get_auth_url", map[string]any{"account": "work"}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := toolstest.Text(t, result)
	assert.Contains(t, text, `account "work"`)
	assert.Contains(t, text, "https://accounts.example.com/o/oauth2/auth?state=work")
}

func TestHandleSaveAuthCode(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		isError  bool
		contains string
	}{
		{
			name:     "missing code",
			args:     map[string]any{"account": "work"},
			isError:  true,
			contains: "authCode is required",
		},
		{
			name:     "rejected code",
			args:     map[string]any{"account": "work", "authCode": "invalid"},
			isError:  true,
			contains: "Failed to save authorization code for account work",
		},
		{
			name:     "saved",
			args:     map[string]any{"account": "work", "authCode": "4/abc"},
			contains: "Authorization successful for account 'work'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := toolstest.NewServerContext(t, &toolstest.Google{})

			result, err := handleSaveAuthCode(context.Background(), toolstest.Request("google_save_auth_code", tt.args), sc)
			require.NoError(t, err)
			assert.Equal(t, tt.isError, result.IsError)
			assert.Contains(t, toolstest.Text(t, result), tt.contains)
		})
	}
}

func TestHandleSaveAuthCode_AuthorizesAccount(t *testing.T) {
	sc := toolstest.NewServerContext(t, &toolstest.Google{})

	_, err := sc.GmailClient("work")
	require.Error(t, err)

	result, err := handleSaveAuthCode(context.Background(), toolstest.Request("google_save_auth_code", map[string]any{"account": "work", "authCode": "4/abc"}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	_, err = sc.GmailClient("work")
	assert.NoError(t, err)
}
