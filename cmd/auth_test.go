package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthorizer struct {
	saved   map[string]string
	saveErr error
}

func (f *fakeAuthorizer) AuthURL(account string) (string, error) {
	return "https://accounts.example.com/auth?state=" + account, nil
}

func (f *fakeAuthorizer) SaveToken(_ context.Context, account, code string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	f.saved[account] = code
	return nil
}

func TestRunAuth(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		stdin   string
		saveErr error
		want    string
		wantErr string
	}{
		{name: "prompt", stdin: " 4/abc \n", want: "4/abc"},
		{name: "code flag", code: "4/flag", want: "4/flag"},
		{name: "empty input", stdin: "\n", wantErr: "no authorization code entered"},
		{name: "no input", wantErr: "no authorization code entered"},
		{name: "exchange fails", code: "4/abc", saveErr: errors.New("invalid_grant"), wantErr: "invalid_grant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuthorizer{saveErr: tt.saveErr}
			var out bytes.Buffer

			err := runAuth(context.Background(), auth, "work", tt.code, strings.NewReader(tt.stdin), &out)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, auth.saved["work"])
			assert.Contains(t, out.String(), `Token saved for account "work"`)
			if tt.code == "" {
				assert.Contains(t, out.String(), "https://accounts.example.com/auth?state=work")
			}
		})
	}
}
