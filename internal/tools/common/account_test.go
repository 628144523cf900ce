package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAccountFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "no account", args: map[string]any{}, want: "default"},
		{name: "explicit account", args: map[string]any{"account": "work"}, want: "work"},
		{name: "empty account", args: map[string]any{"account": ""}, want: "default"},
		{name: "with other params", args: map[string]any{"account": "personal", "other": "value"}, want: "personal"},
		{name: "nil args", args: nil, want: "default"},
		{name: "non-string account", args: map[string]any{"account": 123}, want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetAccountFromArgs(tt.args))
		})
	}
}
