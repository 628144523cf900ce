package batch

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringOrArray(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    []string
		wantErr string
	}{
		{name: "single string", input: "t1", want: []string{"t1"}},
		{name: "array of strings", input: []any{"t1", "t2", "t3"}, want: []string{"t1", "t2", "t3"}},
		{name: "nil input", input: nil, wantErr: "threadIds is required"},
		{name: "empty string", input: "", wantErr: "threadIds cannot be empty"},
		{name: "empty array", input: []any{}, wantErr: "threadIds cannot be empty"},
		{name: "array with non-string", input: []any{"t1", 123}, wantErr: "threadIds[1] must be a string"},
		{name: "array with empty string", input: []any{"t1", ""}, wantErr: "threadIds[1] cannot be empty"},
		{name: "wrong type", input: 42, wantErr: "must be a string or array of strings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringOrArray(tt.input, "threadIds")
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatResults(t *testing.T) {
	out := FormatResults([]Result{
		NewSuccessResult("t1", "ok"),
		NewErrorResult("t2", errors.New("not found")),
		NewSuccessResult("t3", "ok"),
	})

	var br BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &br))
	assert.Equal(t, 3, br.Total)
	assert.Equal(t, 2, br.Successful)
	assert.Equal(t, 1, br.Failed)
	assert.Equal(t, "not found", br.Results[1].Error)
}

func TestProcess(t *testing.T) {
	ids := []string{"t1", "t2", "t3", "t4", "t5"}

	var inFlight, maxInFlight atomic.Int32
	results := Process(context.Background(), ids, 2, func(_ context.Context, id string) (string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)

		if id == "t2" {
			return "", errors.New("failed to load t2")
		}
		return "processed " + id, nil
	})

	require.Len(t, results, 5)
	assert.LessOrEqual(t, maxInFlight.Load(), int32(2))
	for i, r := range results {
		assert.Equal(t, ids[i], r.ID)
	}
	assert.Equal(t, NewErrorResult("t2", errors.New("failed to load t2")), results[1])
	assert.Equal(t, NewSuccessResult("t5", "processed t5"), results[4])
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	results := Process(ctx, []string{"t1"}, 0, func(context.Context, string) (string, error) {
		called = true
		return "", nil
	})

	assert.False(t, called)
	require.Len(t, results, 1)
	assert.Equal(t, StatusError, results[0].Status)
	assert.Contains(t, results[0].Error, "context canceled")
}
