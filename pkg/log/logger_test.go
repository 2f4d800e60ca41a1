package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sfaerrors "github.com/YuminosukeSato/sfasweep/pkg/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				var ve *sfaerrors.ValidationError
				assert.True(t, sfaerrors.As(err, &ve))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestZerologLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo).With(ModelNameKey, "ALS")

	logger.Debug("hidden")
	logger.Info("sweep progress", CompletedKey, 3, TotalKey, 8)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "sweep progress", lines[0]["message"])
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "ALS", lines[0][ModelNameKey])
	assert.Equal(t, 3.0, lines[0][CompletedKey])
	assert.Equal(t, 8.0, lines[0][TotalKey])
}

func TestZerologLoggerLeadingError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	err := sfaerrors.NewSolverFailure("M_3_0.5_0.0_0.0", fmt.Errorf("singular"))
	logger.Error("fit failed", err, ModelGroupKey, "M_3_0.5_0.0_0.0")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0][ErrAttrKey], "singular")
	assert.Equal(t, "M_3_0.5_0.0_0.0", lines[0][ModelGroupKey])
	assert.Contains(t, lines[0], ErrAttrKey+"_detail")
	assert.Contains(t, lines[0], StacktraceAttrKey)
}

func TestProviderSetLevelAppliesToIssuedLoggers(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelWarn)
	logger := p.GetLoggerWithName("scoring")
	ctx := context.Background()

	assert.False(t, logger.Enabled(ctx, LevelInfo))
	p.SetLevel(LevelDebug)
	assert.True(t, logger.Enabled(ctx, LevelDebug))

	logger.Debug("now visible")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "scoring", lines[0]["component"])
}

func TestGlobalProviderSwap(t *testing.T) {
	prev := GetProvider()
	t.Cleanup(func() { SetProvider(prev) })

	tp, buf := NewTestLoggerProvider(LevelDebug)
	SetProvider(tp)
	GetLoggerWithName("select").Info("chosen", ModelGroupKey, "M_2_0.5_0.0_0.0")

	assert.Contains(t, buf.String(), "chosen")
	assert.Contains(t, buf.String(), `"component":"select"`)
}

func TestTestLogger(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	assert.True(t, logger.Enabled(ctx, LevelError))
	assert.False(t, logger.Enabled(ctx, LevelDebug))

	scoped := logger.With(ComponentKey, "sweep", OperationKey, OperationSweep)
	scoped.Debug("dropped")
	scoped.Info("started", ThreadsKey, 4)
	scoped.Error("write failed", fmt.Errorf("disk full"))

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, logger.ContainsMessage("dropped"))
	assert.True(t, logger.ContainsField(ThreadsKey, 4.0))
	assert.True(t, logger.ContainsField(OperationKey, OperationSweep))
	assert.True(t, logger.ContainsField(ErrAttrKey, "disk full"))

	logger.Clear()
	assert.Empty(t, logger.GetBuffer().String())
}

func TestTestLoggerConcurrentWrites(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.With(ModelGroupKey, i).Info("done")
		}(i)
	}
	wg.Wait()

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 16)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", Level(3).String())
}
