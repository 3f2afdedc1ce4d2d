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

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

func TestTestLoggerLevels(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelInfo)

	testLogger.Debug("hidden")
	testLogger.Info("info message", "key1", "value1", "number", 42)
	testLogger.Warn("warning message")
	testLogger.Error("error message", "error", fmt.Errorf("boom"))

	assert.NotEmpty(t, buffer.String())
	assert.False(t, testLogger.ContainsMessage("hidden"))
	assert.True(t, testLogger.ContainsMessage("info message"))
	assert.True(t, testLogger.ContainsField("key1", "value1"))
	assert.True(t, testLogger.ContainsField("number", 42.0))
	assert.True(t, testLogger.ContainsField("error", "boom"))
	assert.False(t, testLogger.Enabled(context.Background(), LevelDebug))
}

func TestTestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	child := testLogger.With(ComponentKey, "filter", ModelNameKey, "CleanLearning")
	child.Info("label issues found", IssuesCountKey, 4, FilterByKey, "confident_learning")

	entries, err := testLogger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "filter", entries[0][ComponentKey])
	assert.Equal(t, 4.0, entries[0][IssuesCountKey])
	assert.Equal(t, "INFO", entries[0]["level"])
}

func TestTestLoggerConcurrent(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	var wg sync.WaitGroup
	for fold := 0; fold < 5; fold++ {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				testLogger.Info("fold progress", FoldKey, f, IterationKey, j)
			}
		}(fold)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 50)
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo)

	logger.Debug("dropped")
	logger.With(ComponentKey, "rank").Info("scored", SamplesKey, 50)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "scored", entry["message"])
	assert.Equal(t, "rank", entry[ComponentKey])
	assert.Equal(t, 50.0, entry[SamplesKey])
	assert.Equal(t, "info", entry["level"])

	assert.True(t, logger.Enabled(context.Background(), LevelError))
	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
}

func TestZerologLoggerObjectFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	w := errors.NewConvergenceWarning("LogisticRegression", 100, "")
	logger.Warn("solver did not converge", "warning", w)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	obj, ok := entry["warning"].(map[string]interface{})
	require.True(t, ok, "warning should be logged as an object")
	assert.Equal(t, "ConvergenceWarning", obj["type"])
	assert.Equal(t, 100.0, obj["iterations"])
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
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSetupLoggerRoutesWarnings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "debug"))
	defer errors.SetZerologWarnFunc(nil)

	errors.Warn(errors.NewConvergenceWarning("LogisticRegression", 5, "tolerance not reached"))
	assert.Contains(t, buf.String(), "LogisticRegression failed to converge after 5 iterations")
	assert.Contains(t, buf.String(), `"ml.component":"warnings"`)

	assert.Error(t, SetupLogger(&buf, "loud"))
}

func TestErrorContextHandlerPassesErrors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "info"))
	defer errors.SetZerologWarnFunc(nil)

	buf.Reset()
	err := errors.NewNotFittedError("CleanLearning", "Predict")
	logSlogError("predict failed", err)

	assert.Contains(t, buf.String(), `"severity":"ERROR"`)
	assert.Contains(t, buf.String(), `"message":"predict failed"`)
	assert.Contains(t, buf.String(), "not fitted yet")
}

func TestErrorContextHandlerLocatesFailures(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "info"))
	defer errors.SetZerologWarnFunc(nil)

	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "fold wrapping a malformed row",
			err:  errors.NewFoldError(2, errors.NewMalformedProbabilityError(7, 1.3, 3, "row does not sum to 1")),
			want: []string{`"cv.fold":2`, `"data.row":7`},
		},
		{
			name: "batch",
			err:  errors.NewChunkError(4, 800, 1000, errors.NewLabelRangeError(812, 9, 3)),
			want: []string{`"batch.index":4`, `"batch.start":800`, `"data.row":812`},
		},
		{
			name: "empty class",
			err:  errors.NewEmptyClassError(1, 3, "no examples"),
			want: []string{`"data.class":1`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			logSlogError("finder failed", tt.err)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}

	buf.Reset()
	logSlogError("plain failure", fmt.Errorf("boom"))
	assert.NotContains(t, buf.String(), "data.row")
	assert.NotContains(t, buf.String(), "cv.fold")
}
