package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestZerologLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	logger.With(ComponentKey, "training").Info("fit completed",
		ModelNameKey, "Linear Regression",
		SamplesKey, 180,
	)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e["message"] != "fit completed" {
		t.Errorf("message = %v", e["message"])
	}
	if e[ComponentKey] != "training" || e[ModelNameKey] != "Linear Regression" {
		t.Errorf("missing context fields: %v", e)
	}
	if e[SamplesKey] != 180.0 {
		t.Errorf("samples = %v", e[SamplesKey])
	}
}

func TestZerologLogger_ErrorWithStack(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	err := errors.NewNotFittedError("RandomForestRegressor", "Predict")
	logger.Error("prediction failed", err, OperationKey, OperationPredict)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if !strings.Contains(fmt.Sprint(e[ErrAttrKey]), "not fitted") {
		t.Errorf("error field = %v", e[ErrAttrKey])
	}
	if _, ok := e[StacktraceAttrKey]; !ok {
		t.Error("expected stacktrace field")
	}
	if e[OperationKey] != OperationPredict {
		t.Errorf("operation = %v", e[OperationKey])
	}
}

func TestSetupLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup("warn", "json", &buf); err != nil {
		t.Fatal(err)
	}
	defer SetLogger(NewZerologLogger(zerolog.Nop()))

	logger := GetLogger()
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn record missing")
	}
	if logger.Enabled(context.Background(), LevelInfo) {
		t.Error("info should be disabled")
	}
	if !logger.Enabled(context.Background(), LevelError) {
		t.Error("error should be enabled")
	}
}

func TestSetupRoutesWarnings(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup("info", "json", &buf); err != nil {
		t.Fatal(err)
	}
	defer errors.SetZerologWarnFunc(nil)

	errors.Warn(errors.NewDataConversionWarning("vl_pib", 3, "not a number"))

	if !strings.Contains(buf.String(), `"type":"DataConversionWarning"`) {
		t.Errorf("warning not routed to zerolog: %s", buf.String())
	}
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
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	_, err := ParseLevel("verbose")
	var vErr *errors.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.ParamName != "log_level" || vErr.Value != "verbose" {
		t.Errorf("unexpected fields: %+v", vErr)
	}
}

func TestTestLogger(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)

	logger.Debug("not captured")
	logger.With(ModelNameKey, "Gradient Boosting").Info("fit completed", R2ScoreKey, 0.81)
	logger.Error("failed", fmt.Errorf("boom"))

	if logger.ContainsMessage("not captured") {
		t.Error("debug should be filtered")
	}
	if !logger.ContainsField(ModelNameKey, "Gradient Boosting") {
		t.Error("context field missing")
	}
	if !logger.ContainsField(R2ScoreKey, 0.81) {
		t.Error("metric field missing")
	}
	if !logger.ContainsField(ErrAttrKey, "boom") {
		t.Error("error field missing")
	}
}

func TestTestLogger_Concurrent(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				logger.Info("tick", "worker", id, "n", j)
			}
		}(i)
	}
	wg.Wait()

	entries, err := logger.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 20 {
		t.Errorf("expected 20 entries, got %d", len(entries))
	}
}
