package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "crimescope: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			wantMsg: "crimescope: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// stack trace points at the caller
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("LinearRegression.Predict", 5, 3, 1)

	want := "crimescope: LinearRegression.Predict: dimension mismatch on axis 1 (features). Expected 5, got 3"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatal("Error should be castable to *DimensionError")
	}
	if dimErr.Expected != 5 || dimErr.Got != 3 {
		t.Errorf("unexpected fields: %+v", dimErr)
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("RandomForestRegressor", "Predict")

	want := "crimescope: RandomForestRegressor: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewDatasetError(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		missing []string
		err     error
		wantMsg string
	}{
		{
			name:    "missing file",
			path:    "data/raw/pib-ocorrencias.csv",
			err:     ErrFileNotFound,
			wantMsg: "crimescope: dataset data/raw/pib-ocorrencias.csv: file not found",
		},
		{
			name:    "missing columns",
			path:    "x.csv",
			missing: []string{"ano", "uf"},
			wantMsg: "crimescope: dataset x.csv: missing columns [ano, uf]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDatasetError(tt.path, tt.missing, tt.err)
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
			if tt.err != nil && !Is(err, tt.err) {
				t.Errorf("expected %v in chain", tt.err)
			}
		})
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrModelNotFound, "load bundle")

	if !Is(wrapped, ErrModelNotFound) {
		t.Error("Expected Is(wrapped, ErrModelNotFound) to be true")
	}
	if !strings.Contains(wrapped.Error(), "load bundle") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if want := "in Predict: expected 10, got 5"; !strings.Contains(wrapped.Error(), want) {
		t.Errorf("Expected wrapped error to contain %q", want)
	}
}

func TestWarnRoutesToZerologFunc(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewDataConversionWarning("vl_pib", 2, "not a number"))

	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}
	if !strings.Contains(got[0].Error(), `column "vl_pib": 2 value(s)`) {
		t.Errorf("unexpected warning text: %v", got[0])
	}
}

func TestMarshalZerologObject(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf)

	var dimErr *DimensionError
	_ = As(NewDimensionError("Fit", 10, 9, 0), &dimErr)
	logger.Error().Object("err", dimErr).Msg("shape")

	if !strings.Contains(buf.String(), `"axis_name":"rows"`) {
		t.Errorf("expected structured fields, got %s", buf.String())
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("boost", []float64{1, 2, 3}, 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := CheckNumericalStability("boost", []float64{1, math.NaN(), math.Inf(1)}, 7)
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if numErr.Iteration != 7 || len(numErr.Values) != 2 {
		t.Errorf("unexpected fields: %+v", numErr)
	}

	if err := CheckScalar("r2", math.NaN(), 0); err == nil {
		t.Error("expected error for NaN scalar")
	}
}

func TestSafeDivide(t *testing.T) {
	if got := SafeDivide(10, 0); got != 0 {
		t.Errorf("SafeDivide(10, 0) = %v, want 0", got)
	}
	if got := SafeDivide(10, 4); got != 2.5 {
		t.Errorf("SafeDivide(10, 4) = %v, want 2.5", got)
	}
}
