package dashboard

import (
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/crimescope/internal/features"
)

var funcMap = template.FuncMap{
	"thousands": thousands,
	"fixed": func(decimals int, v float64) string {
		if math.IsNaN(v) {
			return "-"
		}
		return strconv.FormatFloat(v, 'f', decimals, 64)
	},
	"crimeLabel": features.CrimeLabel,
	"abs":        math.Abs,
	"trunc":      func(v float64) float64 { return math.Trunc(v) },
}

// thousands formats an int or float without decimals and with comma
// separators.
func thousands(x any) string {
	var v float64
	switch n := x.(type) {
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case float64:
		v = n
	default:
		return fmt.Sprint(x)
	}
	if math.IsNaN(v) {
		return "-"
	}
	s := fmt.Sprintf("%.0f", math.Abs(v))
	var b strings.Builder
	if v < 0 && s != "0" {
		b.WriteByte('-')
	}
	for i, ch := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	return b.String()
}
