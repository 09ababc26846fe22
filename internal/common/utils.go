package common

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders f the way a browser stringifies a number: the shortest
// decimal that round-trips, with no trailing zeros (18, 12.5, -3.25), switching
// to exponent form below 1e-6 and from 1e21 up (1e-7, 1.5e+21).
func FormatNumber(f float64) string {
	switch {
	case f == 0:
		return "0"
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	if a := math.Abs(f); a >= 1e-6 && a < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	// Go pads the exponent to two digits ("1e-07").
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}
