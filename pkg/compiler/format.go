package compiler

import (
	"math"
	"strconv"
	"strings"

	"github.com/sceneforge/sceneforge/pkg/scene"
)

// roundTo rounds v to the given number of fractional digits using
// round-half-away-from-zero, the canonical rounding for emitted numbers.
//
// The rounding operates on the shortest decimal representation of v rather
// than on scaled binary floats: 1.005 is stored as 1.00499…, so a
// multiply-round-divide would yield 1.00 where 1.01 is required.
func roundTo(v float64, digits int) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	neg := math.Signbit(v)
	s := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s)-dot-1 > digits {
		cut := dot + 1 + digits
		if digits == 0 {
			cut = dot
		}
		up := s[dot+1+digits] >= '5'
		s = s[:cut]
		if up {
			s = incDecimal(s)
		}
	}
	r, _ := strconv.ParseFloat(s, 64)
	if neg {
		r = -r
	}
	return r
}

// incDecimal adds one unit in the last place of a non-negative decimal
// string such as "1.00" or "12", carrying as needed.
func incDecimal(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == '.' {
			continue
		}
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}

// formatNum renders v rounded to the configured precision with trailing
// zeros stripped. Negative zero collapses to "0".
func formatNum(v float64, digits int) string {
	r := roundTo(v, digits)
	if r == 0 {
		// Avoids "-0" for tiny negative values.
		return "0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// isDefault reports whether v rounds to the kind-appropriate default def.
// Default-valued components are omitted from the output entirely; this is
// the terseness contract the pruner and emitter jointly uphold.
func isDefault(v, def float64, digits int) bool {
	return roundTo(v, digits) == def
}

// vecIsDefault reports whether every component of v rounds to def.
func vecIsDefault(v scene.Vec3, def float64, digits int) bool {
	return isDefault(v[0], def, digits) && isDefault(v[1], def, digits) && isDefault(v[2], def, digits)
}

// formatVec renders v as a bracketed tuple, e.g. "[1, 0.5, 0]".
func formatVec(v scene.Vec3, digits int) string {
	return "[" + formatNum(v[0], digits) + ", " + formatNum(v[1], digits) + ", " + formatNum(v[2], digits) + "]"
}

// formatColor renders a linear RGB triple as a hex color literal.
func formatColor(c [3]float64) string {
	const hexdigits = "0123456789abcdef"
	var b strings.Builder
	b.WriteByte('#')
	for _, ch := range c {
		v := int(math.Round(clamp01(ch) * 255))
		b.WriteByte(hexdigits[v>>4])
		b.WriteByte(hexdigits[v&0xf])
	}
	return b.String()
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
