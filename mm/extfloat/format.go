// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package extfloat

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders x as a C99-style bracketed hex-float pair "[hi, lo]",
// matching the original's debug dump format so values round-trip through
// ParseString without losing a bit.
func (x ExtFloat) String() string {
	return fmt.Sprintf("[%s, %s]", formatHexFloat(x.hi), formatHexFloat(x.lo))
}

// formatHexFloat renders a single float64 in Go's %x hex-float notation,
// which is bit-exact and directly parseable by strconv.ParseFloat.
func formatHexFloat(v float64) string {
	return strconv.FormatFloat(v, 'x', -1, 64)
}

// ParseString parses a value produced by String: the bracketed two-word
// hex-float form "[hi, lo]", or a bare single hex/decimal float (treated as
// having lo=0).
func ParseString(s string) (ExtFloat, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		inner := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		parts := strings.SplitN(inner, ",", 2)
		if len(parts) != 2 {
			return Zero, fmt.Errorf("extfloat: malformed pair %q", s)
		}
		hi, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return Zero, fmt.Errorf("extfloat: bad hi word: %w", err)
		}
		lo, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return Zero, fmt.Errorf("extfloat: bad lo word: %w", err)
		}
		return FromPair(hi, lo), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Zero, fmt.Errorf("extfloat: %w", err)
	}
	return FromFloat64(v), nil
}
