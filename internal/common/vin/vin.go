// Package vin holds VIN format validation and the BMW-specific decode
// tables (manufacturing plants, series classification).
package vin

import (
	"fmt"
	"strings"

	"bmw-vin-connector/internal/common/errors"
)

const Length = 17

// Series classifies a BMW model line.
type Series string

const (
	Series1       Series = "1"
	Series2       Series = "2"
	Series3       Series = "3"
	Series4       Series = "4"
	Series5       Series = "5"
	Series6       Series = "6"
	Series7       Series = "7"
	Series8       Series = "8"
	SeriesX       Series = "X"
	SeriesM       Series = "M"
	SeriesI       Series = "i"
	SeriesUnknown Series = "Unknown"
)

// orderedSeries preserves the classification precedence: digit series
// first, then X/M/i. "Unknown" is the fallback and never matched.
var orderedSeries = []Series{
	Series1, Series2, Series3, Series4,
	Series5, Series6, Series7, Series8,
	SeriesX, SeriesM, SeriesI,
}

// bmwPrefixes are the world manufacturer identifiers BMW uses
// (Germany and the Spartanburg, SC plant).
var bmwPrefixes = []string{"WBA", "WBS", "WBY", "4US"}

// plantCodes maps VIN position 11 to the BMW manufacturing plant.
var plantCodes = map[byte]string{
	'A': "Greer, SC, USA",
	'B': "Dingolfing, Germany",
	'C': "Munich, Germany",
	'L': "Leipzig, Germany",
	'N': "Regensburg, Germany",
	'P': "Munich, Germany",
	'R': "Spartanburg, SC, USA",
	'U': "Rosslyn, South Africa",
	'W': "Born, Netherlands",
}

// Validate checks VIN format only: exactly 17 characters from the VIN
// alphabet (digits and uppercase letters, excluding I, O and Q).
func Validate(v string) error {
	if len(v) != Length {
		return errors.NewInvalidVinFormatError(v,
			fmt.Sprintf("VIN must be %d characters long, got %d", Length, len(v)))
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z' && c != 'I' && c != 'O' && c != 'Q':
		default:
			return errors.NewInvalidVinFormatError(v,
				fmt.Sprintf("character %q at position %d is not in the VIN alphabet", c, i))
		}
	}
	return nil
}

// IsBMW reports whether the VIN carries a known BMW manufacturer prefix.
func IsBMW(v string) bool {
	if len(v) < 3 {
		return false
	}
	prefix := v[:3]
	for _, p := range bmwPrefixes {
		if prefix == p {
			return true
		}
	}
	return false
}

// PlantName resolves the manufacturing plant from VIN position 11.
// Unknown codes map to the explicit "Unknown" marker.
func PlantName(v string) string {
	if len(v) != Length {
		return string(SeriesUnknown)
	}
	if plant, ok := plantCodes[v[11]]; ok {
		return plant
	}
	return string(SeriesUnknown)
}

// ClassifySeries determines the BMW series from a decoded model name.
func ClassifySeries(modelName string) Series {
	for _, s := range orderedSeries {
		if strings.Contains(modelName, string(s)) {
			return s
		}
	}
	return SeriesUnknown
}
