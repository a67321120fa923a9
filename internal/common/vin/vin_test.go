package vin

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmw-vin-connector/internal/common/errors"
)

func TestValidate_Valid(t *testing.T) {
	valid := []string{
		"WBA3B5C50DF123456",
		"5UXCW2C09L9C15882",
		"WBAHF3C03NWX42344",
		"4USBT53544LT26841",
	}
	for _, v := range valid {
		assert.NoError(t, Validate(v), v)
	}
}

func TestValidate_WrongLength(t *testing.T) {
	err := Validate("WBA123")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidVinFormat, errors.CodeOf(err))

	err = Validate("WBA3B5C50DF1234567") // 18 chars
	require.Error(t, err)
}

func TestValidate_DisallowedCharacters(t *testing.T) {
	// I, O and Q are excluded from the VIN alphabet, as is lowercase.
	for _, v := range []string{
		"WBA3B5C50DF12345I",
		"WBA3B5C50DF12345O",
		"WBA3B5C50DF12345Q",
		"wba3b5c50df123456",
		"WBA3B5C50DF12345-",
	} {
		err := Validate(v)
		require.Error(t, err, v)
		assert.Equal(t, errors.ErrCodeInvalidVinFormat, errors.CodeOf(err))
	}
}

func TestIsBMW(t *testing.T) {
	assert.True(t, IsBMW("WBA3B5C50DF123456"))
	assert.True(t, IsBMW("WBS3B5C50DF123456"))
	assert.True(t, IsBMW("WBY3B5C50DF123456"))
	assert.True(t, IsBMW("4USBT53544LT26841"))
	assert.False(t, IsBMW("5UXCW2C09L9C15882")) // 5UX is BMW NA but not in the prefix table
	assert.False(t, IsBMW("WB"))
}

func TestPlantName(t *testing.T) {
	// Position 11 (0-based) carries the plant code.
	v := "WBA3B5C50DF123456"
	require.Equal(t, byte('1'), v[11])
	assert.Equal(t, "Unknown", PlantName(v))

	munich := "WBA3B5C50DFC23456"
	require.Equal(t, byte('C'), munich[11])
	assert.Equal(t, "Munich, Germany", PlantName(munich))

	assert.Equal(t, "Unknown", PlantName("short"))
}

func TestClassifySeries(t *testing.T) {
	tests := []struct {
		model string
		want  Series
	}{
		{"3 Series", Series3},
		{"328i", Series2}, // "2" precedes "3" in the table order
		{"X5", Series5},   // digits precede X/M/i
		{"M3", Series3},
		{"i4", Series4},
		{"Z4 Roadster", Series4},
		{"Unknown", SeriesUnknown},
		{"", SeriesUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySeries(tt.model))
		})
	}
}

func TestClassifySeries_MOnly(t *testing.T) {
	assert.Equal(t, SeriesM, ClassifySeries("M Roadster"))
	assert.False(t, strings.Contains("M Roadster", "3"))
}
