package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhoneNumberIn(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		region      string
		expected    string
		shouldError bool
	}{
		{name: "Romanian mobile with country code", input: "+40721234567", expected: "+40721234567"},
		{name: "Romanian mobile without country code", input: "0721234567", expected: "+40721234567"},
		{name: "Romanian mobile with spaces", input: "0721 234 567", expected: "+40721234567"},
		{name: "Romanian mobile with dashes", input: "0721-234-567", expected: "+40721234567"},
		{name: "Romanian landline Bucharest", input: "  0211234567 ", expected: "+40211234567"},
		{name: "too short", input: "123", shouldError: true},
		{name: "letters", input: "abcdefghij", shouldError: true},
		{name: "empty", input: "", shouldError: true},
		{name: "German mobile with country code", input: "+49 170 1234567", expected: "+491701234567"},
		{name: "German national number read as Romanian", input: "01701234567", shouldError: true},
		{name: "German national number with DE region", input: "01701234567", region: "de", expected: "+491701234567"},
		{name: "Irish mobile with parentheses", input: "+353 (87) 123 4567", expected: "+353871234567"},
		{name: "Irish national number with IE region", input: "0871234567", region: "IE", expected: "+353871234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NormalizePhoneNumberIn(tt.input, tt.region)

			if tt.shouldError {
				assert.Error(t, err, "input %q", tt.input)
				return
			}
			require.NoError(t, err, "input %q", tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNormalizePhoneNumberDefaultsToRomania(t *testing.T) {
	result, err := NormalizePhoneNumber("0721234567")

	require.NoError(t, err)
	assert.Equal(t, "+40721234567", result)
}
