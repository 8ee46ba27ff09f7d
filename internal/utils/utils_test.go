package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractHost(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"https://example.com", "example.com"},
		{"https://example.com/health", "example.com"},
		{"https://example.com:8443/health", "example.com"},
		{"http://sub.example.com", "sub.example.com"},
		{"example.com", "example.com"},
		{"example.com:22", "example.com"},
		{"example.com/path", "example.com"},
		{"192.168.1.10:5432", "192.168.1.10"},
	}

	for _, tc := range cases {
		got, err := ExtractHost(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}
}

func TestExtractHostErrors(t *testing.T) {
	for _, input := range []string{"", "https://"} {
		_, err := ExtractHost(input)
		assert.Error(t, err, input)
	}
}

func TestExtractRawDomain(t *testing.T) {
	got, err := ExtractRawDomain("https://www.example.com/about")
	require.NoError(t, err)
	assert.Equal(t, "example.com", got)

	got, err = ExtractRawDomain("WWW.example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com", got)
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0h 0m 0s"},
		{3 * time.Second, "0h 0m 3s"},
		{2*time.Hour + 14*time.Minute + 3*time.Second, "2h 14m 3s"},
		{26*time.Hour + 14*time.Minute + 3*time.Second, "1d 2h 14m 3s"},
		{-time.Minute, "0h 0m 0s"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDuration(tc.d))
	}
}
