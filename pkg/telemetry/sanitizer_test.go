package telemetry

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw     string
		want    PIILevel
		wantErr bool
	}{
		{raw: "none", want: PIILevelNone},
		{raw: " HASHED ", want: PIILevelHashed},
		{raw: "", want: PIILevelHashed},
		{raw: "full", want: PIILevelFull},
		{raw: "partial", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLevel(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuery_None(t *testing.T) {
	s := NewSanitizer(PIILevelNone, "multichat")
	assert.Equal(t, "[REDACTED len=5]", s.Query("héllo"))
}

func TestQuery_Full(t *testing.T) {
	s := NewSanitizer(PIILevelFull, "multichat")
	input := "My email is john@example.com"
	assert.Equal(t, input, s.Query(input))
}

func TestQuery_Hashed(t *testing.T) {
	s := NewSanitizer(PIILevelHashed, "multichat")

	tests := []struct {
		name      string
		input     string
		absent    string
		contains  string
		unchanged string
	}{
		{name: "email", input: "Contact john.doe@example.com please", absent: "john.doe@example.com", contains: "[EMAIL:", unchanged: "please"},
		{name: "phone", input: "Call 555-123-4567 now", absent: "555-123-4567", contains: "[PHONE:", unchanged: "now"},
		{name: "ssn", input: "SSN 123-45-6789", absent: "123-45-6789", contains: "[SSN:REDACTED]"},
		{name: "credit card", input: "card 4111 1111 1111 1111", absent: "4111 1111", contains: "[CC:REDACTED]"},
		{name: "ip", input: "server 192.168.1.10 is down", absent: "192.168.1.10", contains: "[IP:"},
		{name: "api key", input: "why does gsk-abcdefgh12345 fail", absent: "gsk-abcdefgh12345", contains: "[KEY:REDACTED]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Query(tt.input)
			assert.NotContains(t, got, tt.absent)
			assert.Contains(t, got, tt.contains)
			if tt.unchanged != "" {
				assert.Contains(t, got, tt.unchanged)
			}
		})
	}
}

func TestQuery_Truncates(t *testing.T) {
	s := NewSanitizer(PIILevelFull, "multichat")
	got := s.Query(strings.Repeat("ü", 500))
	assert.Equal(t, defaultMaxQueryRunes+1, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestFingerprint(t *testing.T) {
	a := NewSanitizer(PIILevelHashed, "salt-a")
	b := NewSanitizer(PIILevelHashed, "salt-b")

	assert.Len(t, a.Fingerprint("hello"), 8)
	assert.Equal(t, a.Fingerprint("hello"), a.Fingerprint("hello"))
	assert.NotEqual(t, a.Fingerprint("hello"), a.Fingerprint("world"))
	assert.NotEqual(t, a.Fingerprint("hello"), b.Fingerprint("hello"))
}
