package idgen

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureID(t *testing.T) {
	id, err := GenerateSecureID("test", 16)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^test_[0-9a-z]{16}$`), id)

	_, err = GenerateSecureID("test", 0)
	assert.Error(t, err)
}

func TestNewSessionID_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for range 1000 {
		id, err := NewSessionID()
		require.NoError(t, err)
		assert.Regexp(t, `^sess_[0-9a-z]{24}$`, id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}
