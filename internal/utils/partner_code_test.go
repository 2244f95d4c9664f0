package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratePartnerCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GeneratePartnerCode()
		assert.NoError(t, err)
		assert.Regexp(t, `^[0-9a-f]{10}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 95)
}
