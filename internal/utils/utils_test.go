package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumber(t *testing.T) {
	t.Run("Format", func(t *testing.T) {
		num := GenerateOrderNumber()
		assert.True(t, strings.HasPrefix(num, "ORD-"))
		assert.Len(t, strings.Split(num, "-"), 5)
	})

	t.Run("Unique across calls", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			num := GenerateOrderNumber()
			assert.False(t, seen[num], "duplicate order number %s", num)
			seen[num] = true
		}
	})
}

func TestNormalizePhoneID(t *testing.T) {
	cases := map[string]string{
		"08123456789":    "+628123456789",
		"628123456789":   "+628123456789",
		"+628123456789":  "+628123456789",
		"0812 3456-789":  "+628123456789",
		"18005551234":    "18005551234",
	}

	for input, want := range cases {
		assert.Equal(t, want, NormalizePhoneID(input), "input %q", input)
	}
}
