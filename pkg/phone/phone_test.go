package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAndValid(t *testing.T) {
	cases := []struct {
		raw   string
		norm  string
		valid bool
	}{
		{"010-1234-5678", "01012345678", true},
		{" 010 123 4567 ", "0101234567", true},
		{"+82 10", "8210", false},
		{"0101234567890", "0101234567890", false},
		{"", "", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.norm, Normalize(tc.raw), tc.raw)
		assert.Equal(t, tc.valid, Valid(tc.raw), tc.raw)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "010-1234-5678", Format("01012345678"))
	assert.Equal(t, "010-123-4567", Format("010.123.4567"))
	assert.Equal(t, "12345", Format(" 12345 "))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "010-****-5678", Mask("01012345678"))
	assert.Equal(t, "abc", Mask("abc"))
}
