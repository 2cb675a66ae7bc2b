package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"a@b.co",
		"user+tag@example.com",
		"first.last@sub.domain.org",
	}
	for _, e := range valid {
		assert.True(t, IsValidEmail(e), e)
	}

	invalid := []string{
		"",
		"no-at-sign",
		"two@@example.com",
		"spaces in@example.com",
		"@example.com",
		"user@",
		"user@nodot",
		strings.Repeat("a", 250) + "@example.com", // over 254 chars
	}
	for _, e := range invalid {
		assert.False(t, IsValidEmail(e), e)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  ", 100))
	assert.Equal(t, "abc", SanitizeString("abcdef", 3))
	assert.Equal(t, "ab", SanitizeString("a\x00b", 100))
}

func TestValidate(t *testing.T) {
	errs := Validate(
		Required("planId", ""),
		Required("userId", "u_1"),
		ValidEmail("email", "not-an-email"),
	)
	assert.Len(t, errs, 2)
	assert.Equal(t, "planId", errs[0].Field)
	assert.Equal(t, "email", errs[1].Field)
	assert.Contains(t, errs.Error(), "planId")
}

func TestValidate_Clean(t *testing.T) {
	errs := Validate(
		Required("planId", "plan_pro"),
		ValidEmail("email", "a@b.co"),
		MaxLength("name", "short", 100),
	)
	assert.Empty(t, errs)
}
