package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"349.00", 34900},
		{"349", 34900},
		{"349.0", 34900},
		{"0.99", 99},
		{"0.994", 99},   // rounds down
		{"0.995", 100},  // half rounds up
		{"0.005", 1},    // half rounds up at the smallest scale
		{"10.999", 1100},
		{"0", 0},
		{"0.00", 0},
		{".50", 50},
		{" 12.34 ", 1234},
	}
	for _, tc := range cases {
		got, err := ToMinorUnits(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestToMinorUnits_Invalid(t *testing.T) {
	for _, in := range []string{"", ".", "abc", "12.3.4", "12,00", "-5.00", "1e3"} {
		_, err := ToMinorUnits(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestFromMinorUnits(t *testing.T) {
	assert.Equal(t, "349.00", FromMinorUnits(34900))
	assert.Equal(t, "0.00", FromMinorUnits(0))
	assert.Equal(t, "0.05", FromMinorUnits(5))
	assert.Equal(t, "1.50", FromMinorUnits(150))
	assert.Equal(t, "-3.25", FromMinorUnits(-325))
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"0.00", "0.01", "349.00", "1000.99"} {
		minor, err := ToMinorUnits(s)
		require.NoError(t, err)
		assert.Equal(t, s, FromMinorUnits(minor))
	}
}
