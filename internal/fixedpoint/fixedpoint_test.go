package fixedpoint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raventid/matchcore/internal/fixedpoint"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"25.3519", 253519},
		{"0.0024", 24},
		{"0.0026", 26},
		{"100", 1000000},
		{"-10.5", -105000},
		{"0", 0},
	}
	for _, c := range cases {
		got, err := fixedpoint.Parse(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "Parse(%q)", c.in)
	}
}

func TestParse_HalfAwayFromZero(t *testing.T) {
	// 0.00005 at scale 4 rounds the 5th digit away from zero, not to even.
	got, err := fixedpoint.Parse("1.00005")
	require.NoError(t, err)
	assert.Equal(t, int64(10001), got)

	got, err = fixedpoint.Parse("-1.00005")
	require.NoError(t, err)
	assert.Equal(t, int64(-10001), got)
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "1e999999999999999999999"} {
		_, err := fixedpoint.Parse(in)
		assert.ErrorIs(t, err, fixedpoint.ErrMalformedNumber, "input %q", in)
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 253519, 24, 1000000, -105000, 9999, -9999} {
		s := fixedpoint.Format(n)
		got, err := fixedpoint.Parse(s)
		require.NoError(t, err)
		assert.Equal(t, n, got, "round trip of %d via %q", n, s)
	}
}

func TestFormat_TrimsTrailingZeros(t *testing.T) {
	assert.Equal(t, "10", fixedpoint.Format(100000))
	assert.Equal(t, "10.5", fixedpoint.Format(105000))
	assert.Equal(t, "0.0024", fixedpoint.Format(24))
	assert.Equal(t, "0", fixedpoint.Format(0))
	assert.Equal(t, "-10.5", fixedpoint.Format(-105000))
}
