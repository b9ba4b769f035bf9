package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{in: "0", want: 0},
		{in: "2048", want: 2048},
		{in: " 2048 ", want: 2048},
		{in: "2M", want: 2 * 1024 * 1024},
		{in: "1k", want: 1024},
		{in: "1.5 G", want: 3 * 512 * 1024 * 1024},
		{in: "2MB", want: 2000000},
		{in: "2MiB", want: 2 * 1024 * 1024},
		{in: "512 KiB", want: 512 * 1024},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "-1", "abc", "12 parsecs"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestParseRejectsFractionalBytes(t *testing.T) {
	for _, in := range []string{"1.5", "0.9", " 10.0 ", "1e3"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0 B", Format(0))
	assert.Equal(t, "2.0 KiB", Format(2048))
	assert.Equal(t, "-1.0 KiB", Format(-1024))
}
