package bytesize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
)

// Format renders n in binary units, e.g. 2048 -> "2.0 KiB".
func Format(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

// Parse accepts a plain byte count ("2048") or a size with a unit ("512 KiB",
// "1.5GB"). A bare K, M, G or T suffix is binary, so "2M" is 2 MiB. A number
// without a unit must be a whole number of bytes.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative size %q", s)
	}
	if isDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size %q: %w", s, err)
		}
		return n, nil
	}

	number := strings.TrimSpace(strings.TrimRightFunc(s, unicode.IsLetter))
	unit := strings.TrimSpace(s[len(strings.TrimRightFunc(s, unicode.IsLetter)):])
	if unit == "" {
		return 0, fmt.Errorf("invalid size %q: fractional byte count", s)
	}
	if len(unit) == 1 && strings.ContainsAny(unit, "kKmMgGtT") {
		s = number + strings.ToUpper(unit) + "iB"
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q out of range", s)
	}
	return int64(n), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
