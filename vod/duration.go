package vod

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrDurationFormat is wrapped by ParseDuration failures.
var ErrDurationFormat = errors.New("invalid duration format")

// maxDuration caps parsed durations (about 68 years) so the arithmetic below
// cannot overflow.
const maxDuration = math.MaxInt32

// ParseDuration converts "H:MM:SS" or "MM:SS" into seconds. Each part must be a
// non-negative base-10 integer; minutes and seconds are not range checked.
func ParseDuration(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrDurationFormat, s)
	}
	vals := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > maxDuration {
			return 0, fmt.Errorf("%w: %q", ErrDurationFormat, s)
		}
		vals[i] = n
	}
	if len(vals) == 2 {
		vals = append([]int{0}, vals...)
	}
	total := vals[0]*3600 + vals[1]*60 + vals[2]
	if total > maxDuration {
		return 0, fmt.Errorf("%w: %q exceeds %d seconds", ErrDurationFormat, s, maxDuration)
	}
	return total, nil
}

var twitchUnits = map[rune]int{'h': 3600, 'm': 60, 's': 1}

// ParseTwitchDuration parses Helix durations like "3h15m42s". Unknown
// characters reset the pending number; trailing digits without a unit are ignored.
func ParseTwitchDuration(s string) int {
	total, n, pending := 0, 0, false
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
			pending = true
			continue
		}
		if pending {
			total += n * twitchUnits[r]
		}
		n, pending = 0, false
	}
	return total
}
