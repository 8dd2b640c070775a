// Package timecode converts between VTT/SRT style timecodes and offsets in seconds.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/starford/homilyd/internal/apperr"
)

// Parse converts "H:MM:SS.mmm", "MM:SS.mmm" or either form without a fraction
// into seconds. The fraction separator may be "." or ",", and the fraction is
// read as an integer count of milliseconds.
func Parse(text string) (float64, error) {
	ts := strings.TrimSpace(text)
	clock, frac, hasFrac := strings.Cut(ts, ".")
	if !hasFrac {
		clock, frac, hasFrac = strings.Cut(ts, ",")
	}

	ms := 0
	if hasFrac {
		v, ok := digits(frac)
		if !ok {
			return 0, malformed(text)
		}
		ms = v
	}

	fields := strings.Split(clock, ":")
	nums := make([]int, len(fields))
	for i, f := range fields {
		v, ok := digits(f)
		if !ok {
			return 0, malformed(text)
		}
		nums[i] = v
	}

	var h, m, s int
	switch len(nums) {
	case 3:
		h, m, s = nums[0], nums[1], nums[2]
	case 2:
		m, s = nums[0], nums[1]
	default:
		return 0, malformed(text)
	}

	return float64(h*3600+m*60+s) + float64(ms)/1000.0, nil
}

// Format renders seconds as "HH:MM:SS.mmm", rounded to the millisecond.
// Negative input is clamped to zero.
func Format(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	ms := total % 1000
	s := (total / 1000) % 60
	m := (total / 60000) % 60
	h := total / 3600000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func digits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func malformed(text string) error {
	return fmt.Errorf("timecode: %q: %w", text, apperr.ErrMalformedTimestamp)
}
