package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ZeroPace is returned for zero-distance activities instead of dividing.
const ZeroPace = "0'00\"/km"

// MaxDurationSeconds caps a parsed duration at one million hours.
const MaxDurationSeconds = 1_000_000 * 3600

// maxPaceSeconds bounds seconds-per-km so the minutes field always fits in an int.
const maxPaceSeconds = float64(math.MaxInt64 / 2)

var (
	// ErrInvalidDuration is returned when a duration label cannot be read or
	// exceeds MaxDurationSeconds.
	ErrInvalidDuration = errors.New("unrecognised duration")
	// ErrPaceOutOfRange is returned when the distance is too small for the
	// duration to yield a representable pace.
	ErrPaceOutOfRange = errors.New("pace out of range")
)

// DerivePace parses the free-text duration and formats the resulting pace for
// distanceKm.  A zero distance yields ZeroPace whatever the duration says.
func DerivePace(distanceKm float64, duration string) (string, error) {
	if distanceKm == 0 {
		return ZeroPace, nil
	}
	secs, err := ParseDurationText(duration)
	if err != nil {
		return "", err
	}
	perKm := float64(secs) / distanceKm
	if math.IsNaN(perKm) || math.IsInf(perKm, 0) || perKm < 0 || perKm > maxPaceSeconds {
		return "", ErrPaceOutOfRange
	}
	return FormatPace(distanceKm, secs), nil
}

// FormatPace renders seconds-per-km as M'SS"/km, truncating to whole seconds.
// Paces beyond what an int can hold are clamped.
func FormatPace(distanceKm float64, seconds int) string {
	if distanceKm == 0 {
		return ZeroPace
	}
	perKm := float64(seconds) / distanceKm
	if math.IsNaN(perKm) || perKm < 0 {
		return ZeroPace
	}
	if perKm > maxPaceSeconds {
		perKm = maxPaceSeconds
	}
	minutes := int(perKm / 60)
	secs := int(math.Mod(perKm, 60))
	return fmt.Sprintf("%d'%02d\"/km", minutes, secs)
}

// ParseDurationText converts labels such as "1h 23m", "45m", "30" or
// "26m 40s" to seconds.
//
// With an "h" marker the label reads as hours followed by optional minutes.
// Without one the leading number is minutes, whatever unit letter follows it.
// Either form may end with an "<n>s" seconds component.
func ParseDurationText(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, ErrInvalidDuration
	}

	total := 0
	if strings.Contains(s, "h") {
		hours, rest, ok := leadingNumber(s)
		if !ok || !strings.HasPrefix(strings.TrimSpace(rest), "h") {
			return 0, ErrInvalidDuration
		}
		total, ok = addScaled(0, hours, 3600)
		if !ok {
			return 0, ErrInvalidDuration
		}
		rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "h"))
		if rest == "" {
			return total, nil
		}
		mins, tail, ok := leadingNumber(rest)
		if !ok {
			return 0, ErrInvalidDuration
		}
		tail = strings.TrimSpace(tail)
		if strings.HasPrefix(tail, "s") {
			// "1h 30s": the component after hours is seconds
			if total, ok = addScaled(total, mins, 1); !ok {
				return 0, ErrInvalidDuration
			}
			return total, expectEnd(strings.TrimPrefix(tail, "s"))
		}
		if total, ok = addScaled(total, mins, 60); !ok {
			return 0, ErrInvalidDuration
		}
		return addSeconds(total, skipUnit(tail, "min", "m"))
	}

	mins, rest, ok := leadingNumber(s)
	if !ok {
		return 0, ErrInvalidDuration
	}
	if total, ok = addScaled(total, mins, 60); !ok {
		return 0, ErrInvalidDuration
	}
	return addSeconds(total, skipUnit(strings.TrimSpace(rest), "min", "m", "s"))
}

func addSeconds(total int, rest string) (int, error) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return total, nil
	}
	secs, tail, ok := leadingNumber(rest)
	if !ok || !strings.HasPrefix(strings.TrimSpace(tail), "s") {
		return 0, ErrInvalidDuration
	}
	tail = strings.TrimPrefix(strings.TrimSpace(tail), "s")
	if total, ok = addScaled(total, secs, 1); !ok {
		return 0, ErrInvalidDuration
	}
	return total, expectEnd(tail)
}

// addScaled adds n*unit seconds to total, refusing anything past
// MaxDurationSeconds before converting to int.
func addScaled(total int, n float64, unit int) (int, bool) {
	v := n * float64(unit)
	if v > MaxDurationSeconds || float64(total)+v > MaxDurationSeconds {
		return 0, false
	}
	return total + int(v), true
}

func expectEnd(rest string) error {
	rest = strings.TrimSpace(rest)
	if rest == "" || rest == "ec" || rest == "ecs" {
		return nil
	}
	return ErrInvalidDuration
}

func skipUnit(s string, units ...string) string {
	for _, u := range units {
		if strings.HasPrefix(s, u) {
			return s[len(u):]
		}
	}
	return s
}

// leadingNumber reads an unsigned decimal prefix.
func leadingNumber(s string) (float64, string, bool) {
	end := 0
	dot := false
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && !dot {
			dot = true
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0, s, false
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, s, false
	}
	return n, s[end:], true
}
