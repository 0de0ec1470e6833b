// Package units has the small pure conversions used across the player:
// time formatting, clamping and volume percent/gain mapping.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatTime renders seconds as m:ss. NaN, infinite and negative values render as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatDuration is FormatTime for a time.Duration.
func FormatDuration(d time.Duration) string {
	return FormatTime(d.Seconds())
}

// ParseTime parses "m:ss" (or "h:mm:ss") back into a duration.
// Anything else, including "Unknown", yields ok=false.
func ParseTime(s string) (time.Duration, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		if i > 0 && n >= 60 {
			return 0, false
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, true
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampDuration limits d to [lo, hi].
func ClampDuration(d, lo, hi time.Duration) time.Duration {
	return max(lo, min(d, hi))
}

// PercentToGain maps 0..100 to a linear gain in [0, 1].
func PercentToGain(percent float64) float64 {
	if math.IsNaN(percent) {
		return 0
	}
	return Clamp(percent/100, 0, 1)
}

// GainToPercent maps a linear gain to a whole percentage in [0, 100].
func GainToPercent(gain float64) int {
	if math.IsNaN(gain) {
		return 0
	}
	return int(math.Round(Clamp(gain, 0, 1) * 100))
}

// DBToGain converts decibels to a linear amplitude factor.
func DBToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

// GainToDB converts a linear amplitude factor to decibels. Silence maps to -Inf.
func GainToDB(gain float64) float64 {
	if gain <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(gain)
}

// Seconds converts a float seconds value (as persisted) to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// FormatSize renders a byte count for listings.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
