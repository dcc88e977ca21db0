// Package format renders timestamps, currency amounts and durations as the
// operator-facing strings used across the triage views.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/finsupport/triage-service/internal/domain"
)

// Currency renders a dollar amount: millions get one decimal and an M suffix,
// thousands are grouped with no decimals, anything smaller keeps cents.
func Currency(val float64) string {
	switch {
	case val >= 1_000_000:
		return "$" + groupThousands(fmt.Sprintf("%.1f", val/1_000_000)) + "M"
	case val >= 1_000:
		return "$" + groupThousands(fmt.Sprintf("%.0f", val))
	default:
		return "$" + groupThousands(fmt.Sprintf("%.2f", val))
	}
}

// Hours renders a duration given in hours: minutes under an hour, one-decimal
// hours under a day, one-decimal days beyond.
func Hours(h float64) string {
	switch {
	case h < 1:
		return fmt.Sprintf("%.0fm", h*60)
	case h < 24:
		return fmt.Sprintf("%.1fh", h)
	default:
		return fmt.Sprintf("%.1fd", h/24)
	}
}

// Relative renders a timestamp relative to now: "Just now", "12m ago", a
// 12-hour clock time for earlier today, "Yesterday", "3d ago", then an
// abbreviated month and day. Unparseable values fall back to the first ten
// characters of the raw string.
func Relative(raw string, now time.Time) string {
	if raw == "" {
		return ""
	}
	ts := domain.ParseTimestamp(raw)
	if ts == nil {
		if r := []rune(raw); len(r) > 10 {
			return string(r[:10])
		}
		return raw
	}
	localNow := now.In(ts.Location())
	diff := localNow.Sub(*ts)

	if sameDate(*ts, localNow) {
		mins := int(diff.Minutes())
		switch {
		case mins < 1:
			return "Just now"
		case mins < 60:
			return strconv.Itoa(mins) + "m ago"
		default:
			return ts.Format("03:04 PM")
		}
	}
	if sameDate(*ts, localNow.AddDate(0, 0, -1)) {
		return "Yesterday"
	}
	if days := int(diff.Hours() / 24); days < 7 {
		return strconv.Itoa(days) + "d ago"
	}
	return ts.Format("Jan 02")
}

// Full renders the fixed detail-view timestamp, "HH:MM, Weekday, Mon DD".
// Missing or unparseable values render as "N/A".
func Full(raw string) string {
	ts := domain.ParseTimestamp(raw)
	if ts == nil {
		return "N/A"
	}
	return ts.Format("15:04, Monday, Jan 02")
}

// groupThousands inserts commas into the integer part of a formatted number.
func groupThousands(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	if hasFrac {
		out += "." + frac
	}
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
