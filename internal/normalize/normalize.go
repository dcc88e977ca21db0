// Package normalize derives display-ready fields from the raw header+body
// text attached to a ticket. All extraction is pure and total: any input,
// including the empty string, yields a usable result.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/finsupport/triage-service/internal/domain"
)

const (
	maxSubjectLen = 80
	maxFallback   = 55
	maxSenderLen  = 30
	maxPreviewLen = 100
)

var (
	bracketRe = regexp.MustCompile(`<[^>]+>`)
	emailRe   = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
)

// headerLine reports whether a line is one of the known header lines.
func headerLine(line string) bool {
	l := strings.ToLower(strings.TrimSpace(line))
	return strings.HasPrefix(l, "from:") ||
		strings.HasPrefix(l, "to:") ||
		strings.HasPrefix(l, "subject:") ||
		strings.HasPrefix(l, "date:")
}

// Apply fills the derived fields of a ticket from its raw email body and
// customer name. Idempotent: re-applying yields identical results.
func Apply(t *domain.Ticket) {
	t.Subject = Subject(t.EmailBody)
	t.Sender = Sender(t.EmailBody, t.CustomerName)
	t.SenderEmail = SenderEmail(t.EmailBody)
	t.Preview = Preview(t.EmailBody)
	t.CleanBody = CleanBody(t.EmailBody)
}

// Subject extracts the Subject: header value, truncated to 80 characters.
// Without a subject line the first 55 characters of the trimmed body are used,
// with an ellipsis when truncated. An empty body yields "No Subject".
func Subject(body string) string {
	if body == "" {
		return "No Subject"
	}
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "subject:") {
			_, value, _ := strings.Cut(line, ":")
			return truncate(strings.TrimSpace(value), maxSubjectLen)
		}
	}
	trimmed := strings.TrimSpace(body)
	if utf8.RuneCountInString(trimmed) > maxFallback {
		return truncate(trimmed, maxFallback) + "…"
	}
	return trimmed
}

// Sender prefers the customer name when known; otherwise the From: header
// value with any <...> address removed, truncated to 30 characters.
func Sender(body, customerName string) string {
	if customerName != "" && customerName != "Unknown" {
		return customerName
	}
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "from:") {
			_, value, _ := strings.Cut(line, ":")
			value = strings.TrimSpace(value)
			name := strings.TrimSpace(bracketRe.ReplaceAllString(value, ""))
			if name != "" {
				return truncate(name, maxSenderLen)
			}
			return truncate(value, maxSenderLen)
		}
	}
	return "Unknown Sender"
}

// SenderEmail returns the first email address found on a From: header line,
// or the empty string.
func SenderEmail(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "from:") {
			if match := emailRe.FindString(line); match != "" {
				return match
			}
		}
	}
	return ""
}

// Preview joins all non-header, non-blank lines with single spaces, truncated
// to 100 characters.
func Preview(body string) string {
	if body == "" {
		return ""
	}
	var parts []string
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		if headerLine(line) {
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return truncate(strings.Join(parts, " "), maxPreviewLen)
}

// CleanBody strips the four known header lines, preserving the remaining
// lines in order and trimming surrounding blank lines.
func CleanBody(body string) string {
	if body == "" {
		return ""
	}
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		if headerLine(line) {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// truncate limits s to max characters, not bytes, so multibyte
// subjects and sender names are never cut mid-rune.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) > max {
		return string(r[:max])
	}
	return s
}
