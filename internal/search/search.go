// Package search implements the free-text matcher used by the inbox views.
package search

import (
	"strings"

	"github.com/finsupport/triage-service/internal/domain"
)

// Haystack builds the lowercase searchable text for a ticket. The derived
// subject and sender email are included so operators can search what they
// see on screen, not just what the backend stored.
func Haystack(t domain.Ticket) string {
	fields := []string{
		t.EmailBody,
		t.CustomerName,
		t.Summary,
		t.Intent,
		string(t.Category),
		string(t.Priority),
		string(t.Sentiment),
		t.TransactionID,
		t.Amount,
		t.Subject,
		t.SenderEmail,
	}
	return strings.ToLower(strings.Join(fields, " "))
}

// Matches reports whether every whitespace-separated token of query is a
// substring of the ticket's haystack. The empty query matches everything;
// adding tokens can only narrow the match set.
func Matches(t domain.Ticket, query string) bool {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return true
	}
	haystack := Haystack(t)
	for _, token := range tokens {
		if !strings.Contains(haystack, token) {
			return false
		}
	}
	return true
}

// Filter returns the tickets matching query, preserving input order.
func Filter(tickets []domain.Ticket, query string) []domain.Ticket {
	if strings.TrimSpace(query) == "" {
		return tickets
	}
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if Matches(t, query) {
			out = append(out, t)
		}
	}
	return out
}
