// Package triage orders and groups ticket working sets for display.
package triage

import (
	"sort"

	"github.com/finsupport/triage-service/internal/domain"
)

// epoch returns the ticket's creation time as unix seconds; tickets without a
// timestamp get 0 so they sink to the bottom of their priority tier.
func epoch(t domain.Ticket) int64 {
	if t.CreatedAt == nil {
		return 0
	}
	return t.CreatedAt.Unix()
}

// Sort orders tickets by priority rank ascending, then recency descending.
// The sort is stable and returns a new slice; the input is not mutated.
func Sort(tickets []domain.Ticket) []domain.Ticket {
	sorted := make([]domain.Ticket, len(tickets))
	copy(sorted, tickets)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].Priority.Rank(), sorted[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return epoch(sorted[i]) > epoch(sorted[j])
	})
	return sorted
}
