package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finsupport/triage-service/internal/domain"
)

func fixtures() []domain.Ticket {
	return []domain.Ticket{
		{
			ID:            "t1",
			CustomerName:  "Alice Smith",
			Summary:       "Chargeback on card payment",
			Category:      domain.CategoryFraud,
			Priority:      domain.TicketPriorityHigh,
			TransactionID: "TXN-1001",
			Amount:        "$450.00",
		},
		{
			ID:           "t2",
			CustomerName: "Bob Jones",
			Summary:      "Refund not received",
			Category:     domain.CategoryPaymentIssue,
			Priority:     domain.TicketPriorityMedium,
			Subject:      "Where is my refund",
		},
		{
			ID:           "t3",
			CustomerName: "Carol Diaz",
			Summary:      "Question about statement",
			Category:     domain.CategoryGeneral,
			Priority:     domain.TicketPriorityLow,
			SenderEmail:  "carol@example.com",
		},
	}
}

func ids(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}

func TestMatchesEmptyQuery(t *testing.T) {
	for _, ticket := range fixtures() {
		assert.True(t, Matches(ticket, ""))
		assert.True(t, Matches(ticket, "   "))
	}
}

func TestMatchesCaseInsensitive(t *testing.T) {
	ticket := fixtures()[0]
	assert.True(t, Matches(ticket, "ALICE"))
	assert.True(t, Matches(ticket, "chargeback"))
	assert.True(t, Matches(ticket, "txn-1001"))
}

func TestMatchesAllTokensRequired(t *testing.T) {
	ticket := fixtures()[0]
	assert.True(t, Matches(ticket, "alice chargeback"))
	assert.False(t, Matches(ticket, "alice refund"))
}

func TestMatchesDerivedFields(t *testing.T) {
	tickets := fixtures()
	assert.True(t, Matches(tickets[1], "where is my refund"))
	assert.True(t, Matches(tickets[2], "carol@example.com"))
}

func TestFilterPreservesOrder(t *testing.T) {
	tickets := fixtures()
	got := Filter(tickets, "o")
	assert.Equal(t, ids(tickets), ids(got), "common token keeps input order")
}

func TestFilterNarrowsMonotonically(t *testing.T) {
	tickets := fixtures()

	one := Filter(tickets, "refund")
	two := Filter(tickets, "refund bob")
	assert.Equal(t, []string{"t2"}, ids(one))
	assert.Equal(t, []string{"t2"}, ids(two))

	none := Filter(tickets, "refund fraud")
	assert.Empty(t, none)
}

func TestFilterEmptyQueryReturnsAll(t *testing.T) {
	tickets := fixtures()
	assert.Equal(t, tickets, Filter(tickets, " "))
}
