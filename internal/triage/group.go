package triage

import (
	"time"

	"github.com/finsupport/triage-service/internal/domain"
)

// Bucket is a display date group. Every ticket lands in exactly one bucket.
type Bucket string

const (
	BucketToday     Bucket = "Today"
	BucketYesterday Bucket = "Yesterday"
	BucketThisWeek  Bucket = "This Week"
	BucketEarlier   Bucket = "Earlier"
)

// BucketOrder is the fixed presentation order.
var BucketOrder = []Bucket{BucketToday, BucketYesterday, BucketThisWeek, BucketEarlier}

// BucketFor assigns a ticket to its date bucket relative to now. The
// comparison happens in the ticket timestamp's own location when it carries
// one, so a ticket filed "today" in its own zone groups as Today regardless
// of the server zone. "This Week" means strictly less than 7 days old and
// not Today/Yesterday; a ticket exactly 7 days old falls to Earlier.
// Missing or unparseable timestamps fall to Earlier.
func BucketFor(t domain.Ticket, now time.Time) Bucket {
	if t.CreatedAt == nil {
		return BucketEarlier
	}
	ts := *t.CreatedAt
	localNow := now.In(ts.Location())

	if sameDate(ts, localNow) {
		return BucketToday
	}
	if sameDate(ts, localNow.AddDate(0, 0, -1)) {
		return BucketYesterday
	}
	if localNow.Sub(ts) < 7*24*time.Hour {
		return BucketThisWeek
	}
	return BucketEarlier
}

// Grouped is one non-empty date bucket with its tickets in sorted order.
type Grouped struct {
	Bucket  Bucket
	Tickets []domain.Ticket
}

// Group partitions already-sorted tickets into date buckets, presented in
// BucketOrder with empty buckets omitted. In-bucket order is the input order.
func Group(tickets []domain.Ticket, now time.Time) []Grouped {
	byBucket := make(map[Bucket][]domain.Ticket, len(BucketOrder))
	for _, t := range tickets {
		b := BucketFor(t, now)
		byBucket[b] = append(byBucket[b], t)
	}
	out := make([]Grouped, 0, len(BucketOrder))
	for _, b := range BucketOrder {
		if len(byBucket[b]) > 0 {
			out = append(out, Grouped{Bucket: b, Tickets: byBucket[b]})
		}
	}
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
