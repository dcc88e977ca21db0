package normalize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsupport/triage-service/internal/domain"
)

func TestApply(t *testing.T) {
	ticket := domain.Ticket{
		EmailBody:    "From: Alice <alice@example.com>\nSubject: Refund request\nHello, I need a refund.",
		CustomerName: "Alice Smith",
	}
	Apply(&ticket)

	assert.Equal(t, "Refund request", ticket.Subject)
	assert.Equal(t, "Alice Smith", ticket.Sender)
	assert.Equal(t, "alice@example.com", ticket.SenderEmail)
	assert.Equal(t, "Hello, I need a refund.", ticket.Preview)
	assert.Equal(t, "Hello, I need a refund.", ticket.CleanBody)

	// Idempotent: a second pass changes nothing.
	before := ticket
	Apply(&ticket)
	assert.Equal(t, before, ticket)
}

func TestSubject(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"header present", "Subject: Chargeback dispute\nBody text", "Chargeback dispute"},
		{"header case insensitive", "subject:   spaced out  \nrest", "spaced out"},
		{"no header short body", "Short complaint", "Short complaint"},
		{"empty body", "", "No Subject"},
		{"whitespace only", "   \n  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Subject(tt.body))
		})
	}
}

func TestSubjectTruncation(t *testing.T) {
	long := strings.Repeat("a", 100)
	got := Subject("Subject: " + long)
	assert.Len(t, got, 80)

	fallback := Subject(long)
	require.True(t, strings.HasSuffix(fallback, "…"))
	assert.Equal(t, long[:55], strings.TrimSuffix(fallback, "…"))
}

func TestSubjectMultibyte(t *testing.T) {
	// Limits count characters, so a 50-rune accented subject is untouched
	// even though it is 100 bytes.
	short := strings.Repeat("é", 50)
	assert.Equal(t, short, Subject("Subject: "+short))

	long := strings.Repeat("é", 100)
	got := Subject("Subject: " + long)
	require.True(t, utf8.ValidString(got))
	assert.Equal(t, 80, utf8.RuneCountInString(got))

	fallback := Subject(long)
	require.True(t, utf8.ValidString(fallback))
	require.True(t, strings.HasSuffix(fallback, "…"))
	assert.Equal(t, strings.Repeat("é", 55), strings.TrimSuffix(fallback, "…"))

	// Under the fallback limit, no ellipsis.
	assert.Equal(t, strings.Repeat("é", 30), Subject(strings.Repeat("é", 30)))
}

func TestSender(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		customerName string
		want         string
	}{
		{"customer name wins", "From: Bob <bob@x.com>", "Carol", "Carol"},
		{"unknown customer falls back", "From: Bob Jones <bob@x.com>", "Unknown", "Bob Jones"},
		{"address only", "From: <bob@x.com>", "", "<bob@x.com>"},
		{"no from line", "just text", "", "Unknown Sender"},
		{"empty everything", "", "", "Unknown Sender"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sender(tt.body, tt.customerName))
		})
	}
}

func TestSenderTruncation(t *testing.T) {
	name := strings.Repeat("x", 60)
	got := Sender("From: "+name, "")
	assert.Len(t, got, 30)

	cyrillic := strings.Repeat("ж", 60)
	got = Sender("From: "+cyrillic, "")
	require.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("ж", 30), got)
}

func TestSenderEmail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"angle brackets", "From: Alice <alice+refund@mail.example.co.uk>", "alice+refund@mail.example.co.uk"},
		{"bare address", "From: bob@example.com", "bob@example.com"},
		{"address outside from line ignored", "Reply to carol@example.com please", ""},
		{"no address", "From: Anonymous", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SenderEmail(tt.body))
		})
	}
}

func TestPreview(t *testing.T) {
	body := "From: a@x.com\nTo: support@y.com\nSubject: Hi\nDate: Mon\n\nFirst line.\nSecond line."
	assert.Equal(t, "First line. Second line.", Preview(body))
	assert.Equal(t, "", Preview(""))

	long := strings.Repeat("word ", 40)
	assert.Len(t, Preview(long), 100)

	accented := strings.Repeat("ü ", 80)
	got := Preview(accented)
	require.True(t, utf8.ValidString(got))
	assert.Equal(t, 100, utf8.RuneCountInString(got))
}

func TestCleanBody(t *testing.T) {
	body := "From: a@x.com\nSubject: Hi\n\nFirst paragraph.\n\nSecond paragraph."
	want := "First paragraph.\n\nSecond paragraph."
	assert.Equal(t, want, CleanBody(body))
	assert.Equal(t, "", CleanBody(""))
	assert.Equal(t, "", CleanBody("From: a@x.com\nSubject: only headers"))
}
