// Package upstream is the typed client for the ticket backend. Every call is
// bounded by its own timeout and classified into an explicit CallResult, so
// callers decide deliberately what to do with a failure instead of having it
// swallowed for them. Nothing here retries.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/finsupport/triage-service/internal/config"
	"github.com/finsupport/triage-service/internal/domain"
)

// Outcome classifies how a backend call ended.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeTimeout
	OutcomeTransportError
	OutcomeBadStatus
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "bad_status"
	}
}

// CallResult carries the outcome of a single backend call.
type CallResult struct {
	Outcome    Outcome
	StatusCode int
	Err        error
}

// OK reports whether the call succeeded.
func (r CallResult) OK() bool {
	return r.Outcome == OutcomeOK
}

func ok(status int) CallResult {
	return CallResult{Outcome: OutcomeOK, StatusCode: status}
}

// ApproveResult is the backend's response to an approve action.
type ApproveResult struct {
	EmailSent bool   `json:"email_sent"`
	Recipient string `json:"recipient"`
}

// FetchedTicket summarizes one ticket created during an email fetch.
type FetchedTicket struct {
	TicketID string `json:"ticket_id"`
	Subject  string `json:"subject"`
	Sender   string `json:"sender"`
	Priority string `json:"priority"`
	Category string `json:"category"`
}

// FetchEmailsResult is the backend's email-ingestion report.
type FetchEmailsResult struct {
	Fetched           int             `json:"fetched"`
	Errors            int             `json:"errors"`
	SkippedDuplicates int             `json:"skipped_duplicates"`
	QuotaError        bool            `json:"quota_error"`
	Message           string          `json:"message"`
	Tickets           []FetchedTicket `json:"tickets"`
	ErrorDetails      []string        `json:"error_details"`
}

// Client talks to the ticket backend.
type Client struct {
	baseURL string
	http    *http.Client
	cfg     config.UpstreamConfig
	logger  *zap.Logger
}

// NewClient constructs a backend client. Per-endpoint timeouts come from the
// configuration; the shared http.Client carries no global timeout so the
// longest call (email fetch) is not capped by the shortest.
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{},
		cfg:     cfg,
		logger:  logger,
	}
}

// ListTickets fetches the working set, optionally filtered by status.
// On any failure the ticket slice is nil; the CallResult says why.
func (c *Client) ListTickets(ctx context.Context, status string) ([]domain.TicketRecord, CallResult) {
	endpoint := c.baseURL + "/tickets"
	if status != "" && status != "All" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var records []domain.TicketRecord
	res := c.call(ctx, http.MethodGet, endpoint, c.cfg.TicketsTimeout, &records)
	if !res.OK() {
		c.logger.Warn("ticket fetch failed",
			zap.String("outcome", res.Outcome.String()),
			zap.Error(res.Err))
		return nil, res
	}
	return records, res
}

// ApproveTicket asks the backend to send the draft response and resolve the
// ticket.
func (c *Client) ApproveTicket(ctx context.Context, id string) (*ApproveResult, CallResult) {
	var result ApproveResult
	res := c.call(ctx, http.MethodPost, c.baseURL+"/approve_ticket/"+url.PathEscape(id), c.cfg.ApproveTimeout, &result)
	if !res.OK() {
		return nil, res
	}
	return &result, res
}

// CloseTicket closes a ticket without replying.
func (c *Client) CloseTicket(ctx context.Context, id string) CallResult {
	return c.call(ctx, http.MethodPatch, c.baseURL+"/tickets/"+url.PathEscape(id)+"/reject", c.cfg.CloseTimeout, nil)
}

// MarkRead reports a ticket as read. Best effort: callers ignore the result
// except for logging, and the local read state is never rolled back.
func (c *Client) MarkRead(ctx context.Context, id string) CallResult {
	return c.call(ctx, http.MethodPut, c.baseURL+"/tickets/"+url.PathEscape(id)+"/read", c.cfg.MarkReadTimeout, nil)
}

// FetchEmails triggers the backend's email ingestion pipeline.
func (c *Client) FetchEmails(ctx context.Context, includeRead bool, maxEmails int) (*FetchEmailsResult, CallResult) {
	endpoint := fmt.Sprintf("%s/fetch_emails?include_read=%t&max_emails=%s",
		c.baseURL, includeRead, strconv.Itoa(maxEmails))
	var result FetchEmailsResult
	res := c.call(ctx, http.MethodPost, endpoint, c.cfg.FetchEmailsTimeout, &result)
	if !res.OK() {
		return nil, res
	}
	return &result, res
}

// Ping probes the backend's ticket listing without decoding the body. Used
// by the readiness probe; the result is advisory.
func (c *Client) Ping(ctx context.Context) CallResult {
	return c.call(ctx, http.MethodGet, c.baseURL+"/tickets", c.cfg.MarkReadTimeout, nil)
}

// DashboardMetrics fetches the authoritative analytics object. A JSON null
// body decodes to a nil pointer, which callers treat as absence.
func (c *Client) DashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, CallResult) {
	var metrics *domain.DashboardMetrics
	res := c.call(ctx, http.MethodGet, c.baseURL+"/dashboard_metrics", c.cfg.MetricsTimeout, &metrics)
	if !res.OK() {
		return nil, res
	}
	return metrics, res
}

// call performs one bounded request and decodes a JSON body into out when the
// status is 2xx. out may be nil for calls whose body is irrelevant.
func (c *Client) call(ctx context.Context, method, endpoint string, timeout time.Duration, out any) CallResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return CallResult{Outcome: OutcomeTransportError, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return CallResult{
			Outcome:    OutcomeBadStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s %s: status %d", method, endpoint, resp.StatusCode),
		}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return CallResult{Outcome: OutcomeTransportError, StatusCode: resp.StatusCode, Err: err}
		}
	}
	return ok(resp.StatusCode)
}

// classify separates timeouts from other transport failures.
func classify(err error) CallResult {
	if errors.Is(err, context.DeadlineExceeded) {
		return CallResult{Outcome: OutcomeTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CallResult{Outcome: OutcomeTimeout, Err: err}
	}
	return CallResult{Outcome: OutcomeTransportError, Err: err}
}
