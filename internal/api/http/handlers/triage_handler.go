package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/finsupport/triage-service/internal/api/dto"
	"github.com/finsupport/triage-service/internal/auth"
	"github.com/finsupport/triage-service/internal/service"
	"github.com/finsupport/triage-service/internal/session"
	apperrors "github.com/finsupport/triage-service/pkg/util/errorutil"
)

// TriageHandler serves the inbox, queue, category, alert and stats views and
// the operator actions against tickets.
type TriageHandler struct {
	service *service.TriageService
}

// NewTriageHandler constructs handler.
func NewTriageHandler(triageService *service.TriageService) *TriageHandler {
	return &TriageHandler{service: triageService}
}

func sessionFromCtx(c *fiber.Ctx) (*session.Session, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Session == nil {
		return nil, apperrors.NewUnauthorized("operator session required")
	}
	return principal.Session, nil
}

// Refresh POST /triage/refresh re-fetches the working set on demand.
func (h *TriageHandler) Refresh(c *fiber.Ctx) error {
	sess, err := sessionFromCtx(c)
	if err != nil {
		return err
	}
	h.service.Refresh(c.UserContext(), sess)
	return c.JSON(fiber.Map{"data": fiber.Map{
		"refreshed_at": sess.LastRefresh(),
		"tickets":      len(sess.Tickets()),
	}})
}

// Filters PUT /triage/filters sets the status/priority filters.
func (h *TriageHandler) Filters(c *fiber.Ctx) error {
	sess, err := sessionFromCtx(c)
	if err != nil {
		return err
	}
	var req struct {
		Status   string `json:"status"`
		Priority string `json:"priority"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		req.Status = session.FilterAll
	}
	if req.Priority == "" {
		req.Priority = session.FilterAll
	}
	sess.SetFilters(req.Status, req.Priority)
	return c.JSON(fiber.Map{"data": fiber.Map{"status": req.Status, "priority": req.Priority}})
}

// Inbox GET /triage/inbox?q= serves the searchable tabbed inbox.
func (h *TriageHandler) Inbox(c *fiber.Ctx) error {
	sess, err := sessionFromCtx(c)
	if err != nil {
		return err
	}
	now := time.Now()
	view := h.service.Inbox(c.UserContext(), sess, c.Query("q"))
	return c.JSON(fiber.Map{"data": dto.InboxResponse{
		Query:       view.Query,
		UnreadCount: view.UnreadCount,
		MatchCount:  view.MatchCount,
		Unresolved:  dto.Grouped(view.Unresolved, now),
		Fraud:       dto.Grouped(view.Fraud, now),
		Payments:    dto.Grouped(view.Payments, now),
		General:     dto.Grouped(view.General, now),
		Resolved:    dto.Grouped(view.Resolved, now),
	}})
}

// Queue GET /triage/queue serves the priority queue view.
func (h *TriageHandler) Queue(c *fiber.Ctx) error {
	sess, err := sessionFromCtx(c)
	if err != nil {
		return err
	}
	now := time.Now()
	view := h.service.Queue(c.UserContext(), sess)
	return c.JSON(fiber.Map{"data": dto.QueueResponse{
		High:   dto.Summaries(view.High, now),
		Medium: dto.Summaries(view.Medium, now),
		Low:    dto.Summaries(view.Low, now),
	}})
}

// Categories GET /triage/categories serves the by-category view.
func (h *TriageHandler) Categories(c *fiber.Ctx) error {
	sess, err := sessionFromCtx(c)
	if err != nil {
		return err
	}
	now := time.Now()
	view := h.service.ByCategory(c.UserContext(), sess)
	return c.JSON(fiber.Map{"data": dto.CategoryResponse{
		Fraud:    dto.Summaries(view.Fraud, now),
		Payments: dto.Summaries(view.Payments, now),
		General:  dto.Summaries(view.General, now),
	}})
}

// Alerts GET /triage/alerts serves tickets needing immediate attention.
func (h *TriageHandler) Alerts(c *fiber.Ctx) error {
	sess, err := sessionFromCtx(c)
	if err != nil {
		return err
	}
	now := time.Now()
	alerts := h.service.Alerts(c.UserContext(), sess)
	items := make([]dto.AlertItem, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, dto.AlertItem{
			TicketSummary: dto.Summary(a.Ticket, now),
			Reasons:       a.Reasons,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Stats GET /triage/stats serves the sidebar counters.
func (h *TriageHandler) Stats(c *fiber.Ctx) error {
	sess, err := sessionFromCtx(c)
	if err != nil {
		return err
	}
	stats := h.service.Stats(c.UserContext(), sess)
	return c.JSON(fiber.Map{"data": dto.StatsResponse{
		Total:    stats.Total,
		Unread:   stats.Unread,
		HighOpen: stats.HighOpen,
		Fraud:    stats.Fraud,
		Resolved: stats.Resolved,
	}})
}

// Select POST /triage/tickets/:id/select records the selection, marks the
// ticket read and returns the detail payload.
func (h *TriageHandler) Select(c *fiber.Ctx) error {
	sess, err := sessionFromCtx(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Select(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.Detail(ticket, time.Now())})
}

// Deselect DELETE /triage/selection clears the selection.
func (h *TriageHandler) Deselect(c *fiber.Ctx) error {
	sess, err := sessionFromCtx(c)
	if err != nil {
		return err
	}
	h.service.ClearSelection(sess)
	return c.SendStatus(fiber.StatusNoContent)
}

// Approve POST /triage/tickets/:id/approve sends the draft reply upstream.
func (h *TriageHandler) Approve(c *fiber.Ctx) error {
	sess, err := sessionFromCtx(c)
	if err != nil {
		return err
	}
	result, err := h.service.Approve(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ApproveResponse{
		EmailSent: result.EmailSent,
		Recipient: result.Recipient,
	}})
}

// Close POST /triage/tickets/:id/close closes a ticket without replying.
func (h *TriageHandler) Close(c *fiber.Ctx) error {
	sess, err := sessionFromCtx(c)
	if err != nil {
		return err
	}
	if err := h.service.Close(c.UserContext(), sess, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// FetchEmails POST /triage/fetch-emails triggers upstream ingestion.
func (h *TriageHandler) FetchEmails(c *fiber.Ctx) error {
	sess, err := sessionFromCtx(c)
	if err != nil {
		return err
	}
	var req dto.FetchEmailsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.MaxEmails <= 0 {
		req.MaxEmails = 5
	}
	result, err := h.service.FetchEmails(c.UserContext(), sess, req.IncludeRead, req.MaxEmails)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// Metrics GET /triage/metrics serves the analytics dashboard object.
func (h *TriageHandler) Metrics(c *fiber.Ctx) error {
	sess, err := sessionFromCtx(c)
	if err != nil {
		return err
	}
	metrics := h.service.Dashboard(c.UserContext(), sess)
	return c.JSON(fiber.Map{"data": dto.NewMetricsResponse(metrics)})
}

// parseLimit reads a ?limit= query parameter with a default.
func parseLimit(c *fiber.Ctx, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
