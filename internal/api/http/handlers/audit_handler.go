package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/finsupport/triage-service/internal/domain"
	"github.com/finsupport/triage-service/internal/repository"
)

// AuditHandler exposes the action audit trail. Without a configured audit
// store both endpoints serve empty lists.
type AuditHandler struct {
	audits repository.AuditRepository
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audits repository.AuditRepository) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// Recent GET /audit?limit= lists the latest recorded actions.
func (h *AuditHandler) Recent(c *fiber.Ctx) error {
	if h.audits == nil {
		return c.JSON(fiber.Map{"data": []domain.AuditEntry{}})
	}
	entries, err := h.audits.ListRecent(c.UserContext(), parseLimit(c, 50))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

// ByTicket GET /audit/tickets/:id lists actions taken against one ticket.
func (h *AuditHandler) ByTicket(c *fiber.Ctx) error {
	if h.audits == nil {
		return c.JSON(fiber.Map{"data": []domain.AuditEntry{}})
	}
	entries, err := h.audits.ListByTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}
