package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/salesflow/internal/service"
)

// LeadsHandler proxies CRM data for authenticated users.
type LeadsHandler struct {
	leads *service.LeadService
}

// NewLeadsHandler constructs handler.
func NewLeadsHandler(leadService *service.LeadService) *LeadsHandler {
	return &LeadsHandler{leads: leadService}
}

// List handles GET /api/leads.
func (h *LeadsHandler) List(c *fiber.Ctx) error {
	viewer, err := currentUser(c)
	if err != nil {
		return err
	}
	leads, err := h.leads.ListLeads(c.UserContext(), viewer)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leads})
}

// Team handles GET /api/team.
func (h *LeadsHandler) Team(c *fiber.Ctx) error {
	team, err := h.leads.ListTeam(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": team})
}

// Staff handles GET /api/staff/:id.
func (h *LeadsHandler) Staff(c *fiber.Ctx) error {
	staff, err := h.leads.GetStaff(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staff})
}

// Activities handles GET /api/leads/:id/activities.
func (h *LeadsHandler) Activities(c *fiber.Ctx) error {
	viewer, err := currentUser(c)
	if err != nil {
		return err
	}
	activities, err := h.leads.LeadActivities(c.UserContext(), viewer, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activities})
}

// Reminders handles GET /api/leads/:id/reminders.
func (h *LeadsHandler) Reminders(c *fiber.Ctx) error {
	viewer, err := currentUser(c)
	if err != nil {
		return err
	}
	reminders, err := h.leads.LeadReminders(c.UserContext(), viewer, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reminders})
}
