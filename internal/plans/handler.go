package plans

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/httpx"
)

// Handler exposes the public catalog and the admin plan endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a plan handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /plans?operator=.
func (h *Handler) List(c *fiber.Ctx) error {
	plans, err := h.service.ListActive(c.UserContext(), c.Query("operator"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"plans": plans})
}

// Get handles GET /plans/:id.
func (h *Handler) Get(c *fiber.Ctx) error {
	p, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"plan": p})
}

// ListAll handles GET /admin/plans.
func (h *Handler) ListAll(c *fiber.Ctx) error {
	plans, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"plans": plans})
}

// Create handles POST /admin/plans.
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateInput
	if err := c.BodyParser(&in); err != nil {
		return httpx.ErrBadBody
	}
	p, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "Plan created successfully", "plan": p})
}

// Update handles PUT /admin/plans/:id.
func (h *Handler) Update(c *fiber.Ctx) error {
	var in UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return httpx.ErrBadBody
	}
	p, err := h.service.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Plan updated successfully", "plan": p})
}

// Delete handles DELETE /admin/plans/:id.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Plan deleted successfully"})
}

func httpError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, "Plan not found")
	}
	return err
}
