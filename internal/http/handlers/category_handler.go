package handlers

import (
	"github.com/gofiber/fiber/v2"

	"jamde/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

type categoryOut struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GET /categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "categories.list", err)
	}
	out := make([]categoryOut, len(cats))
	for i, cat := range cats {
		out[i] = categoryOut{ID: cat.ID, Name: cat.Name}
	}
	return c.JSON(out)
}
