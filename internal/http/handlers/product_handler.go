package handlers

import (
	"github.com/gofiber/fiber/v2"

	"jamde/internal/domain"
	"jamde/internal/log"
	"jamde/internal/services"
	"jamde/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Reviews *services.ReviewService
}

// GET /products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	f, qe := productFilter(c)
	if qe != nil {
		return badRequest(c, qe.field, qe.msg)
	}
	page, err := h.Catalog.ListProducts(c.UserContext(), f)
	if err != nil {
		return fail(c, "products.list", err)
	}
	return c.JSON(page)
}

func productSlug(c *fiber.Ctx) (string, bool) {
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "slug"})
	}
	return slug, ok
}

// GET /products/:slug
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	slug, ok := productSlug(c)
	if !ok {
		return fail(c, "products.detail", domain.ErrNotFound.With("this item is no longer available"))
	}
	d, err := h.Catalog.Product(c.UserContext(), slug)
	if err != nil {
		return fail(c, "products.detail", err)
	}
	return c.JSON(d)
}

// GET /products/:slug/reviews
func (h *ProductHandler) ListReviews(c *fiber.Ctx) error {
	slug, ok := productSlug(c)
	if !ok {
		return fail(c, "reviews.list", domain.ErrNotFound)
	}
	rows, err := h.Reviews.List(c.UserContext(), slug)
	if err != nil {
		return fail(c, "reviews.list", err)
	}
	return c.JSON(fiber.Map{"items": rows})
}

type reviewIn struct {
	Rating  int    `json:"rating" form:"rating"`
	Comment string `json:"comment" form:"comment"`
}

// POST /products/:slug/reviews
func (h *ProductHandler) AddReview(c *fiber.Ctx) error {
	slug, ok := productSlug(c)
	if !ok {
		return fail(c, "reviews.add", domain.ErrNotFound)
	}
	var in reviewIn
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request format")
	}
	rv, err := h.Reviews.Add(c.UserContext(), principal(c), slug, in.Rating, in.Comment)
	if err != nil {
		return fail(c, "reviews.add", err)
	}
	log.Audit(c, "reviews.add", map[string]any{"product": rv.ProductID, "rating": rv.Rating})
	return c.Status(fiber.StatusCreated).JSON(rv)
}
