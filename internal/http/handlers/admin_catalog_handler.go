package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"jamde/internal/domain"
	applog "jamde/internal/log"
	"jamde/internal/repos"
	"jamde/internal/services"
	"jamde/internal/validate"
)

type AdminCatalogHandler struct {
	Catalog *services.CatalogService
}

type productIn struct {
	CategoryID     string              `json:"categoryId"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Price          decimal.Decimal     `json:"price"`
	CompareAtPrice decimal.NullDecimal `json:"compareAtPrice"`
	SKU            string              `json:"sku"`
	Stock          int                 `json:"stock"`
	Active         *bool               `json:"active"`
	Featured       bool                `json:"featured"`
	Images         []string            `json:"images"`
}

func (in productIn) input() repos.ProductInput {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return repos.ProductInput{
		CategoryID:     in.CategoryID,
		Name:           in.Name,
		Description:    in.Description,
		Price:          in.Price,
		CompareAtPrice: in.CompareAtPrice,
		SKU:            in.SKU,
		Stock:          in.Stock,
		Active:         active,
		Featured:       in.Featured,
		Images:         in.Images,
	}
}

type idsIn struct {
	IDs    []string `json:"ids"`
	Active bool     `json:"active"`
}

func (in idsIn) valid() bool {
	if len(in.IDs) == 0 || len(in.IDs) > 100 {
		return false
	}
	for _, id := range in.IDs {
		if _, ok := validate.ID(id); !ok {
			return false
		}
	}
	return true
}

// GET /admin/products?q=&page=
func (h *AdminCatalogHandler) Products(c *fiber.Ctx) error {
	q, qe := adminQuery(c)
	if qe != nil {
		return badRequest(c, qe.field, qe.msg)
	}
	page, err := h.Catalog.AdminProducts(c.UserContext(), q, validate.Page(c.Query("page")))
	if err != nil {
		return fail(c, "admin.products.list", err)
	}
	return c.JSON(page)
}

// GET /admin/products/:id
func (h *AdminCatalogHandler) Product(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "admin.products.detail", domain.ErrNotFound)
	}
	p, err := h.Catalog.AdminProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.products.detail", err)
	}
	return c.JSON(p)
}

// POST /admin/products
func (h *AdminCatalogHandler) Create(c *fiber.Ctx) error {
	var in productIn
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request format")
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), in.input())
	if err != nil {
		return fail(c, "admin.products.create", err)
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product": p.ID, "slug": p.Slug})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// POST /admin/products/:id
func (h *AdminCatalogHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "admin.products.update", domain.ErrNotFound)
	}
	var in productIn
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request format")
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), id, in.input())
	if err != nil {
		return fail(c, "admin.products.update", err)
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product": p.ID, "slug": p.Slug})
	return c.JSON(p)
}

// POST /admin/products/:id/delete
func (h *AdminCatalogHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, "admin.products.delete", domain.ErrNotFound)
	}
	return h.deleteIDs(c, []string{id})
}

// POST /admin/products/delete {ids}
func (h *AdminCatalogHandler) BulkDelete(c *fiber.Ctx) error {
	var in idsIn
	if err := c.BodyParser(&in); err != nil || !in.valid() {
		return badRequest(c, "ids", "select 1-100 products")
	}
	return h.deleteIDs(c, in.IDs)
}

func (h *AdminCatalogHandler) deleteIDs(c *fiber.Ctx, ids []string) error {
	res, err := h.Catalog.DeleteProducts(c.UserContext(), ids...)
	if err != nil {
		return fail(c, "admin.products.delete", err)
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"ids": ids, "deleted": res.Deleted, "disabled": res.Disabled})
	return c.JSON(res)
}

// POST /admin/products/active {ids, active}
func (h *AdminCatalogHandler) BulkActive(c *fiber.Ctx) error {
	var in idsIn
	if err := c.BodyParser(&in); err != nil || !in.valid() {
		return badRequest(c, "ids", "select 1-100 products")
	}
	n, err := h.Catalog.SetActive(c.UserContext(), in.Active, in.IDs...)
	if err != nil {
		return fail(c, "admin.products.active", err)
	}
	applog.Audit(c, "admin.products.active", map[string]any{"ids": in.IDs, "active": in.Active, "updated": n})
	return c.JSON(fiber.Map{"updated": n})
}

// POST /admin/categories
func (h *AdminCatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var in struct {
		Name string `json:"name" form:"name"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request format")
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), in.Name)
	if err != nil {
		return fail(c, "admin.categories.create", err)
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"category": cat.ID, "slug": cat.Slug})
	return c.Status(fiber.StatusCreated).JSON(cat)
}
