package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"jamde/internal/repos"
	"jamde/internal/validate"
)

var productSorts = map[string]bool{
	"price_asc": true, "price_desc": true, "name_asc": true, "name_desc": true, "newest": true,
}

// queryError names the query parameter that failed validation.
type queryError struct{ field, msg string }

func priceQuery(c *fiber.Ctx, key string) (decimal.NullDecimal, *queryError) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}, &queryError{key, "enter a valid price"}
	}
	return decimal.NewNullDecimal(d), nil
}

// productFilter reads the storefront listing query:
// q, category, minPrice, maxPrice, sort, page.
func productFilter(c *fiber.Ctx) (repos.ProductFilter, *queryError) {
	f := repos.ProductFilter{Page: validate.Page(c.Query("page"))}

	if raw := c.Query("q"); strings.TrimSpace(raw) != "" {
		q, ok := validate.Q(raw)
		if !ok {
			return f, &queryError{"q", "enter a valid keyword (letters/numbers only)"}
		}
		f.Q = strings.ToLower(q)
	}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		slug, ok := validate.Slug(strings.ToLower(raw))
		if !ok {
			return f, &queryError{"category", "invalid category"}
		}
		f.CategorySlug = slug
	}
	var qe *queryError
	if f.MinPrice, qe = priceQuery(c, "minPrice"); qe != nil {
		return f, qe
	}
	if f.MaxPrice, qe = priceQuery(c, "maxPrice"); qe != nil {
		return f, qe
	}
	if f.MinPrice.Valid && f.MaxPrice.Valid && f.MinPrice.Decimal.GreaterThan(f.MaxPrice.Decimal) {
		return f, &queryError{"maxPrice", "maxPrice must not be below minPrice"}
	}
	if s := strings.TrimSpace(c.Query("sort")); s != "" {
		if !productSorts[s] {
			return f, &queryError{"sort", "unknown sort order"}
		}
		f.Sort = s
	}
	return f, nil
}

// adminQuery reads the free-text search of the back-office tables. Empty is allowed.
func adminQuery(c *fiber.Ctx) (string, *queryError) {
	raw := c.Query("q")
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	q, ok := validate.Q(raw)
	if !ok {
		// order ids and emails are searchable too
		if e, okEmail := validate.Email(raw); okEmail {
			return e, nil
		}
		if id, okID := validate.ID(raw); okID {
			return id, nil
		}
		return "", &queryError{"q", "enter a valid search term"}
	}
	return q, nil
}
