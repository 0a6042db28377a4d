package handlers

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "jamde/internal/log"
)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// mediaPath resolves a product image reference such as "products/prd-001/main.jpg" to a
// relative path under the media root. It refuses anything that could leave the root.
func mediaPath(ref string) (string, bool) {
	lower := strings.ToLower(ref)
	for _, bad := range []string{"..", "%2e", "%2f", "%5c", "\\", "\x00"} {
		if strings.Contains(lower, bad) {
			return "", false
		}
	}
	rel := filepath.Clean(ref)
	if rel == "." || filepath.IsAbs(rel) || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return rel, true
}

// Media serves product images from dir. Refused paths and non-image files get 404.
func Media(dir string) fiber.Handler {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return func(c *fiber.Ctx) error {
		ref := c.Params("*")
		rel, ok := mediaPath(ref)
		if !ok {
			applog.Security(c, "media.traversal.block", map[string]any{"path": ref})
			return c.SendStatus(fiber.StatusNotFound)
		}
		if !imageExts[strings.ToLower(filepath.Ext(rel))] {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(dir, rel), true)
	}
}
