package domain

import "strings"

// Slugify lowercases name and collapses every run of characters outside [a-z0-9] into a
// single hyphen, trimming hyphens at both ends. "Hand-Woven Basket (Large)" becomes
// "hand-woven-basket-large".
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
