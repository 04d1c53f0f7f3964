package seller

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRegex  = regexp.MustCompile(`[^a-z0-9]+`)
	multiDashRegex = regexp.MustCompile(`-+`)
)

// Slugify turns a store name into a URL slug, prefixed with the first block of
// the owner's id so two stores with the same name do not collide.
func Slugify(storeName, userID string) string {
	prefix := strings.Split(userID, "-")[0]

	slug := strings.ToLower(strings.TrimSpace(storeName))
	slug = nonAlnumRegex.ReplaceAllString(slug, "-")
	slug = multiDashRegex.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if prefix == "" {
		return slug
	}
	return prefix + "-" + slug
}
