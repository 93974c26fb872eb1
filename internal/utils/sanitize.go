package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var usernamePolicy = bluemonday.StrictPolicy()

// SanitizeUsername strips any markup from a display name. Usernames are
// denormalized into order records, so they must be inert text.
func SanitizeUsername(name string) string {
	return strings.TrimSpace(usernamePolicy.Sanitize(name))
}
