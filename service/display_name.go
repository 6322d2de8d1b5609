package service

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	MinDisplayNameLength = 3
	MaxDisplayNameLength = 32
)

// Display names end up in HTML and Discord messages, so markup is stripped on the way in
var displayNamePolicy = bluemonday.StrictPolicy()

// sanitizeDisplayName strips tags and returns plain text. Sanitize escapes entities, so the output
// is unescaped again and re-stripped until stable, which also catches markup smuggled in as entities.
func sanitizeDisplayName(name string) string {
	clean := strings.TrimSpace(name)
	for i := 0; i < 4; i++ {
		next := strings.TrimSpace(html.UnescapeString(displayNamePolicy.Sanitize(clean)))
		if next == clean {
			break
		}
		clean = next
	}
	return clean
}

// ValidateDisplayName returns the cleaned name or ErrInvalidDisplayName
func ValidateDisplayName(name string) (string, error) {
	clean := sanitizeDisplayName(name)
	n := utf8.RuneCountInString(clean)
	if n < MinDisplayNameLength || n > MaxDisplayNameLength {
		return "", fmt.Errorf("%w: got %d", ErrInvalidDisplayName, n)
	}
	return clean, nil
}

// displayNameFromEmail takes the local part of an address as the starting display name
func displayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	name := sanitizeDisplayName(local)
	if name == "" {
		name = "player"
	}
	// Leave room for a numeric suffix
	if utf8.RuneCountInString(name) > MaxDisplayNameLength-4 {
		name = string([]rune(name)[:MaxDisplayNameLength-4])
	}
	return name
}

// displayNameCandidate returns base for attempt 1 and base followed by the attempt number after that
func displayNameCandidate(base string, attempt int) string {
	if attempt <= 1 {
		return base
	}
	return fmt.Sprintf("%s%d", base, attempt)
}
