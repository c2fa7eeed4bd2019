package transcript

import (
	"regexp"
	"strconv"

	"github.com/spec-kit/ticket-archiver/internal/domain"
)

// Placeholders accept any case, doubled braces and whitespace inside the braces.
var (
	usernamePlaceholder    = regexp.MustCompile(`(?i)\{+\s*(user)?name\s*\}+`)
	displayNamePlaceholder = regexp.MustCompile(`(?i)\{+\s*(nick|display)(name)?\s*\}+`)
	numberPlaceholder      = regexp.MustCompile(`(?i)\{+\s*num(ber)?\s*\}+`)
)

// ChannelName fills a category's channel naming pattern for a ticket.
func ChannelName(pattern string, creator *domain.User, number int) string {
	var username, displayName string
	if creator != nil {
		username, displayName = creator.Username, creator.DisplayName
	}
	name := usernamePlaceholder.ReplaceAllLiteralString(pattern, username)
	name = displayNamePlaceholder.ReplaceAllLiteralString(name, displayName)
	return numberPlaceholder.ReplaceAllLiteralString(name, strconv.Itoa(number))
}
