package helpers

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// DisplayName joins first and last name, falling back to the username.
func DisplayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		name = u.Username
	}
	return name
}

// Handle returns the @-prefixed username or an empty string.
func Handle(u *tele.User) string {
	if u == nil || u.Username == "" {
		return ""
	}
	return "@" + strings.TrimPrefix(u.Username, "@")
}
