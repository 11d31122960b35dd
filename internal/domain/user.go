// Package domain contains entity without logic, just meta-data
package domain

import "unicode/utf8"

const MaxUsernameLen = 64

// ConnID identifies one live connection for its whole lifetime.
type ConnID string

// Identity is the display name a connection registered with.
type Identity struct {
	ID       ConnID `json:"id"`
	Username string `json:"username"`
}

// NewIdentity never fails; overlong names are cut at MaxUsernameLen runes.
func NewIdentity(id ConnID, username string) Identity {
	return Identity{ID: id, Username: TrimUsername(username)}
}

func TrimUsername(username string) string {
	if utf8.RuneCountInString(username) <= MaxUsernameLen {
		return username
	}
	runes := []rune(username)
	return string(runes[:MaxUsernameLen])
}
