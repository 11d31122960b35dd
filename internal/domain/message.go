package domain

import (
	"strconv"
	"time"
)

// Message is immutable once appended to a group log.
type Message struct {
	ID       string `json:"id"`
	UserID   ConnID `json:"userId"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// NewMessage derives the id from the append time in milliseconds. Two messages
// created in the same millisecond share an id; treat it as ordering only.
func NewMessage(now time.Time, author Identity, text string) Message {
	return Message{
		ID:       strconv.FormatInt(now.UnixMilli(), 10),
		UserID:   author.ID,
		Username: author.Username,
		Text:     text,
	}
}
