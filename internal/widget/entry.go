package widget

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jask/casechat/internal/chatservice"
)

// Role identifies who an entry speaks for.
type Role string

const (
	RoleUser  Role = "user"
	RoleBot   Role = "bot"
	RoleError Role = "error"
)

// Entry is one line of the transcript. Text is plain data; hosts must
// render it through an escaping step, never as markup.
type Entry struct {
	ID string
	// ReplyTo is the ID of the user entry a bot or error entry answers.
	ReplyTo string
	Role    Role
	Text    string
	// Options are quick replies the service offered with a bot entry.
	Options []string
	At      time.Time
}

// IsReply reports whether e answers an earlier user entry.
func (e Entry) IsReply() bool {
	return e.ReplyTo != "" && (e.Role == RoleBot || e.Role == RoleError)
}

func describeFailure(err error) string {
	var se *chatservice.StatusError
	switch {
	case errors.As(err, &se):
		text := http.StatusText(se.Code)
		if text == "" {
			return fmt.Sprintf("Message not delivered: the chat service answered with status %d.", se.Code)
		}
		return fmt.Sprintf("Message not delivered: the chat service answered %d %s.", se.Code, text)
	case errors.Is(err, chatservice.ErrMalformedReply):
		return "Message not delivered: the chat service sent a reply that could not be read."
	case errors.Is(err, chatservice.ErrTransport):
		return "Message not delivered: could not reach the chat service."
	case errors.Is(err, context.DeadlineExceeded):
		return "Message not delivered: the chat service took too long to answer."
	default:
		return "Message not delivered: " + err.Error()
	}
}
