package telegram

import (
	"errors"
	"fmt"
	"strings"
)

// APIError is a Bot API call that came back with ok=false or a non-2xx
// status.
type APIError struct {
	Method      string
	StatusCode  int
	ErrorCode   int
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("telegram %s: http %d: %s", e.Method, e.StatusCode, e.Description)
	}
	return fmt.Sprintf("telegram %s: http %d", e.Method, e.StatusCode)
}

func describes(err error, fragments ...string) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	desc := strings.ToLower(apiErr.Description)
	for _, f := range fragments {
		if strings.Contains(desc, f) {
			return true
		}
	}
	return false
}

// IsNotModified reports an edit that would leave the message unchanged.
func IsNotModified(err error) bool {
	return describes(err, "message is not modified")
}

// IsMessageGone reports an edit target that was deleted or is too old.
func IsMessageGone(err error) bool {
	return describes(err, "message to edit not found", "message can't be edited", "message_id_invalid")
}

// IsParseError reports text Telegram rejected as malformed Markdown.
func IsParseError(err error) bool {
	return describes(err, "can't parse entities", "can't parse entity")
}
