package session

import "github.com/ignite/vcfbot/internal/domain"

// EventKind identifies what an Event carries.
type EventKind int

const (
	EventMenu EventKind = iota + 1
	EventFile
	EventText
	// EventUploadCheck is the debounce completion check the machine
	// schedules for itself after each accepted file.
	EventUploadCheck
)

// Event is one inbound occurrence for a session.
type Event struct {
	Kind EventKind

	// Menu
	Choice domain.Choice
	// MessageID is the message carrying the pressed button, if any. Menu
	// replies edit it in place when possible.
	MessageID int64

	// File
	Filename string
	Data     []byte
	// Err is set when the transport could not fetch the file.
	Err error

	// Text
	Text string

	// UploadCheck
	Mode domain.Mode
}

// MenuEvent builds a menu selection event.
func MenuEvent(choice domain.Choice, messageID int64) Event {
	return Event{Kind: EventMenu, Choice: choice, MessageID: messageID}
}

// FileEvent builds an uploaded-file event.
func FileEvent(name string, data []byte, err error) Event {
	return Event{Kind: EventFile, Filename: name, Data: data, Err: err}
}

// TextEvent builds a plain text event.
func TextEvent(text string) Event {
	return Event{Kind: EventText, Text: text}
}

func uploadCheckEvent(mode domain.Mode) Event {
	return Event{Kind: EventUploadCheck, Mode: mode}
}
