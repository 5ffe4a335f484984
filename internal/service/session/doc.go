// Package session implements the conversational state machine that drives
// every conversion, and the registry that runs one machine worker per chat.
//
// A Session is owned by exactly one worker goroutine. Every event for a
// session key, including the debounce completion checks scheduled by the
// machine itself, is delivered through the Registry mailbox for that key,
// so handlers never race on session fields. Different keys are processed
// concurrently.
//
// The machine talks to the chat transport only through the Gateway
// interface defined in gateway.go. It never imports net/http.
package session
