// Package telegram adapts the Telegram Bot API to the session machine.
//
// Client speaks the Bot API over a retrying HTTP client. Gateway implements
// session.Gateway on top of it. Router turns incoming updates into registry
// events, and Poller / WebhookHandler are the two ways updates arrive.
// Session keys are chat ids in decimal.
package telegram
