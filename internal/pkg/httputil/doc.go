// Package httputil writes the JSON bodies served by the webhook and health
// endpoints and decodes pushed updates.
package httputil
