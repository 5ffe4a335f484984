package telegram

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ignite/vcfbot/internal/pkg/httputil"
	"github.com/ignite/vcfbot/internal/pkg/logger"
	"github.com/ignite/vcfbot/internal/service/session"
)

// SecretHeader carries the secret_token given to setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// redeliverAfter is the Retry-After sent while shutting down; another
// replica is expected to take the update.
const redeliverAfter = 5 * time.Second

// SessionCounter reports live sessions for the health endpoint.
type SessionCounter interface {
	Len() int
}

// WebhookHandler receives updates pushed by Telegram.
type WebhookHandler struct {
	router   *Router
	secret   string
	sessions SessionCounter
}

// NewWebhookHandler creates a webhook handler. sessions may be nil. An empty
// secret serves only the health endpoint, as in poll mode.
func NewWebhookHandler(router *Router, secret string, sessions SessionCounter) *WebhookHandler {
	return &WebhookHandler{router: router, secret: secret, sessions: sessions}
}

// Routes returns the HTTP routes. The update endpoint is only mounted when
// a secret is set; the request logger is left out because its path carries
// the secret.
func (h *WebhookHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Get("/healthz", h.health)
	if h.secret != "" {
		r.Post("/telegram/webhook/{secret}", h.receive)
	}
	return r
}

func (h *WebhookHandler) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if h.sessions != nil {
		resp["sessions"] = h.sessions.Len()
	}
	httputil.OK(w, resp)
}

func (h *WebhookHandler) authorized(r *http.Request) bool {
	if !equal(chi.URLParam(r, "secret"), h.secret) {
		return false
	}
	if header := r.Header.Get(SecretHeader); header != "" && !equal(header, h.secret) {
		return false
	}
	return true
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (h *WebhookHandler) receive(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		httputil.NotFound(w)
		return
	}

	var u Update
	if !httputil.Decode(w, r, &u) {
		return
	}

	if err := h.router.Handle(r.Context(), u); err != nil {
		if errors.Is(err, session.ErrRegistryClosed) {
			httputil.Unavailable(w, "shutting down", redeliverAfter)
			return
		}
		logger.Warn("webhook update dropped", "update_id", u.UpdateID, "error", err)
	}
	httputil.OK(w, map[string]bool{"ok": true})
}
